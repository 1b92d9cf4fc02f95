package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// Code mirrors the backend's RPC status codes.
type Code int

const (
	CodeInvalidArgument  Code = 3
	CodeNotFound         Code = 5
	CodePermissionDenied Code = 7
	CodeInternal         Code = 13
	CodeUnavailable      Code = 14
	CodeUnauthenticated  Code = 16
)

// Error is a definitive answer from the identity backend: the backend was
// reachable and rejected the request. Anything else (connection failure,
// malformed response) is returned as a plain wrapped error and treated as a
// transport failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity backend: code %d: %s", e.Code, e.Message)
}

// IsRejection reports whether err is a backend-reported rejection as opposed
// to a transport failure. Rejections carry a user-facing message and are
// never retried; transport failures surface as 5xx.
func IsRejection(err error) bool {
	var be *Error
	return errors.As(err, &be)
}

// HTTPStatus maps a backend or transport error to the status the broker
// returns to its own caller.
func HTTPStatus(err error) int {
	var be *Error
	if !errors.As(err, &be) {
		return http.StatusBadGateway
	}
	switch be.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
