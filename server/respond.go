package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// backendErrorJSON maps an identity backend error onto the broker's own
// response: the backend's message and mapped status for a rejection, an
// opaque 502 for a transport failure.
func backendErrorJSON(w http.ResponseWriter, err error) {
	var be *identity.Error
	if errors.As(err, &be) {
		errorJSON(w, identity.HTTPStatus(err), be.Message)
		return
	}
	errorJSON(w, identity.HTTPStatus(err), "identity backend unavailable")
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// loginErrorURL routes a failed redirect-leg login back to the broker's
// login page, preserving the validated redirect target and the message.
func (s *Server) loginErrorURL(redirectURI, message string) string {
	params := url.Values{}
	params.Set("redirect_uri", redirectURI)
	params.Set("error", message)
	return s.config.GetBrokerOrigin() + RouteLogin + "?" + params.Encode()
}

// rejectionMessage returns the backend's user-facing message for a
// rejection, or a generic fallback for transport failures.
func rejectionMessage(err error, fallback string) string {
	var be *identity.Error
	if errors.As(err, &be) {
		return be.Message
	}
	return fallback
}
