package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/mtamaramu/authbroker/internal/errors"
)

// StatePayload is the continuation context embedded in the signed state
// parameter. RedirectURI and Nonce are always present; the remaining fields
// carry per-provider context for the SSO and join-organization flows.
type StatePayload struct {
	RedirectURI   string `json:"redirect_uri"`
	Nonce         string `json:"nonce"`
	Provider      string `json:"provider,omitempty"`
	ExternalOrgID string `json:"external_org_id,omitempty"`
	JoinOrg       string `json:"join_org,omitempty"`
}

// StateSigner issues and verifies signed state tokens of the form
// base64url(payload) + "." + base64url(HMAC-SHA256(payload_b64)).
type StateSigner struct {
	secret []byte
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// Issue serializes the payload, generates a fresh nonce, and returns the
// signed state token. The MAC is computed over the encoded payload bytes so
// verification never has to re-serialize.
func (s *StateSigner) Issue(payload StatePayload) (string, error) {
	payload.Nonce = uuid.New().String()

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrapf(err, "[StateSigner.Issue] marshal payload")
	}

	payloadB64 := base64.RawURLEncoding.EncodeToString(raw)
	return payloadB64 + "." + s.sign(payloadB64), nil
}

// Verify checks the token's signature and decodes the payload. Every failure
// mode (bad format, signature mismatch, malformed payload) returns the same
// opaque ErrInvalidState so callers cannot distinguish which check failed.
func (s *StateSigner) Verify(token string) (*StatePayload, error) {
	dot := strings.Index(token, ".")
	if dot < 0 {
		return nil, errors.ErrInvalidState
	}
	payloadB64 := token[:dot]
	signature := token[dot+1:]

	// Compare the encoded strings, not decoded bytes: decoding would ignore
	// the unused trailing bits of the final base64 character, letting mutated
	// signatures verify.
	if !hmac.Equal([]byte(signature), []byte(s.sign(payloadB64))) {
		return nil, errors.ErrInvalidState
	}

	raw, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, errors.ErrInvalidState
	}

	var payload StatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.ErrInvalidState
	}
	return &payload, nil
}

func (s *StateSigner) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
