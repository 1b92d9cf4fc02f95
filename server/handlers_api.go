package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/session"
)

// WoffAuthHandler logs in a LINE WORKS in-app (WOFF) user: the embedded app
// already holds a provider access token, so there is no redirect leg and the
// session comes back as JSON instead of a fragment.
func (s *Server) WoffAuthHandler() http.HandlerFunc {
	type request struct {
		AccessToken string `json:"accessToken"`
		DomainID    string `json:"domainId"`
		RedirectURI string `json:"redirectUri"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.AccessToken == "" || req.DomainID == "" {
			errorJSON(w, http.StatusBadRequest, "accessToken and domainId are required")
			return
		}

		result, err := s.flows.WoffLogin(r.Context(), req.AccessToken, req.DomainID, req.RedirectURI)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrInvalidRedirectURI):
				errorJSON(w, http.StatusBadRequest, "Invalid or missing redirect_uri")
			case identity.IsRejection(err):
				errorJSON(w, http.StatusUnauthorized, rejectionMessage(err, "login rejected"))
			default:
				errorJSON(w, http.StatusBadGateway, "identity backend unavailable")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"token":     result.Token,
			"expiresAt": result.ExpiresAt,
			"orgId":     session.DecodeClaims(result.Token).OrgID,
		})
	}
}

// WoffConfigHandler looks up the WOFF app id configured for a domain so the
// front-end can initialize the in-app SDK.
func (s *Server) WoffConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		if domain == "" {
			errorJSON(w, http.StatusBadRequest, "domain parameter required")
			return
		}

		log.Info().Str("event", "woff_config").Str("domain", domain).Msg("woff config lookup")

		cfg, err := s.flows.ResolveWoffConfig(r.Context(), domain)
		if err != nil {
			backendErrorJSON(w, err)
			return
		}
		if !cfg.Available || cfg.WoffID == "" {
			errorJSON(w, http.StatusNotFound, "WOFF not configured for this domain")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"woffId": cfg.WoffID})
	}
}

// SwitchOrgHandler re-mints the caller's session for a different
// organization they belong to.
func (s *Server) SwitchOrgHandler() http.HandlerFunc {
	type request struct {
		OrganizationID string `json:"organizationId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errorJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrganizationID == "" {
			errorJSON(w, http.StatusBadRequest, "organizationId is required")
			return
		}

		result, err := s.backend.SwitchOrganization(r.Context(), token, req.OrganizationID)
		if err != nil {
			backendErrorJSON(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"token":     result.Token,
			"expiresAt": result.ExpiresAt,
			"orgId":     result.OrganizationID,
			"orgSlug":   session.DecodeClaims(result.Token).OrgSlug,
		})
	}
}
