package server

import (
	"encoding/json"
	"net/http"

	"github.com/mtamaramu/authbroker/identity"
)

// SsoListHandler lists the caller organization's SSO configurations. Client
// secrets never leave the backend; only their presence is reported.
func (s *Server) SsoListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errorJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		configs, err := s.backend.ListSsoConfigs(r.Context(), token)
		if err != nil {
			backendErrorJSON(w, err)
			return
		}
		if configs == nil {
			configs = []identity.SsoConfig{}
		}
		writeJSON(w, http.StatusOK, map[string][]identity.SsoConfig{"configs": configs})
	}
}

// SsoUpsertHandler creates or updates an SSO configuration.
func (s *Server) SsoUpsertHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errorJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req identity.SsoConfigUpsert
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Provider == "" || req.ClientID == "" || req.ExternalOrgID == "" {
			errorJSON(w, http.StatusBadRequest, "provider, clientId, externalOrgId are required")
			return
		}

		if err := s.backend.UpsertSsoConfig(r.Context(), token, req); err != nil {
			backendErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// SsoDeleteHandler removes a provider's SSO configuration.
func (s *Server) SsoDeleteHandler() http.HandlerFunc {
	type request struct {
		Provider string `json:"provider"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errorJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Provider == "" {
			errorJSON(w, http.StatusBadRequest, "provider is required")
			return
		}

		if err := s.backend.DeleteSsoConfig(r.Context(), token, req.Provider); err != nil {
			backendErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
