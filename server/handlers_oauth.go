package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mtamaramu/authbroker/flow"
	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
)

// GoogleRedirectHandler starts the Google leg: validates the redirect
// target, signs the state, and bounces the browser to Google.
func (s *Server) GoogleRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURI := r.URL.Query().Get("redirect_uri")
		joinOrg := r.URL.Query().Get("join_org")

		authorizeURL, err := s.flows.StartGoogle(redirectURI, joinOrg)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrProviderNotConfigured):
				http.Error(w, "Google OAuth not configured", http.StatusServiceUnavailable)
			case errors.Is(err, errors.ErrInvalidRedirectURI):
				http.Error(w, "Invalid or missing redirect_uri", http.StatusBadRequest)
			default:
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// GoogleCallbackHandler finishes the Google leg: verifies state, exchanges
// the code, and hands the session to the original redirect target.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		// Provider-reported errors carry no trustworthy state, so there is
		// no redirect target to fall back to.
		if errParam := query.Get("error"); errParam != "" {
			http.Error(w, "Google OAuth error: "+errParam, http.StatusBadRequest)
			return
		}

		code, state := query.Get("code"), query.Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		payload, err := s.flows.VerifyState(state)
		if err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		outcome, err := s.flows.CallbackGoogle(r.Context(), code, state)
		if err != nil {
			http.Redirect(w, r, s.loginErrorURL(payload.RedirectURI, rejectionMessage(err, "Google authentication failed")), http.StatusFound)
			return
		}

		s.completeLogin(w, r, outcome, false)
	}
}

// LineWorksRedirectHandler starts the LINE WORKS leg: extracts the domain
// from the supplied address, resolves the organization's provider
// configuration, and bounces the browser to the authorize endpoint.
func (s *Server) LineWorksRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURI := r.URL.Query().Get("redirect_uri")
		address := r.URL.Query().Get("address")

		if address == "" {
			http.Error(w, "Missing address parameter", http.StatusBadRequest)
			return
		}

		authorizeURL, err := s.flows.StartLineWorks(r.Context(), redirectURI, address)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrInvalidRedirectURI):
				http.Error(w, "Invalid or missing redirect_uri", http.StatusBadRequest)
			case errors.Is(err, errors.ErrProviderNotConfigured):
				domain := flow.DomainFromAddress(address)
				message := fmt.Sprintf("LINE WORKS login is not configured for %q", domain)
				http.Redirect(w, r, s.loginErrorURL(redirectURI, message), http.StatusFound)
			case identity.IsRejection(err):
				http.Redirect(w, r, s.loginErrorURL(redirectURI, rejectionMessage(err, "LINE WORKS login failed")), http.StatusFound)
			default:
				http.Error(w, "identity backend unavailable", http.StatusBadGateway)
			}
			return
		}

		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// LineWorksCallbackHandler finishes the LINE WORKS leg. On success the
// session also rides a parent-domain cookie: the LINE WORKS in-app browser
// overwrites URL fragments, so the cookie is the reliable transport there.
func (s *Server) LineWorksCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errParam := query.Get("error"); errParam != "" {
			http.Error(w, "LINE WORKS OAuth error: "+errParam, http.StatusBadRequest)
			return
		}

		code, state := query.Get("code"), query.Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		payload, err := s.flows.VerifyState(state)
		if err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		outcome, err := s.flows.CallbackLineWorks(r.Context(), code, state)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidState) {
				http.Error(w, "Invalid state parameter", http.StatusBadRequest)
				return
			}
			http.Redirect(w, r, s.loginErrorURL(payload.RedirectURI, rejectionMessage(err, "LINE WORKS login failed")), http.StatusFound)
			return
		}

		s.completeLogin(w, r, outcome, true)
	}
}

// completeLogin issues the final redirect carrying the session fragment. The
// join branch lands on the broker's own membership-request page instead of
// the caller's redirect target.
func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, outcome *flow.Outcome, setCookie bool) {
	if outcome.JoinOrg != "" {
		destination := s.handoff.JoinDestination(s.config.GetBrokerOrigin(), outcome.JoinOrg, outcome.Session)
		http.Redirect(w, r, destination, http.StatusFound)
		return
	}

	destination, err := s.handoff.Destination(outcome.RedirectURI, outcome.Session)
	if err != nil {
		log.Error().Err(err).Msg("building handoff destination")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if setCookie {
		http.SetCookie(w, s.handoff.Cookie(outcome.RedirectURI, outcome.Session))
	}
	http.Redirect(w, r, destination, http.StatusFound)
}
