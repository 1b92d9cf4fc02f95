package server

import (
	"net/http"
	"net/url"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/session"
)

// LoginInfoHandler is the terminal of the error-redirect chain. The broker
// renders no HTML; front-ends read the error and redirect_uri params and
// present their own login form.
func (s *Server) LoginInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"error":        r.URL.Query().Get("error"),
			"redirect_uri": r.URL.Query().Get("redirect_uri"),
		})
	}
}

// PasswordLoginHandler processes the login form submission and hands the
// session back to the redirect target in a URL fragment.
func (s *Server) PasswordLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		organizationID := r.FormValue("organization_id")
		username := r.FormValue("username")
		password := r.FormValue("password")
		redirectURI := r.FormValue("redirect_uri")

		if username == "" || password == "" {
			http.Redirect(w, r, s.loginErrorURL(redirectURI, "Username and password are required"), http.StatusFound)
			return
		}

		outcome, err := s.flows.Password(r.Context(), organizationID, username, password, redirectURI)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrInvalidRedirectURI):
				http.Error(w, "Invalid redirect_uri", http.StatusBadRequest)
			case identity.IsRejection(err):
				http.Redirect(w, r, s.loginErrorURL(redirectURI, rejectionMessage(err, "Login failed")), http.StatusFound)
			default:
				http.Error(w, "identity backend unavailable", http.StatusBadGateway)
			}
			return
		}

		s.completeLogin(w, r, outcome, false)
	}
}

// LogoutHandler clears the session cookies and bounces back to the caller's
// login page. The admin cookie is host-scoped, the auth cookie lives on the
// parent domain shared with the front-ends.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectTo := r.URL.Query().Get("redirect_uri")
		if redirectTo == "" {
			redirectTo = RouteLogin
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "sso_admin_token",
			Path:     "/admin",
			MaxAge:   -1,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
		http.SetCookie(w, &http.Cookie{
			Name:     s.config.GetAuthCookieName(),
			Path:     "/",
			Domain:   s.logoutCookieDomain(redirectTo),
			MaxAge:   -1,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, redirectTo, http.StatusFound)
	}
}

// logoutCookieDomain picks the parent domain the auth cookie was set on:
// the redirect target's if it is absolute, the broker's own otherwise.
func (s *Server) logoutCookieDomain(redirectTo string) string {
	if target, err := url.Parse(redirectTo); err == nil && target.Hostname() != "" {
		return session.ParentDomain(target.Hostname())
	}
	broker, err := url.Parse(s.config.GetBrokerOrigin())
	if err != nil {
		return ""
	}
	return session.ParentDomain(broker.Hostname())
}
