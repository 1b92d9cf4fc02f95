// Package server is the browser-facing HTTP surface of the auth broker:
// provider redirect/callback endpoints, the password login form target, the
// WOFF in-app login APIs, and the authenticated JSON APIs that proxy rich
// menu and SSO configuration operations to their upstreams.
package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mtamaramu/authbroker/flow"
	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/config"
	"github.com/mtamaramu/authbroker/lineworks"
	"github.com/mtamaramu/authbroker/session"
)

// BotClientFactory builds a bot platform client for one request's
// credentials. Injectable so tests can point it at a fake platform.
type BotClientFactory func(creds *identity.BotCredentials) *lineworks.Client

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	backend identity.Client
	flows   *flow.Controller
	handoff *session.Handoff

	newBotClient BotClientFactory
}

type Option func(*Server)

// WithFlowController replaces the default flow controller (for tests).
func WithFlowController(controller *flow.Controller) Option {
	return func(s *Server) {
		s.flows = controller
	}
}

// WithBotClientFactory replaces the bot platform client factory (for tests).
func WithBotClientFactory(factory BotClientFactory) Option {
	return func(s *Server) {
		s.newBotClient = factory
	}
}

func New(cfg config.Config, backend identity.Client, options ...Option) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		backend: backend,
		flows:   flow.NewController(cfg, backend),
		handoff: session.NewHandoff(cfg),
		newBotClient: func(creds *identity.BotCredentials) *lineworks.Client {
			return lineworks.NewClient(creds)
		},
	}
	s.env = cfg.GetEnv()

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
