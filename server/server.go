package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chobi-social/chobi-server/auth"
	"github.com/chobi-social/chobi-server/internal/config"
	"github.com/chobi-social/chobi-server/posts"
	"github.com/chobi-social/chobi-server/users"
)

// Server is the HTTP transport over the session service and the stores.
type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.SessionService
	users  users.UserRepo
	posts  posts.PostRepo
	log    zerolog.Logger

	authLimiter *ipRateLimiter
	metrics     *httpMetrics
}

func New(cfg config.Config, sessionService *auth.SessionService, userRepo users.UserRepo, postRepo posts.PostRepo, log zerolog.Logger) (*Server, error) {
	if sessionService == nil {
		return nil, fmt.Errorf("[Server New] session service is required")
	}
	if userRepo == nil || postRepo == nil {
		return nil, fmt.Errorf("[Server New] repos are required")
	}

	s := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		auth:        sessionService,
		users:       userRepo,
		posts:       postRepo,
		log:         log,
		authLimiter: newIPRateLimiter(),
		metrics:     newHTTPMetrics(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
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
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	color, ok := methodColors[method]
	if !ok {
		color = colorGray
	}
	displayMethod := color + fmt.Sprintf(" %-7s", method) + colorReset
	s.log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
