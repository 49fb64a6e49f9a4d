// package server contains the statify backend: routing, middleware and handlers
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options are the backend's collaborators. Config, Exchanger, Signups and Identity are required.
type Options struct {
	Config    *shared.Config
	Exchanger TokenExchanger
	Signups   SignupStore
	Identity  services.IdentityResolver
	Logger    *log.Logger
	Registry  *prometheus.Registry
}

// Server is the statify backend.
type Server struct {
	config  *shared.Config
	router  *BasicRouter
	metrics *Metrics
	logger  *log.Logger
}

// New assembles the backend routes:
//
//	GET    {exchange_path}      token exchange
//	POST   /signup              pending signup submission
//	GET    /admin/signups       admin only
//	DELETE /admin/signups/{id}  admin only
//	GET    /health
//	GET    /metrics
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	cfg := opts.Config
	metrics := NewMetrics(opts.Registry)

	router := NewBasicRouter()
	router.Use(
		RequestID(),
		Logging(shared.WithLogger(logger, "component", "http")),
		metrics.Middleware(),
		Recoverer(),
		CORS(cfg.Server.AllowedOrigins),
	)

	exchangePath := cfg.Server.ExchangePath
	if exchangePath == "" {
		exchangePath = "/spotifyAuth"
	}
	creds := cfg.ClientCredentials()
	router.Handle(http.MethodGet, exchangePath,
		NewExchangeHandler(opts.Exchanger, creds.ClientSecret, metrics, shared.WithLogger(logger, "component", "exchange")))

	signupLogger := shared.WithLogger(logger, "component", "signup")
	router.Handle(http.MethodPost, "/signup",
		NewSignupHandler(opts.Signups, cfg.Server.SignupRatePerMinute, metrics, signupLogger))

	admin := NewAdminHandler(opts.Signups, signupLogger)
	gate := AdminGate(opts.Identity, cfg.Admin.Email, shared.WithLogger(logger, "component", "admin"))
	router.Handle(http.MethodGet, "/admin/signups", gate(http.HandlerFunc(admin.List)))
	router.Handle(http.MethodDelete, "/admin/signups/{id}", gate(http.HandlerFunc(admin.Delete)))

	router.Handle(http.MethodGet, "/health", http.HandlerFunc(health))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	return &Server{config: cfg, router: router, metrics: metrics, logger: logger}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("backend listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down backend")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
