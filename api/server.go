package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/filestore"
	"github.com/rpupo63/portfolio-backend/ratelimit"
	"github.com/rpupo63/portfolio-backend/services"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

// NewServer builds the HTTP server. Optional collaborators are passed as
// options; a missing one disables only the routes that need it.
func NewServer(database database.Database, c map[string]string, opts ...Option) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()

	opts = append([]Option{withConfig(c), withStartupTime(startupTime)}, opts...)
	router := newRouter(database, opts...)

	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return Server{server, startupTime}, nil
}

// Option configures an optional collaborator of the router
type Option func(*router)

type router struct {
	config         map[string]string
	startupTime    time.Time
	authenticator  *auth.Authenticator
	contactLimiter limiter
	loginLimiter   limiter
	fileStore      uploadPresigner
	notifier       messageNotifier
}

func withConfig(c map[string]string) Option {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) Option {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func WithAuthenticator(a *auth.Authenticator) Option {
	return func(r *router) {
		r.authenticator = a
	}
}

// WithRateLimiters limits the contact form and the login endpoint
func WithRateLimiters(contact, login *ratelimit.Limiter) Option {
	return func(r *router) {
		if contact != nil {
			r.contactLimiter = contact
		}
		if login != nil {
			r.loginLimiter = login
		}
	}
}

func WithFileStore(store *filestore.Store) Option {
	return func(r *router) {
		if store != nil {
			r.fileStore = store
		}
	}
}

func WithNotifier(n *services.Notifier) Option {
	return func(r *router) {
		if n != nil {
			r.notifier = n
		}
	}
}

func newRouter(database database.Database, opts ...Option) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(realIP(parseTrustedProxies(config.GetStringSlice(router.config, "TRUSTED_PROXIES"))))
	chiRouter.Use(recordMetrics)

	acceptedOrigins := config.GetStringSlice(router.config, "ACCEPTED_ORIGINS")
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   acceptedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := initializeHandlers(database, router)

	var verifier tokenVerifier
	if router.authenticator != nil {
		verifier = router.authenticator
	}
	authMiddleware := newAuthMiddleware(verifier)

	setupRoutes(chiRouter, handlers, authMiddleware, router)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
