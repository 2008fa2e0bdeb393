// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects stores, services, handlers,
// middleware, and routes, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it testable: the tests build a
// Server against a temporary database and drive Handler() with httptest,
// without ever opening a port.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config.Load() → server.Config
//	server.New():
//	  sqlite.DB      → Users/Journals/Plans → services → handlers
//	  session.Store  → session.Manager → session middleware + handlers
//	  metrics.New()  → middleware + handlers
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/config"
	"github.com/sakif/travel-journal/internal/form"
	"github.com/sakif/travel-journal/internal/handler"
	"github.com/sakif/travel-journal/internal/metrics"
	"github.com/sakif/travel-journal/internal/middleware"
	sqliteRepo "github.com/sakif/travel-journal/internal/repository/sqlite"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
	"github.com/sakif/travel-journal/web"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to
// add options without changing function signatures.
type Config struct {
	Port   int
	DBPath string

	SecretKey      string
	SessionBackend string // config.BackendMemory or config.BackendRedis
	SessionTTL     time.Duration
	CookieSecure   bool
	TrustProxy     bool // honor X-Forwarded-For / X-Real-IP

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	// GitHubEndpoint and GitHubUserURL default to github.com when zero.
	// Set them for GitHub Enterprise.
	GitHubEndpoint oauth2.Endpoint
	GitHubUserURL  string

	LoginRatePerMin int
	MaxUploadBytes  int64
	BcryptCost      int // 0 means auth.DefaultCost
}

// FromAppConfig converts the loaded environment configuration.
func FromAppConfig(c *config.Config) Config {
	return Config{
		Port:               c.Port,
		DBPath:             c.DBPath,
		SecretKey:          c.SecretKey,
		SessionBackend:     c.SessionBackend,
		SessionTTL:         c.SessionTTL,
		CookieSecure:       c.CookieSecure,
		TrustProxy:         c.TrustProxy,
		RedisAddr:          c.RedisAddr,
		RedisPassword:      c.RedisPassword,
		RedisDB:            c.RedisDB,
		GitHubClientID:     c.GitHubClientID,
		GitHubClientSecret: c.GitHubClientSecret,
		GitHubCallbackURL:  c.GitHubCallbackURL,
		LoginRatePerMin:    c.LoginRatePerMin,
		MaxUploadBytes:     c.MaxUploadMB << 20,
	}
}

func (c Config) githubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection, the Redis client (when that session
// backend is used) and the background sweepers. Close releases all of them;
// Start calls it during graceful shutdown.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	redis   *redis.Client // nil with the memory backend
	metrics *metrics.Metrics

	// stop cancels the background goroutines (session sweeper, limiter cleanup).
	stop context.CancelFunc
}

// New creates a new Server with the given config.
//
// ctx bounds startup work only (opening the database, running migrations,
// pinging Redis); the server's background goroutines live until Close.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	bg, stop := context.WithCancel(context.Background())
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
		stop:    stop,
	}

	store, err := s.sessionStore(ctx, bg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	if err := s.setupRoutes(bg, store); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// sessionStore builds the configured session backend.
func (s *Server) sessionStore(ctx, bg context.Context) (session.Store, error) {
	switch s.config.SessionBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.config.RedisAddr,
			Password: s.config.RedisPassword,
			DB:       s.config.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", s.config.RedisAddr, err)
		}
		s.redis = client
		return session.NewRedisStore(client), nil

	case config.BackendMemory, "":
		store := session.NewMemoryStore()
		store.StartSweeper(bg, 5*time.Minute)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", s.config.SessionBackend)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET       /static/*                  → embedded CSS
// GET       /healthz                   → database (and redis) ping
// GET       /metrics                   → Prometheus
// GET/POST  /register, /login          → forms (POSTs rate limited per IP)
// GET       /logout
// GET       /                          → public feed
// GET       /serve_image/{id}          → journal image
// GET       /premium, /cart            → plan demo
// POST      /add_to_cart
// GET/POST  /journal                   → guarded
// GET       /myfeed                    → guarded
// GET/POST  /account                   → guarded
// GET       /user/profile_picture      → guarded
// POST      /change_password           → guarded
// GET       /auth/github/login|callback → only when GitHub is configured
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: only with TrustProxy. It rewrites RemoteAddr from proxy headers,
//    and the rate limiter keys on RemoteAddr, so a client talking to us
//    directly must not be able to pick its own address.
// 3. Logger, Metrics: record the final status of every request
// 4. Recoverer: catches panics and returns 500 instead of crashing (inside
//    Logger and Metrics, so that 500 is recorded too)
// 5. Sessions: loads the session into the request context
func (s *Server) setupRoutes(bg context.Context, store session.Store) error {
	tokens, err := auth.NewTokenService(s.config.SecretKey)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := session.NewManager(store, tokens, session.Options{
		TTL:    s.config.SessionTTL,
		Secure: s.config.CookieSecure,
	}, s.logger)

	renderer, err := handler.NewRenderer(web.Templates())
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	passwords := auth.NewPasswordService()
	if s.config.BcryptCost != 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	}

	var github *auth.GitHubProvider
	if s.config.githubEnabled() {
		if s.config.GitHubEndpoint.TokenURL != "" {
			userURL := s.config.GitHubUserURL
			if userURL == "" {
				userURL = auth.GitHubUserURL
			}
			github = auth.NewGitHubProviderWithEndpoint(
				s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL,
				s.config.GitHubEndpoint, userURL,
			)
		} else {
			github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		}
	}

	// === SERVICES ===
	// Services only see the repository interfaces, never *sql.DB.
	users := s.db.Users()
	authService := service.NewAuthService(users, passwords, s.logger)
	journalService := service.NewJournalService(s.db.Journals(), s.logger)
	accountService := service.NewAccountService(users, s.logger)
	cartService := service.NewCartService(s.db.Plans(), s.logger)

	// === HANDLERS ===
	view := handler.NewView(renderer, sessions, github != nil, s.logger)
	validator := form.NewValidator()
	authHandler := handler.NewAuthHandler(view, authService, validator, github, s.metrics)
	journalHandler := handler.NewJournalHandler(view, journalService, s.metrics, s.config.MaxUploadBytes)
	accountHandler := handler.NewAccountHandler(view, accountService, authService, validator, s.config.MaxUploadBytes)
	cartHandler := handler.NewCartHandler(view, cartService)

	limiter := middleware.NewRateLimiter(s.config.LoginRatePerMin, s.metrics, s.logger)
	limiter.StartCleanup(bg, time.Minute)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	// === Infrastructure (no session needed) ===
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	// === Pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", journalHandler.HandleIndex)
		r.Get("/serve_image/{id}", journalHandler.HandleServeImage)

		r.Get("/register", authHandler.ShowRegister)
		r.With(limiter.Handler).Post("/register", authHandler.HandleRegister)
		r.Get("/login", authHandler.ShowLogin)
		r.With(limiter.Handler).Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)

		r.Get("/premium", cartHandler.HandlePremium)
		r.Get("/cart", cartHandler.HandleCart)
		r.Post("/add_to_cart", cartHandler.HandleAddToCart)

		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}

		// Everything below needs a logged-in user.
		r.Group(func(r chi.Router) {
			r.Use(session.RequireLogin)

			r.Get("/journal", journalHandler.ShowJournal)
			r.Post("/journal", journalHandler.HandleJournal)
			r.Get("/myfeed", journalHandler.HandleMyFeed)
			r.Get("/account", accountHandler.ShowAccount)
			r.Post("/account", accountHandler.HandleAccount)
			r.Get("/user/profile_picture", accountHandler.HandleProfilePicture)
			r.Post("/change_password", accountHandler.HandleChangePassword)
		})
	})

	return nil
}

// handleHealth reports whether the server can reach its stores.
//
// HTTP: GET /healthz → 200 "ok" or 503 with the failing dependency
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("health check: database", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("database unavailable\n"))
		return
	}
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			s.logger.Error("health check: redis", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("redis unavailable\n"))
			return
		}
	}
	w.Write([]byte("ok\n"))
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the background goroutines and releases the stores.
func (s *Server) Close() error {
	s.stop()

	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the stores (flushes the SQLite WAL, releases the file lock)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing server resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads can be up to MaxUploadBytes, so reads get more room than headers.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("sessions", s.config.SessionBackend),
			slog.Bool("github", s.config.githubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
