package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agendametrics/apiserver/config"
	"github.com/agendametrics/apiserver/internal/auth"
	"github.com/agendametrics/apiserver/internal/db"
	"github.com/agendametrics/apiserver/internal/handlers"
	"github.com/agendametrics/apiserver/internal/mq"
	"github.com/agendametrics/apiserver/internal/services"
	"github.com/agendametrics/apiserver/internal/storage"
	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/internal/store/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server, its router and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	closers    []func() error
}

// New validates cfg and wires every dependency. It refuses to build a server
// without a signing secret.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	s := &Server{logger: logger}
	users, routines, err := s.openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.GoogleClientID == "" {
		logger.WarnContext(ctx, "GOOGLE_CLIENT_ID is not set; google login will reject every token")
	}
	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	var events services.EventPublisher
	backend, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("connect %s: %w", cfg.MQ.Backend, err)
	}
	if backend != nil {
		s.closers = append(s.closers, backend.Close)
		events = mq.NewEventPublisher(backend, cfg.MQ.RoutineChannel)
	}

	var archiver services.Archiver
	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Storage.Backend, err)
	}
	if objects != nil {
		archiver = storage.NewArchiver(objects)
	}

	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)
	authService := services.NewAuthService(users, hasher, tokens, verifier, logger)
	userService := services.NewUserService(users, routines, hasher, archiver, events, logger)
	routineService := services.NewRoutineService(routines, events, logger)

	authMiddleware := handlers.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authService, userService, authMiddleware, logger)
		})
		r.Route("/routines", func(r chi.Router) {
			handlers.RoutineRouter(r, routineService, userService, authMiddleware, logger)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, authMiddleware, logger)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.InfoContext(ctx, "server configured",
		"addr", s.httpServer.Addr,
		"db_driver", cfg.Database.Driver,
		"mq_backend", cfg.MQ.Backend,
		"storage_backend", cfg.Storage.Backend,
	)
	return s, nil
}

func (s *Server) openStore(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (services.UserRepository, services.RoutineRepository, error) {
	if cfg.Driver == config.DriverMemory {
		s.logger.WarnContext(ctx, "using in-memory store; data is lost on restart")
		mem := memstore.New()
		return mem.Users, mem.Routines, nil
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	s.closers = append(s.closers, dbConn.Close)
	return store.NewUserRepository(dbConn), store.NewRoutineRepository(dbConn), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the store and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
