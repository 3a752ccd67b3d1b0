package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/db"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/fixtures"
	"github.com/jobportal/apiserver/internal/guard"
	"github.com/jobportal/apiserver/internal/handlers"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/internal/store/memory"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        logging.Logger
	closers    []func() error
	stopNotify context.CancelFunc
}

// repositories is the storage backend chosen by config.
type repositories struct {
	accounts     services.AccountRepository
	profiles     services.ProfileRepository
	jobs         services.JobPostingRepository
	applications services.ApplicationRepository
}

// New constructs a Server with every dependency selected by cfg.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{log: log}
	srv, err := s.build(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) build(ctx context.Context, cfg config.Config) (*Server, error) {
	log := s.log
	hasher := PasswordHasher(cfg.Password)

	repos, err := s.openRepositories(ctx, cfg, hasher)
	if err != nil {
		return nil, err
	}

	registry, err := s.openRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	secret := cfg.Session.Secret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		log.Warn(ctx, "JWT_SECRET is not set; using a random secret, sessions will not survive restarts")
	}
	sessions, err := auth.NewSessionManager(auth.SessionOptions{
		Secret:     secret,
		TTL:        cfg.Session.MaxAge,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.IsProduction(),
	}, registry, log)
	if err != nil {
		return nil, err
	}

	var resumes services.ResumeStore
	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if objects != nil {
		resumes = objects
		log.Info(ctx, "resume uploads enabled", "backend", cfg.StorageBackend, "bucket", objects.Bucket())
	}

	bus, err := mq.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, bus.Close)
	if cfg.MQBackend == "memory" {
		s.startNotifier(bus)
	}

	accountService := services.NewAccountService(repos.accounts, hasher)
	resolver := services.NewProfileResolver(repos.profiles, cfg.ProfileTimeout)
	jobService := services.NewJobService(repos.jobs, repos.profiles)
	applicationService := services.NewApplicationService(
		repos.applications, jobService, repos.profiles, resumes, events.NewPublisher(bus), log,
	)

	authHandler := handlers.NewAuthHandler(auth.NewVerifier(repos.accounts, hasher, log), sessions, accountService, log)
	profileHandler := handlers.NewProfileHandler(resolver, log)
	jobHandler := handlers.NewJobHandler(jobService, applicationService, log)
	pageHandler := handlers.NewPageHandler(sessions, accountService, profileHandler, jobService, applicationService, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}).Handler,
		sessions.Middleware,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
		r.Route("/profile", func(r chi.Router) {
			handlers.ProfileRouter(r, profileHandler)
		})
		r.Route("/jobs", func(r chi.Router) {
			handlers.JobRouter(r, jobHandler)
		})
		r.Route("/applications", func(r chi.Router) {
			handlers.ApplicationRouter(r, jobHandler)
		})
	})
	router.Group(func(r chi.Router) {
		r.Use(guard.Default().Middleware(sessions.CookieName()))
		handlers.PageRouter(r, pageHandler)
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
	return s, nil
}

func (s *Server) openRepositories(ctx context.Context, cfg config.Config, hasher auth.PasswordHasher) (repositories, error) {
	switch cfg.StoreBackend {
	case "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return repositories{}, fmt.Errorf("open database: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		return repositories{
			accounts:     store.NewAccountRepository(conn),
			profiles:     store.NewProfileRepository(conn),
			jobs:         store.NewJobPostingRepository(conn),
			applications: store.NewApplicationRepository(conn),
		}, nil
	default:
		mem := memory.New()
		ds, err := fixtures.Load()
		if err != nil {
			return repositories{}, err
		}
		err = fixtures.Seed(ctx, ds, fixtures.Target{
			Accounts:     mem.Accounts(),
			JobPostings:  mem.JobPostings(),
			Applications: mem.Applications(),
		}, hasher)
		if err != nil {
			return repositories{}, err
		}
		s.log.Info(ctx, "using in-memory store", "accounts", len(ds.Accounts), "job_postings", len(ds.JobPostings))
		return repositories{
			accounts:     mem.Accounts(),
			profiles:     mem.Profiles(),
			jobs:         mem.JobPostings(),
			applications: mem.Applications(),
		}, nil
	}
}

func (s *Server) openRegistry(ctx context.Context, cfg config.Config) (auth.SessionRegistry, error) {
	if cfg.Session.Registry != "redis" {
		return auth.NewMemoryRegistry(), nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	return auth.NewRedisRegistry(client), nil
}

// startNotifier consumes application events in-process. With an external
// broker the notify command does this instead.
func (s *Server) startNotifier(bus *mq.MQ) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopNotify = cancel
	notifier := events.NewNotifier(s.log)
	go func() {
		err := events.SubscribeApplications(ctx, bus, s.log, notifier.Handle)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mq.ErrClosed) {
			s.log.Error(ctx, "notifier stopped", "error", err)
		}
	}()
}

// PasswordHasher builds the argon2id hasher from config, falling back to
// the defaults for unset parameters.
func PasswordHasher(cfg config.PasswordConfig) auth.Argon2Hasher {
	h := auth.DefaultArgon2Hasher()
	if cfg.Time > 0 {
		h.Time = uint32(cfg.Time)
	}
	if cfg.Memory > 0 {
		h.Memory = uint32(cfg.Memory)
	}
	if cfg.Threads > 0 && cfg.Threads <= 255 {
		h.Threads = uint8(cfg.Threads)
	}
	return h
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.stopNotify != nil {
		s.stopNotify()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	s.closers = nil
}
