package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskit/internal/auth"
	"taskit/internal/blob"
	"taskit/internal/config"
	"taskit/internal/handlers"
	"taskit/internal/logger"
	"taskit/internal/middleware"
	"taskit/internal/repository/inmemory"
	"taskit/internal/repository/postgres"
	"taskit/internal/service"
	"taskit/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config        *config.Config
	server        *http.Server
	router        *chi.Mux
	tasks         service.TaskRepository
	notifications service.NotificationRepository
	auth          *auth.Service
	blobs         *blob.Store
	scheduler     *worker.Scheduler
	shutdowns     []func() // run in reverse order
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init builds the dependency graph. On error everything opened so far is
// released again.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"repository", a.initRepository},
		{"auth", a.initAuth},
		{"blob store", a.initBlobs},
		{"scheduler", a.initScheduler},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	a.initRouter()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "taskit"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.Options{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
			ConnectAttempts: a.config.Database.ConnectAttempts,
		})
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: closing database pool")
			storage.Close()
		})
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		a.tasks = postgres.NewTaskStorage(storage)
		a.notifications = postgres.NewNotificationStorage(storage)
	default:
		a.tasks = inmemory.NewTaskStorage()
		a.notifications = inmemory.NewNotificationStorage()
	}
	logger.Info("App: repository ready", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initAuth(context.Context) error {
	db, err := auth.OpenDB(a.config.Auth.DSN)
	if err != nil {
		return err
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := auth.CloseDB(db); err != nil {
			logger.Warn("App: closing auth db", zap.Error(err))
		}
	})
	a.auth = auth.NewService(db, auth.WithSessionTTL(a.config.Auth.SessionTTL))
	return nil
}

func (a *App) initBlobs(context.Context) error {
	store, err := blob.New(afero.NewOsFs(), a.config.Blob.RootDir, a.config.Blob.BaseURL, a.config.Blob.MaxBytes)
	if err != nil {
		return err
	}
	a.blobs = store
	return nil
}

func (a *App) initScheduler(context.Context) error {
	a.scheduler = worker.NewScheduler(a.config.Location())
	return a.scheduler.Add("session-sweep", a.config.Auth.SweepSchedule, worker.NewSessionSweeper(a.auth, time.Minute))
}

func (a *App) initRouter() {
	loc := a.config.Location()
	taskService := service.NewTaskService(a.tasks, a.notifications)
	notificationService := service.NewNotificationService(a.tasks, a.notifications)
	profileService := service.NewProfileService(a.auth, a.blobs)

	taskHandler := handlers.NewTaskHandler(taskService, loc)
	notificationHandler := handlers.NewNotificationHandler(notificationService, loc)
	profileHandler := handlers.NewProfileHandler(profileService, a.blobs.MaxBytes())
	authHandler := handlers.NewAuthHandler(a.auth)
	blobHandler := handlers.NewBlobHandler(a.blobs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", handlers.TimezoneHeader, "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Get("/health", taskHandler.HealthCheck)
	r.Get("/blobs/*", blobHandler.ServeBlob)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/signout", authHandler.SignOut)
		r.Post("/refresh", authHandler.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(a.auth))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.PostTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)
				r.Put("/", taskHandler.UpdateTaskByID)
				r.Delete("/", taskHandler.DeleteTaskByID)
				r.Post("/toggle", taskHandler.ToggleTask)
			})
		})

		r.Get("/dashboard", taskHandler.Dashboard)
		r.Get("/calendar", taskHandler.Calendar)

		r.Get("/notifications", notificationHandler.ListNotifications)
		r.Post("/notifications/{id}/read", notificationHandler.MarkRead)

		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.UpdateProfile)
		r.Post("/profile/avatar", profileHandler.UploadAvatar)
	})

	a.router = r
}

// Handler exposes the instrumented router.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP and runs scheduled jobs until ctx is cancelled, then shuts
// both down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	a.scheduler.Start()

	g.Go(func() error {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
