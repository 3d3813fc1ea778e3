package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"scms/internal/api/respond"
	"scms/internal/api/v1/handler"
	"scms/internal/auth"
	"scms/internal/config"
	"scms/internal/database"
	"scms/internal/middleware"
	"scms/internal/pubsub"
	"scms/internal/repository"
	"scms/internal/secrets"
	"scms/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	_ "scms/docs"
)

// Deps are the collaborators NewHandler wires into the HTTP surface.
type Deps struct {
	Students    repository.StudentRepository
	Courses     repository.CourseRepository
	Hasher      auth.PasswordHasher
	Tokens      service.TokenCodec
	Events      pubsub.Emitter
	CORSOrigins []string
	Logger      zerolog.Logger
}

// New builds the storage, secret source and event publisher selected by cfg
// and returns the HTTP handler. cleanup releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Str("storage", cfg.Storage).Msg("Router initializing")

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("Cleanup failed")
			}
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. Storage
	var (
		students repository.StudentRepository
		courses  repository.CourseRepository
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := database.Open(ctx, cfg, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		if cfg.RunMigrations {
			if err := database.Migrate(ctx, db); err != nil {
				return fail(err)
			}
			logger.Info().Msg("Database migrations applied")
		}
		students = repository.NewStudentRepo(db)
		courses = repository.NewCourseRepo(db)
	case config.StorageMemory:
		logger.Warn().Msg("Using in-memory storage; data is lost on restart")
		mem := repository.NewMemoryStore()
		students, courses = mem, mem
	default:
		return fail(fmt.Errorf("unsupported storage %q", cfg.Storage))
	}

	// 2. Signing secret source, resolved on every token operation
	var source secrets.Source
	switch cfg.SecretSource {
	case config.SecretSourceSecretManager:
		sm, err := secrets.NewSecretManagerSource(ctx, cfg.GCPProjectID)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, sm.Close)
		source = sm
	default:
		source = secrets.NewEnvSource()
	}
	resolver := secrets.NewResolver(source)
	if _, err := resolver.Resolve(ctx); errors.Is(err, secrets.ErrNotConfigured) {
		// Not fatal: token operations fail with 500 until a secret is provided.
		logger.Warn().Msg("JWT_SECRET is not configured")
	}

	// 3. Domain events
	var events pubsub.Emitter = pubsub.NoopEmitter{}
	if cfg.PubSubEventsTopic != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID, cfg.PubSubEventsTopic)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		events = pubsub.NewPublisherEmitter(pub, logger)
		logger.Info().Str("topic", cfg.PubSubEventsTopic).Msg("Publishing domain events")
	}

	h := NewHandler(Deps{
		Students:    students,
		Courses:     courses,
		Hasher:      auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:      auth.NewTokenCodec(resolver.Resolve),
		Events:      events,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	return h, cleanup, nil
}

// NewHandler mounts every route on a ServeMux and wraps it with middleware.
func NewHandler(d Deps) http.Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())

	authSvc := service.NewAuthService(d.Students, d.Hasher, d.Tokens, d.Events)
	courseSvc := service.NewCourseService(d.Courses, d.Events)

	authHandler := handler.NewAuthHandler(authSvc, validate)
	courseHandler := handler.NewCourseHandler(courseSvc, validate)

	authMiddleware := middleware.AuthMiddleware(authSvc)

	mux := http.NewServeMux()
	authHandler.RegisterRoutes(mux)
	courseHandler.RegisterRoutes(mux, authMiddleware)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Server is running successfully"))
	})
	mux.HandleFunc("GET /api", func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, r, http.StatusOK, "Hello from API")
	})

	// Swagger documentation
	mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, r, http.StatusNotFound, "Not Found - "+r.URL.Path)
	})

	return withMiddleware(mux, d)
}

// withMiddleware wraps h, outermost first: request logging, CORS, panic
// recovery.
func withMiddleware(h http.Handler, d Deps) http.Handler {
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	return middleware.LoggerMiddleware(d.Logger)(c.Handler(middleware.RecoverMiddleware(h)))
}
