package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/api/handlers"
	"github.com/video-stream/transcript-studio/internal/api/middleware"
	"github.com/video-stream/transcript-studio/internal/auth"
	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/db"
	"github.com/video-stream/transcript-studio/internal/job"
	"github.com/video-stream/transcript-studio/internal/pipeline"
	"github.com/video-stream/transcript-studio/internal/storage"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Config   *config.Config
	DB       *db.Database
	JWT      *auth.JWTService
	Queue    *job.JobQueue
	Store    *storage.Store
	Pipeline *pipeline.Service
	Engines  handlers.EngineCatalog
	Logger   *zap.Logger
}

// Router is the HTTP API. Close stops the rate limiters.
type Router struct {
	*chi.Mux
	limiters []*middleware.RateLimiter
}

func (rt *Router) Close() {
	for _, l := range rt.limiters {
		l.Close()
	}
}

func NewRouter(d Deps) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.Config.CORSOrigins))

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	transcribeLimiter := middleware.NewRateLimiter(30, time.Minute)
	jsonLimit := middleware.MaxBodySize(middleware.DefaultJSONBodyLimit)

	// Handlers
	healthHandler := handlers.NewHealthHandler(d.Engines)
	authHandler := handlers.NewAuthHandler(d.DB, d.JWT)
	transcribeHandler := handlers.NewTranscribeHandler(d.Queue, d.Store, d.Engines, d.Config, d.Logger)
	transcriptHandler := handlers.NewTranscriptHandler(d.Pipeline)
	jobHandler := handlers.NewJobHandler(d.Queue)
	filesHandler := handlers.NewFilesHandler(d.Store)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/health", healthHandler.Health)
		r.With(loginLimiter.Handler, jsonLimit).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.JWT))

			r.Get("/auth/me", authHandler.Me)
			r.Get("/engines", healthHandler.Engines)

			// Transcription
			r.With(transcribeLimiter.Handler).Post("/transcribe/upload", transcribeHandler.Upload)
			r.With(transcribeLimiter.Handler, jsonLimit).Post("/transcribe/youtube", transcribeHandler.YouTube)
			r.Post("/convert", transcriptHandler.Convert)
			r.With(jsonLimit).Post("/edit", transcriptHandler.Edit)

			// Jobs
			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Delete("/jobs/{id}", jobHandler.CancelJob)
			r.Post("/jobs/{id}/retry", jobHandler.RetryJob)
			r.Get("/jobs/{id}/files", transcriptHandler.Files)
		})
	})

	// Rendered files
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.JWT))
		r.Get("/files/{jobID}/{name}", filesHandler.Download)
		r.Get("/view/{jobID}/{name}", filesHandler.View)
	})

	return &Router{Mux: r, limiters: []*middleware.RateLimiter{loginLimiter, transcribeLimiter}}
}
