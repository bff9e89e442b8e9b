package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
	"github.com/afumchris/edu-flashcard-app/internal/extract"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
)

// Options are the HTTP-facing settings.
type Options struct {
	APIKey         string
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	Version        string
}

// ModelInfo describes the configured language model. Provider is "none"
// and the pointers are nil when no model is set up.
type ModelInfo struct {
	Provider string
	Model    string
	Stats    *extract.LLMStats
	Breaker  *extract.BreakerGenerator
}

// Server is the HTTP API for flashcard generation.
type Server struct {
	router  chi.Router
	orch    *pipeline.Orchestrator
	proc    *pipeline.Processor
	cache   *deckstore.Store
	metrics *metrics.Metrics
	model   ModelInfo
	limiter *ipLimiter
	log     *slog.Logger
	opts    Options
}

// NewServer creates and configures the HTTP server. cache may be nil.
func NewServer(orch *pipeline.Orchestrator, cache *deckstore.Store, m *metrics.Metrics, model ModelInfo, log *slog.Logger, opts Options) *Server {
	if model.Provider == "" {
		model.Provider = "none"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		orch:    orch,
		proc:    orch.Processor(),
		cache:   cache,
		metrics: m,
		model:   model,
		limiter: newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		log:     log.With("component", "api"),
		opts:    opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.With(s.limiter.Middleware).Post("/upload", s.handleUpload)

	r.Route("/api", func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey, s.log))
		}

		r.With(s.limiter.Middleware).Post("/jobs", s.handleSubmitJob)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Get("/jobs/{jobID}/result", s.handleJobResult)
		r.With(s.limiter.Middleware).Post("/structure", s.handleStructure)
		r.Get("/stats/llm", s.handleLLMStats)

		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents/{hash}", s.handleDeleteDocument)
	})

	s.router = r
}

var endpoints = []string{
	"GET /health",
	"GET /metrics",
	"POST /upload",
	"POST /api/jobs",
	"GET /api/jobs/{jobID}",
	"GET /api/jobs/{jobID}/result",
	"POST /api/structure",
	"GET /api/stats/llm",
	"GET /api/documents",
	"DELETE /api/documents/{hash}",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "flashcards",
		"version":   s.opts.Version,
		"llm":       s.model.Provider,
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"llm":     s.model.Provider,
		"version": s.opts.Version,
	})
}
