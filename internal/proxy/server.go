// Package proxy exposes the tagging operations over HTTP. Every /bc route
// takes the caller's BotConversa API key in the request body and builds a
// backend for it.
package proxy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/bcproxy/internal/bulk"
	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/internal/tagging"
)

// maxBodyBytes bounds request bodies; bulk phone lists are the largest.
const maxBodyBytes = 8 << 20

// Option configures a Server.
type Option func(*Server)

// WithBulkDelay sets the pause between phones in bulk runs.
func WithBulkDelay(d time.Duration) Option {
	return func(s *Server) {
		s.bulkDelay = max(d, 0)
	}
}

// WithAllowedOrigins sets the CORS origins. Default: all.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server holds the handlers' dependencies.
type Server struct {
	mode      model.Mode
	backends  tagging.BackendFactory
	bulkDelay time.Duration
	origins   []string
}

// NewServer creates a Server answering in mode with backends built by factory.
func NewServer(mode model.Mode, factory tagging.BackendFactory, opts ...Option) *Server {
	s := &Server{
		mode:      mode,
		backends:  factory,
		bulkDelay: bulk.DefaultDelay,
		origins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/bc", func(r chi.Router) {
		r.Post("/test-key", s.handleTestKey)
		r.Post("/find-tag-by-name", s.handleFindTag)
		r.Post("/create-or-get-tag", s.handleCreateOrGetTag)
		r.Post("/upsert-subscriber", s.handleUpsertSubscriber)
		r.Post("/attach-tag", s.handleAttachTag)
		r.Post("/list-subscriber-tags", s.handleListSubscriberTags)
		r.Post("/bulk-attach-tag", s.handleBulkAttach)
	})

	return r
}
