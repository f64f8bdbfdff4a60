package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
)

type HandlerOptions struct {
	// Ready reports whether backing stores answer; nil means always ready.
	Ready          func(ctx context.Context) error
	Metrics        http.Handler
	AllowedOrigins []string
}

// Handler is the HTTP adapter entrypoint for governance use-cases.
type Handler struct {
	service *application.Service
	opts    HandlerOptions
}

func NewHandler(service *application.Service, opts HandlerOptions) *Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{service: service, opts: opts}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     handler.opts.AllowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id", "X-Client-Info", "Apikey"},
		ExposedHeaders:     []string{"X-Request-Id"},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Use(preflightMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if handler.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.jobsMiddleware)
			r.Post("/analyze-behavior", handler.analyzeBehavior)
			r.Post("/analyze-behavior/batch", handler.analyzeBehaviorBatch)
			r.Post("/rotate-committee", handler.rotateCommittee)
			r.Post("/process-expulsion-votes", handler.processExpulsionVotes)
			r.Post("/behavior-events", handler.recordBehaviorEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/appeals", handler.submitAppeal)
			r.Get("/appeals", handler.listAppeals)
			r.Get("/penalties/{penalty_id}/open-appeal", handler.hasOpenAppeal)

			r.Route("/admin", func(r chi.Router) {
				r.Use(handler.adminMiddleware)
				r.Patch("/appeals/{appeal_id}", handler.updateAppeal)
				r.Post("/expulsion-reviews", handler.openExpulsionReview)
				r.Get("/risk-snapshots/{professional_id}", handler.getRiskSnapshot)
				r.Get("/risk-snapshots/{professional_id}/history", handler.getRiskHistory)
				r.Get("/chapters/{chapter_id}/committee", handler.getCommittee)
			})
		})
	})

	return r
}
