// Package httpapi exposes the service over HTTP: configuration reads and
// writes, tier distribution, review generation, the survey and profile
// forwarders, and the billing endpoints. Handlers translate domain errors
// into the Japanese messages the frontends display.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"reviewrouter/internal/billing"
	"reviewrouter/internal/blobstore"
	"reviewrouter/internal/distribute"
	"reviewrouter/internal/document"
	"reviewrouter/internal/generate"
	"reviewrouter/internal/survey"
)

// Server bundles the handler dependencies.
type Server struct {
	repo      *document.Repository
	engine    *distribute.Engine
	generator *generate.Service
	surveys   *survey.Service
	billing   *billing.Service
	uploads   blobstore.Store
	logger    *zap.Logger
}

// NewServer wires the HTTP surface over the domain services.
func NewServer(
	repo *document.Repository,
	engine *distribute.Engine,
	generator *generate.Service,
	surveys *survey.Service,
	billingSvc *billing.Service,
	uploads blobstore.Store,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		repo:      repo,
		engine:    engine,
		generator: generator,
		surveys:   surveys,
		billing:   billingSvc,
		uploads:   uploads,
		logger:    logger,
	}
}

// Router builds the chi router with CORS and recovery applied to every
// route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, nil)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, msgNotFound, nil)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Get("/upload-check", s.handleUploadCheck)

	r.Get("/config", s.handleGetConfig)
	r.Post("/config", s.handlePostConfig)

	r.Post("/distribute", s.handleDistribute)
	r.Post("/generate", s.handleGenerate)

	r.Post("/survey-submit", s.handleSurveySubmit)
	r.Post("/user-data-submit", s.handleUserDataSubmit)
	r.Post("/user-data-read", s.handleUserDataRead)

	r.Post("/create-checkout", s.handleCreateCheckout)
	r.Post("/stripe-webhook", s.handleStripeWebhook)
	r.Post("/check-subscription", s.handleCheckSubscription)

	return r
}

// corsMiddleware applies the permissive policy the static frontends need
// and short-circuits preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadCheck writes a probe blob into the uploads namespace and
// reads it back, verifying the store end to end.
func (s *Server) handleUploadCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const probeKey = "hello.txt"
	const probeValue = "こんにちは Blobs"

	if err := s.uploads.Set(ctx, probeKey, []byte(probeValue), blobstore.SetOptions{
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "ストレージへの書き込みに失敗しました。", err)
		return
	}
	value, found, err := s.uploads.GetText(ctx, probeKey)
	if err != nil || !found {
		s.writeError(w, http.StatusInternalServerError, "ストレージの読み取りに失敗しました。", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"value": value,
	})
}
