package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/imagesense/internal/application/analysis"
	"github.com/bryanwahyu/imagesense/internal/domain/ai"
	"github.com/bryanwahyu/imagesense/internal/middleware"
)

// Session is the part of the analysis session the HTTP surface drives.
type Session interface {
	ProcessBatchUntilDone(ctx context.Context, paths []string) (appanalysis.BatchSummary, error)
	Totals() appanalysis.Totals
}

type Options struct {
	// ResultsPath is the CSV file served by GET /v1/results.
	ResultsPath string
	Token       string
	Checkers    map[string]middleware.HealthChecker
	// DropsPerMinute limits POST /v1/batches per client; 0 disables it.
	DropsPerMinute int
}

type Router struct {
	session Session
	opts    Options
}

type errBadRequest struct{ error }

func NewRouter(session Session, opts Options) http.Handler {
	r := &Router{session: session, opts: opts}
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.TokenAuth(opts.Token))
		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Get("/results", r.wrap(r.handleResults))
		rt.Group(func(drop chi.Router) {
			if opts.DropsPerMinute > 0 {
				drop.Use(middleware.RateLimitMiddleware(opts.DropsPerMinute, float64(opts.DropsPerMinute)/60))
			}
			drop.Post("/batches", r.wrap(r.handleDrop))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var bad errBadRequest
			switch {
			case errors.As(err, &bad):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, appanalysis.ErrNoImages):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, os.ErrNotExist):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, ai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// POST /v1/batches
// Body: {"paths": ["/abs/a.png", "/abs/b.jpg"]}
// The batch runs to completion even if the client disconnects.
func (r *Router) handleDrop(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Paths []string `json:"paths"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errBadRequest{err}
	}
	if err := middleware.ValidateDrop(body.Paths); err != nil {
		return errBadRequest{err}
	}

	sum, err := r.session.ProcessBatchUntilDone(req.Context(), body.Paths)
	if err != nil {
		return err
	}
	middleware.RecordBatch(sum.Processed, sum.Successful, sum.AnalysisErrors)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sum)
}

// GET /v1/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(r.session.Totals())
}

// GET /v1/results
func (r *Router) handleResults(w http.ResponseWriter, req *http.Request) error {
	if _, err := os.Stat(r.opts.ResultsPath); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	http.ServeFile(w, req, r.opts.ResultsPath)
	return nil
}
