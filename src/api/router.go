// Package api exposes the chart pipeline over HTTP: listing, an authenticated generation
// trigger, health and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/types"
)

// Charts is the part of the pipeline the HTTP layer drives.
type Charts interface {
	Run() types.BatchResult
	List() types.Listing
}

// Options tunes the router.
type Options struct {
	// GenerateRatePerMinute limits generation triggers per client IP. Zero disables the limit.
	GenerateRatePerMinute int
}

type subjectKey struct{}

// Subject returns the authenticated caller stored on the request context.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

// errorBody is the machine-readable error payload. It never carries paths or stack traces.
type errorBody struct {
	Status  types.Status `json:"status"`
	Message string       `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, errorBody{Status: types.StatusError, Message: msg})
}

// NewRouter wires the routes.
func NewRouter(charts Charts, auth Authenticator, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/charts", func(r chi.Router) {
		r.Use(requireAuth(auth))
		r.Get("/list", listHandler(charts))

		gen := r
		if opts.GenerateRatePerMinute > 0 {
			gen = r.With(httprate.Limit(
				opts.GenerateRatePerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, r, http.StatusTooManyRequests, "too many generation requests")
				}),
			))
		}
		gen.Post("/generate", generateHandler(charts))
	})
	return r
}

func requireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := auth.Authenticate(r)
			if err != nil {
				msg := "authentication required"
				if errors.Is(err, ErrInvalidToken) {
					msg = "invalid or expired credentials"
				}
				writeError(w, r, http.StatusUnauthorized, msg)
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func listHandler(charts Charts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, charts.List())
	}
}

func generateHandler(charts Charts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.Infof("[api] generation requested by %s", Subject(r.Context()))
		res := charts.Run()
		if res.Status == types.StatusError {
			render.Status(r, http.StatusInternalServerError)
		}
		render.JSON(w, r, res)
	}
}
