// Package ui serves the analysis API over HTTP.
package ui

import (
	"context"
	"net/http"
	"time"

	"sakilahypo/app"
	idataset "sakilahypo/internal/dataset"
	"sakilahypo/internal/logging"
	"sakilahypo/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// App represents the HTTP application
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	cache   *DatasetCache
	storage idataset.FileStorage
	log     zerolog.Logger
}

// NewApp creates the application. A nil storage disables dataset uploads.
func NewApp(service *app.AnalysisService, cache *DatasetCache, storage idataset.FileStorage) *App {
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		cache:   cache,
		storage: storage,
		log:     logging.Component("http"),
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Handle("/metrics", promhttp.Handler())
	a.router.Get("/report", a.handleReport)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/hypotheses", a.handleHypotheses)
		r.Get("/hypotheses/{name}", a.handleHypothesis)
		r.Get("/compare", a.handleCompare)

		r.Get("/columns", a.handleColumns)
		r.Get("/columns/{name}/distribution", a.handleDistribution)
		r.Get("/describe", a.handleDescribe)

		r.Post("/datasets", a.handleDatasetUpload)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", a.handleListRuns)
			r.Post("/", a.handleCreateRun)
			r.Get("/{id}", a.handleGetRun)
		})
	})
}

// requestLogger records every request in the log and the latency histogram
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		telemetry.RecordHTTPRequest(r.Method, route, status, elapsed)

		a.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (a *App) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
