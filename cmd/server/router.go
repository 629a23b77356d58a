package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"confreg/internal/admin"
	"confreg/internal/platform/config"
	"confreg/internal/platform/metrics"
	"confreg/internal/platform/middleware"
	"confreg/internal/registration/handler"
	"confreg/pkg/platform/httputil"
)

type healthFunc func(ctx context.Context) map[string]error

func newRouter(
	cfg config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	registrations *handler.Handler,
	admins *admin.Handler,
	artifactDir string,
	health healthFunc,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Backend is working"))
	})
	r.Get("/health", handleHealth(health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		api.Use(middleware.ContentTypeJSON)
		registrations.Register(api)
		admins.Register(api)
	})

	prefix := "/" + strings.Trim(cfg.Artifacts.URLPath, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(artifactDir))))
	return r
}

func handleHealth(health healthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{}
		for name, err := range health(ctx) {
			if err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"success": status == http.StatusOK,
			"checks":  checks,
		})
	}
}
