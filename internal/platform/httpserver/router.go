package httpserver

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/example/imdb-bot/internal/platform/api"
)

// RouterConfig customizes the common endpoints.
type RouterConfig struct {
	// ReadyFunc reports whether downstream dependencies (the database) are
	// reachable. Nil means /readyz always succeeds.
	ReadyFunc func() error
	// MetricsFunc returns the payload for /metrics. Nil disables the route.
	MetricsFunc func() (any, error)
}

var startTime = time.Now()

// SetupRouter attaches base middlewares and the health endpoints.
// IMPORTANT: must be called before registering any routes.
func SetupRouter(r chi.Router, cfgs ...RouterConfig) {
	var cfg RouterConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	r.Use(RequestIDMiddleware("X-Request-Id"))
	r.Use(recoverMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"status":         "healthy",
			"uptime_seconds": time.Since(startTime).Seconds(),
		})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.ReadyFunc != nil {
			if err := cfg.ReadyFunc(); err != nil {
				api.Unavailable(w, err.Error(), RequestIDFromContext(req.Context()))
				return
			}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
	if cfg.MetricsFunc != nil {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			payload, err := cfg.MetricsFunc()
			if err != nil {
				api.Internal(w, RequestIDFromContext(req.Context()))
				return
			}
			api.WriteJSON(w, http.StatusOK, payload)
		})
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				api.Internal(w, RequestIDFromContext(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func parseCORSOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
