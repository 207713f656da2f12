/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: One logrus entry per request
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/tax/*            Tax calculation, guidance, manual sheet, regimes, history
  /api/budget/*         Budget recompute, suggestion, saved plans
  /api/stocks/*         Twelve Data proxy
  /api/currencies       Display currencies
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present, falling back to
  index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware. Sign-in lives in the frontend's identity
  provider and the API holds no per-user data.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// DefaultAllowedOrigins are the frontend dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tax routes
		r.Route("/tax", func(r chi.Router) {
			r.Post("/calculate", h.CalculateTax)
			r.Get("/guidance", h.GetGuidance)
			r.Post("/manual", h.ManualTax)
			r.Get("/calculations", h.ListCalculations)
			r.Get("/advance", h.AdvanceSchedule)

			r.Route("/regimes", func(r chi.Router) {
				r.Get("/", h.ListRegimes)
				r.Post("/", h.CreateRegime)
				r.Get("/{id}", h.GetRegime)
				r.Delete("/{id}", h.DeleteRegime)
			})
		})

		// Budget routes
		r.Route("/budget", func(r chi.Router) {
			r.Post("/recompute", h.RecomputeBudget)
			r.Post("/suggest", h.SuggestBudget)

			r.Route("/plans", func(r chi.Router) {
				r.Get("/", h.ListPlans)
				r.Post("/", h.CreatePlan)
				r.Get("/{id}", h.GetPlan)
				r.Put("/{id}", h.UpdatePlan)
				r.Delete("/{id}", h.DeletePlan)
			})
		})

		// Stock proxy routes
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/search", h.SearchStocks)
			r.Get("/details", h.StockDetails)
			r.Get("/history", h.StockHistory)
		})

		r.Get("/currencies", h.ListCurrencies)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Serve static files (built frontend)
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Batua API</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Batua API</h1>
<p>The frontend is not built. Place the build output in <code>web/dist</code>.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/tax/regimes">/api/tax/regimes</a> - Tax regimes</li>
<li><a href="/api/budget/plans">/api/budget/plans</a> - Saved budget plans</li>
<li><a href="/api/currencies">/api/currencies</a> - Display currencies</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}

// RequestLogger logs method, path, status, duration and request id for
// every request.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				entry := log.WithFields(logrus.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
					"request_id": middleware.GetReqID(r.Context()),
				})
				switch {
				case ww.Status() >= 500:
					entry.Error("request")
				case ww.Status() >= 400:
					entry.Warn("request")
				default:
					entry.Info("request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
