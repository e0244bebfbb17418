/*
server.go - Routes and middleware for the appraisal HTTP API

PURPOSE:
  Maps URLs onto Handler methods. Handlers own request decoding and
  error mapping; this file only decides which handler serves which path.

MIDDLEWARE (in order):
  1. RequestID:  X-Request-Id for correlating log lines
  2. Logger:     One access log line per request
  3. Recoverer:  A panicking handler answers 500
  4. CORS:       Origins come from config.AllowedOrigins

ROUTE GROUPS:
  /api/health           Liveness
  /api/employees/*      Employee directory and result history
  /api/masters/*        Master configurations, simulate, compute
  /api/objectives/*     OKR objective templates
  /api/allocations/*    OKR weightage allocation per objective template
  /api/scenarios/*      Demo scenarios

No authentication. Run behind a trusted gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/appraisal/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the CORS origins used when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/results", h.ListResults)
		})

		// Master routes
		r.Route("/masters", func(r chi.Router) {
			r.Get("/", h.ListMasters)
			r.Post("/", h.CreateMaster)
			r.Post("/validate", h.ValidateMaster)
			r.Get("/{id}", h.GetMaster)
			r.Post("/{id}/simulate", h.SimulateMaster)
			r.Post("/{id}/compute", h.ComputeMaster)
		})

		// Allocation routes
		r.Route("/objectives", func(r chi.Router) {
			r.Get("/", h.ListObjectiveTemplates)
			r.Post("/", h.CreateObjectiveTemplate)
			r.Get("/{id}", h.GetObjectiveTemplate)
		})

		r.Route("/allocations/{templateID}", func(r chi.Router) {
			r.Get("/", h.GetAllocation)
			r.Put("/budget", h.SetBudget)
			r.Put("/teams", h.SetTeams)
			r.Put("/teams/{teamID}", h.UpdateTeam)
			r.Post("/redistribute", h.Redistribute)
			r.Post("/department", h.SelectDepartment)
			r.Post("/key-results", h.AddKeyResult)
			r.Delete("/key-results/{krID}", h.RemoveKeyResult)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Appraisal Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Appraisal Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/employees">/api/employees</a> - List employees</li>
<li><a href="/api/masters">/api/masters</a> - List master configurations</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
