package httpx

import (
	"net/http"

	"listkeeper/internal/config"
	"listkeeper/internal/http/handlers"
	middlewarex "listkeeper/internal/http/middleware"
	listsvc "listkeeper/internal/services/listparams"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config      config.Cfg
	ListService *listsvc.Service
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		sonic.ConfigStd.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"resources": len(deps.ListService.Resources()),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Admin routes (protected by admin token)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config))
		r.Delete("/sessions/{sid}", handlers.ForgetSession(deps.ListService))
	})

	basePath := deps.Config.App.BasePath
	if basePath == "" {
		basePath = "/"
	}

	// List params, scoped to the caller's session
	r.Route(basePath, func(r chi.Router) {
		r.Use(middlewarex.Session)

		r.Get("/", handlers.ListResources(deps.ListService))
		r.Route("/{resource}", func(r chi.Router) {
			r.Get("/", handlers.GetList(deps.ListService))
			r.Get("/history", handlers.GetHistory(deps.ListService))
			r.Post("/page", handlers.SetPage(deps.ListService))
			r.Post("/per-page", handlers.SetPerPage(deps.ListService))
			r.Post("/sort", handlers.SetSort(deps.ListService))
			r.Post("/filters", handlers.SetFilters(deps.ListService))
			r.Post("/filters/{name}/show", handlers.ShowFilter(deps.ListService))
			r.Post("/filters/{name}/hide", handlers.HideFilter(deps.ListService))
		})
	})

	return r
}
