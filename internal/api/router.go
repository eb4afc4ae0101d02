package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/handlers"
	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		listHandler := handlers.NewListHandler(s.svc)
		r.Route("/lists", func(r chi.Router) {
			r.Get("/", listHandler.GetLists)
			r.Get("/summary", listHandler.GetSummaries)
			r.Post("/", listHandler.CreateList)
			r.Put("/current", listHandler.SelectList)
			r.Delete("/{name}", listHandler.DeleteList)
		})

		cardHandler := handlers.NewCardHandler(s.svc)
		r.Post("/import", cardHandler.ImportDeckList)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.GetCards)
			r.Post("/lookups", cardHandler.RetryLookups)
			r.Post("/bulk-delete", cardHandler.BulkDeleteSelected)
			r.Put("/selection", cardHandler.SetAllSelected)
			r.Get("/{id}", cardHandler.GetCard)
			r.Patch("/{id}", cardHandler.UpdateCard)
			r.Delete("/{id}", cardHandler.DeleteCard)
			r.Post("/{id}/toggle-bought", cardHandler.ToggleBought)
		})

		viewHandler := handlers.NewViewHandler(s.svc)
		r.Get("/view", viewHandler.GetView)
		r.Patch("/view", viewHandler.UpdateView)
		r.Get("/view/cards", viewHandler.GetPageCards)
		r.Get("/totals", viewHandler.GetTotals)
		r.Get("/progress", viewHandler.GetProgress)
		r.Route("/columns", func(r chi.Router) {
			r.Get("/", viewHandler.GetColumns)
			r.Put("/{key}", viewHandler.SetColumn)
		})

		exportHandler := handlers.NewExportHandler(s.svc)
		r.Get("/export", exportHandler.ExportList)

		systemHandler := handlers.NewSystemHandler(s.svc, s.metrics)
		r.Get("/images", systemHandler.GetCardImage)
		r.Get("/metrics", systemHandler.GetMetrics)
		r.Get("/chart", systemHandler.GetProgressChart)
		r.Get("/version", systemHandler.GetVersion)
	})
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	WebSocketClients int    `json:"websocket_clients"`
}

// healthCheck returns the server health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthResponse{
		Status:           "ok",
		Version:          version.Version,
		WebSocketClients: s.wsHub.ClientCount(),
	})
}
