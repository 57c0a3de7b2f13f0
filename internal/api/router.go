package api

import (
	"net/http"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

// NewRouter creates the API router with all endpoints registered. A nil
// metricsHandler leaves /metrics unregistered.
func NewRouter(svc *inventory.Service, jwtSecret string, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Service: svc}
	usageHandler := &UsageHandler{Service: svc}
	healthHandler := &HealthHandler{Service: svc}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireMember := RequireRole(model.RoleMember)

	// Public.
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Items: read (all roles), write (member+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireMember(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(requireMember(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireMember(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("POST /api/items/{id}/transition", authMW(requireMember(http.HandlerFunc(itemsHandler.Transition))))

	// Usage history: read (all roles), corrections (admin only).
	mux.Handle("GET /api/items/{id}/usage", authMW(http.HandlerFunc(usageHandler.History)))
	mux.Handle("GET /api/items/{id}/usage/open", authMW(http.HandlerFunc(usageHandler.Open)))
	mux.Handle("GET /api/usage/active", authMW(http.HandlerFunc(usageHandler.Active)))
	mux.Handle("PATCH /api/usage/{id}", authMW(requireAdmin(http.HandlerFunc(usageHandler.Correct))))

	// Invariant audit (admin only).
	mux.Handle("GET /api/audit", authMW(requireAdmin(http.HandlerFunc(usageHandler.Audit))))

	return mux
}
