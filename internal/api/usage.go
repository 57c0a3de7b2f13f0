package api

import (
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/model"
)

// UsageHandler handles usage history, correction and audit endpoints.
type UsageHandler struct {
	Service *inventory.Service
}

type correctionRequest struct {
	StartedAt *time.Time       `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at"`
	ClearEnd  bool             `json:"clear_end"`
	Kind      *model.UsageKind `json:"kind"`
	Notes     *string          `json:"notes"`
}

// History handles GET /api/items/{id}/usage.
func (h *UsageHandler) History(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.GetUsageHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, periods)
}

// Open handles GET /api/items/{id}/usage/open. An item that is not in use
// yields {"period": null}.
func (h *UsageHandler) Open(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.GetOpenUsagePeriod(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]*model.UsagePeriod{"period": period})
}

// Active handles GET /api/usage/active.
func (h *UsageHandler) Active(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListActiveUsage(r.Context())
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, periods)
}

// Correct handles PATCH /api/usage/{id}.
func (h *UsageHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.CorrectUsagePeriod(r.Context(), lifecycle.CorrectionRequest{
		PeriodID:  r.PathValue("id"),
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		ClearEnd:  req.ClearEnd,
		Kind:      req.Kind,
		Notes:     req.Notes,
		Actor:     actor(r),
	})
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]*model.UsagePeriod{
		"before": res.Before,
		"after":  res.After,
	})
}

// Audit handles GET /api/audit.
func (h *UsageHandler) Audit(w http.ResponseWriter, r *http.Request) {
	findings, err := h.Service.Audit(r.Context())
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"findings": findings,
		"healthy":  len(findings) == 0,
	})
}

// HealthHandler reports liveness.
type HealthHandler struct {
	Service *inventory.Service
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		jsonError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
