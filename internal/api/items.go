package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/model"
)

// ItemsHandler handles item CRUD and status transition endpoints.
type ItemsHandler struct {
	Service *inventory.Service
}

type updateItemRequest struct {
	Name       *string        `json:"name"`
	Attributes map[string]any `json:"attributes"`
	// Status is accepted only to reject it with a useful message.
	Status *string `json:"status"`
}

type transitionRequest struct {
	Status         model.Status    `json:"status"`
	ExpectedStatus model.Status    `json:"expected_status"`
	Kind           model.UsageKind `json:"kind"`
	Notes          string          `json:"notes"`
}

type warningResponse struct {
	Kind    apperr.Kind       `json:"kind"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type transitionResponse struct {
	Item     *model.Item        `json:"item"`
	Previous model.Status       `json:"previous_status"`
	Changed  bool               `json:"changed"`
	Opened   *model.UsagePeriod `json:"opened,omitempty"`
	Closed   *model.UsagePeriod `json:"closed,omitempty"`
	Warnings []warningResponse  `json:"warnings,omitempty"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		Category:  model.Category(q.Get("category")),
		Status:    model.Status(q.Get("status")),
		Search:    q.Get("q"),
		SortField: q.Get("sort"),
		SortOrder: q.Get("order"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	page, err := h.Service.ListItems(r.Context(), filter)
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewItem
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.CreateItem(r.Context(), req)
	if err != nil {
		engineError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != nil {
		jsonError(w, http.StatusBadRequest, "status can only be changed through the transition endpoint")
		return
	}

	patch := model.ItemPatch{Name: req.Name, Attributes: req.Attributes}
	if patch.Empty() {
		jsonError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		engineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Service.DeleteItem(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, r, err)
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transition handles POST /api/items/{id}/transition.
func (h *ItemsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.TransitionStatus(r.Context(), lifecycle.TransitionRequest{
		ItemID:         r.PathValue("id"),
		Target:         req.Status,
		Kind:           req.Kind,
		Notes:          req.Notes,
		Actor:          actor(r),
		ExpectedStatus: req.ExpectedStatus,
	})
	if err != nil {
		engineError(w, r, err)
		return
	}

	resp := transitionResponse{
		Item:     res.Item,
		Previous: res.Previous,
		Changed:  res.Changed,
		Opened:   res.Opened,
		Closed:   res.Closed,
	}
	for _, warn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{Kind: warn.Kind, Message: warn.Message, Meta: warn.Meta})
	}
	jsonResponse(w, http.StatusOK, resp)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
