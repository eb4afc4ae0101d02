package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/view"
)

// ViewHandler handles the filtered, sorted and paginated view, totals and
// column visibility.
type ViewHandler struct {
	svc *buylist.Service
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(svc *buylist.Service) *ViewHandler {
	return &ViewHandler{svc: svc}
}

// ViewResponse is everything a client needs to render the current page.
type ViewResponse struct {
	State   buylist.ViewState `json:"state"`
	Page    view.Page         `json:"page"`
	Totals  view.Totals       `json:"totals"`
	Columns map[string]bool   `json:"columns"`
}

// UpdateViewRequest changes view parameters. Sort selects a column and
// flips the direction when that column is already active.
type UpdateViewRequest struct {
	Filter   *string `json:"filter,omitempty"`
	Sort     *string `json:"sort,omitempty"`
	Page     *int    `json:"page,omitempty"`
	PageSize *int    `json:"pageSize,omitempty"`
}

// ColumnRequest shows or hides a column.
type ColumnRequest struct {
	Visible bool `json:"visible"`
}

// GetView returns the current page with totals and column visibility.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.current())
}

// UpdateView applies filter, sort and paging changes in that order, so a
// page set in the same request survives the filter's page reset.
func (h *ViewHandler) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req UpdateViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	var key view.SortKey
	if req.Sort != nil {
		k, ok := view.ParseSortKey(*req.Sort)
		if !ok {
			response.BadRequest(w, fmt.Errorf("unknown sort key %q", *req.Sort))
			return
		}
		key = k
	}

	if req.Filter != nil {
		h.svc.SetFilter(*req.Filter)
	}
	if req.Sort != nil {
		h.svc.SortBy(key)
	}
	if req.PageSize != nil {
		h.svc.SetPageSize(*req.PageSize)
	}
	if req.Page != nil {
		h.svc.SetPage(*req.Page)
	}

	response.Success(w, h.current())
}

// GetPageCards returns only the cards of the current page, in the
// paginated envelope.
func (h *ViewHandler) GetPageCards(w http.ResponseWriter, r *http.Request) {
	state := h.svc.ViewState()
	page := h.svc.View()
	response.Paginated(w, page.Cards, page.Page, state.PageSize, page.TotalMatches)
}

// GetTotals returns the outstanding spend of the current list.
func (h *ViewHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Totals())
}

// GetProgress returns the purchase progress of the current list.
func (h *ViewHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Progress())
}

// GetColumns returns column visibility.
func (h *ViewHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Columns())
}

// SetColumn shows or hides one column.
func (h *ViewHandler) SetColumn(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req ColumnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	if err := h.svc.SetColumnVisible(r.Context(), key, req.Visible); err != nil {
		if errors.Is(err, buylist.ErrUnknownColumn) {
			response.NotFound(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}
	response.Success(w, h.svc.Columns())
}

func (h *ViewHandler) current() ViewResponse {
	return ViewResponse{
		State:   h.svc.ViewState(),
		Page:    h.svc.View(),
		Totals:  h.svc.Totals(),
		Columns: h.svc.Columns(),
	}
}
