package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
)

var errEntryNotFound = errors.New("card entry not found")

// CardHandler handles requests on the entries of the current list.
type CardHandler struct {
	svc *buylist.Service
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc *buylist.Service) *CardHandler {
	return &CardHandler{svc: svc}
}

// ImportRequest carries a pasted deck list.
type ImportRequest struct {
	Text string `json:"text"`
}

// UpdateEntryRequest changes any subset of an entry's editable fields.
type UpdateEntryRequest struct {
	Quantity     *int    `json:"quantity,omitempty"`
	Selected     *bool   `json:"selected,omitempty"`
	OrderDetails *string `json:"orderDetails,omitempty"`
}

// SelectAllRequest sets the selected flag on every entry.
type SelectAllRequest struct {
	Selected bool `json:"selected"`
}

// CountResponse reports how many entries an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// GetCards returns the current list's entries in list order.
func (h *CardHandler) GetCards(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Entries())
}

// GetCard returns one entry.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := h.svc.Entry(id)
	if !ok {
		response.NotFound(w, fmt.Errorf("%w: %s", errEntryNotFound, id))
		return
	}
	response.Success(w, entry)
}

// ImportDeckList merges a deck list into the current list and starts
// lookups for entries that still need a price.
func (h *CardHandler) ImportDeckList(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.BadRequest(w, errors.New("deck list is empty"))
		return
	}

	result, err := h.svc.ImportDeckList(r.Context(), req.Text)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, result)
}

// RetryLookups relaunches lookups for entries with no price or mana cost.
func (h *CardHandler) RetryLookups(w http.ResponseWriter, r *http.Request) {
	response.Success(w, CountResponse{Count: h.svc.RetryLookups()})
}

// UpdateCard applies quantity, selected and order details changes.
// Invalid values such as negative quantities are ignored.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	if _, ok := h.svc.Entry(id); !ok {
		response.NotFound(w, fmt.Errorf("%w: %s", errEntryNotFound, id))
		return
	}

	ctx := r.Context()
	var errs []error
	if req.Quantity != nil {
		_, err := h.svc.SetQuantity(ctx, id, *req.Quantity)
		errs = append(errs, err)
	}
	if req.Selected != nil {
		_, err := h.svc.SetSelected(ctx, id, *req.Selected)
		errs = append(errs, err)
	}
	if req.OrderDetails != nil {
		_, err := h.svc.SetOrderDetails(ctx, id, *req.OrderDetails)
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		response.InternalError(w, err)
		return
	}

	h.writeEntry(w, id)
}

// ToggleBought flips an entry's bought flag.
func (h *CardHandler) ToggleBought(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	toggled, err := h.svc.ToggleBought(r.Context(), id)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if !toggled {
		response.NotFound(w, fmt.Errorf("%w: %s", errEntryNotFound, id))
		return
	}
	h.writeEntry(w, id)
}

// DeleteCard removes an entry.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.svc.DeleteEntry(r.Context(), id)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if !deleted {
		response.NotFound(w, fmt.Errorf("%w: %s", errEntryNotFound, id))
		return
	}
	response.NoContent(w)
}

// BulkDeleteSelected removes every selected entry of the current list.
func (h *CardHandler) BulkDeleteSelected(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.BulkDeleteSelected(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, CountResponse{Count: n})
}

// SetAllSelected selects or deselects every entry of the current list.
func (h *CardHandler) SetAllSelected(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	n, err := h.svc.SetAllSelected(r.Context(), req.Selected)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, CountResponse{Count: n})
}

func (h *CardHandler) writeEntry(w http.ResponseWriter, id string) {
	entry, ok := h.svc.Entry(id)
	if !ok {
		response.NotFound(w, fmt.Errorf("%w: %s", errEntryNotFound, id))
		return
	}
	response.Success(w, entry)
}
