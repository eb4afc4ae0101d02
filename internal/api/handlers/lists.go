package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

// ListHandler handles list management requests.
type ListHandler struct {
	svc *buylist.Service
}

// NewListHandler creates a new ListHandler.
func NewListHandler(svc *buylist.Service) *ListHandler {
	return &ListHandler{svc: svc}
}

// ListNameRequest names a list.
type ListNameRequest struct {
	Name string `json:"name"`
}

// CreateListResponse reports whether a list was added.
type CreateListResponse struct {
	Created bool `json:"created"`
	buylist.ListsInfo
}

// GetLists returns the list names and the current list.
func (h *ListHandler) GetLists(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Lists())
}

// GetSummaries returns totals and progress for every list.
func (h *ListHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.svc.Summaries())
}

// CreateList adds a list and makes it current. Empty or duplicate names
// leave everything unchanged and report created=false.
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req ListNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	created, err := h.svc.CreateList(r.Context(), req.Name)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	resp := CreateListResponse{Created: created, ListsInfo: h.svc.Lists()}
	if created {
		response.Created(w, resp)
		return
	}
	response.Success(w, resp)
}

// SelectList makes a list current.
func (h *ListHandler) SelectList(w http.ResponseWriter, r *http.Request) {
	var req ListNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	if err := h.svc.SelectList(r.Context(), req.Name); err != nil {
		if errors.Is(err, lists.ErrListNotFound) {
			response.NotFound(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}
	response.Success(w, h.svc.Lists())
}

// DeleteList removes a list. The caller must pass confirm=true.
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	confirmed, err := queryBool(r, "confirm", false)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	if !confirmed {
		response.BadRequest(w, fmt.Errorf("deleting list %q requires confirm=true", name))
		return
	}

	deleted, err := h.svc.DeleteList(r.Context(), name)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if !deleted {
		response.NotFound(w, fmt.Errorf("%w: %s", lists.ErrListNotFound, name))
		return
	}
	response.Success(w, h.svc.Lists())
}
