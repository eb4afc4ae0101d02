package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/export"
)

// ExportHandler serves list exports as file downloads.
type ExportHandler struct {
	svc *buylist.Service
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(svc *buylist.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportList writes the current list as an attachment. Query parameters:
// format (csv or json, default csv) and includeBought (default false).
func (h *ExportHandler) ExportList(w http.ResponseWriter, r *http.Request) {
	format := export.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := export.ParseFormat(raw)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		format = f
	}

	includeBought, err := queryBool(r, "includeBought", false)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	var buf bytes.Buffer
	filename, err := h.svc.Export(&buf, format, includeBought)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == export.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
