package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/ramonehamilton/MTG-Buylist/internal/api/response"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/charts"
	"github.com/ramonehamilton/MTG-Buylist/internal/imagecache"
	"github.com/ramonehamilton/MTG-Buylist/internal/metrics"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
	"github.com/ramonehamilton/MTG-Buylist/internal/version"
)

// SystemHandler serves card images, lookup metrics, charts and build info.
type SystemHandler struct {
	svc     *buylist.Service
	metrics *metrics.LookupMetrics
}

// NewSystemHandler creates a new SystemHandler. m may be nil.
func NewSystemHandler(svc *buylist.Service, m *metrics.LookupMetrics) *SystemHandler {
	return &SystemHandler{svc: svc, metrics: m}
}

// GetCardImage resolves the image for the card named by the name query
// parameter.
func (h *SystemHandler) GetCardImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		response.BadRequest(w, errors.New("name is required"))
		return
	}

	img, err := h.svc.CardImage(r.Context(), name)
	switch {
	case err == nil:
		response.Success(w, img)
	case errors.Is(err, imagecache.ErrNoImage), scryfall.IsNotFound(err):
		response.NotFound(w, err)
	case errors.Is(err, imagecache.ErrRetryCooldown), errors.Is(err, buylist.ErrNoImages):
		response.ServiceUnavailable(w, err)
	default:
		response.Error(w, http.StatusBadGateway, err)
	}
}

// GetMetrics returns card lookup counters and latency percentiles.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		response.ServiceUnavailable(w, errors.New("metrics are not enabled"))
		return
	}
	response.Success(w, h.metrics.Snapshot())
}

// GetProgressChart renders the purchase progress of the current list as an
// HTML page. The metric query parameter selects cards (default) or spend.
func (h *SystemHandler) GetProgressChart(w http.ResponseWriter, r *http.Request) {
	metric := charts.MetricCards
	if raw := r.URL.Query().Get("metric"); raw != "" {
		m, err := charts.ParseMetric(raw)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		metric = m
	}

	cfg := charts.DefaultChartConfig()
	cfg.Subtitle = h.svc.Lists().Current

	var buf bytes.Buffer
	if err := charts.RenderProgressPie(&buf, h.svc.Progress(), metric, cfg); err != nil {
		response.InternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetVersion returns build information.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	response.Success(w, version.Get())
}
