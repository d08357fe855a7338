package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airmonitor/airmonitor/internal/alexa"
	"github.com/airmonitor/airmonitor/internal/collector"
	"github.com/airmonitor/airmonitor/internal/middleware"
	"github.com/airmonitor/airmonitor/internal/model"
)

const missingIDMessage = "Expected `id` parameter with device id"

// StateFetcher fetches the current capability values of one device
type StateFetcher interface {
	FetchState(ctx context.Context, deviceID string) (model.CapabilityMap, error)
}

// AirMonitorHandler serves one scrape per request. It holds no per-request
// state, so concurrent scrapes never share anything mutable.
type AirMonitorHandler struct {
	fetcher StateFetcher
	logger  *slog.Logger
}

// NewAirMonitorHandler creates a new air monitor handler
func NewAirMonitorHandler(fetcher StateFetcher, logger *slog.Logger) *AirMonitorHandler {
	return &AirMonitorHandler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Scrape handles GET /air_monitor?id=<device-id>
func (h *AirMonitorHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("id")
	if deviceID == "" {
		sendText(w, http.StatusBadRequest, missingIDMessage)
		return
	}

	requestID := middleware.GetRequestID(r.Context())

	caps, err := h.fetcher.FetchState(r.Context(), deviceID)
	if err != nil {
		attrs := []any{"request_id", requestID, "device_id", deviceID, "error", err}
		var upErr *alexa.UpstreamError
		if errors.As(err, &upErr) && upErr.StatusCode != 0 {
			attrs = append(attrs, "upstream_status", upErr.StatusCode)
		}
		h.logger.Error("Failed to fetch device state", attrs...)
		sendText(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics, omissions := collector.TranslateWithOmissions(caps)
	for _, o := range omissions {
		h.logger.Warn("Capability omitted",
			"request_id", requestID,
			"device_id", deviceID,
			"instance", o.Instance,
			"error", o.Err,
		)
	}

	reg, err := collector.NewRegistry(metrics)
	if err != nil {
		h.logger.Error("Failed to build registry", "request_id", requestID, "error", err)
		sendText(w, http.StatusInternalServerError, err.Error())
		return
	}

	promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      promLogger{logger: h.logger},
		ErrorHandling: promhttp.HTTPErrorOnError,
	}).ServeHTTP(w, r)
}

// promLogger adapts slog to promhttp's error log
type promLogger struct {
	logger *slog.Logger
}

func (l promLogger) Println(v ...interface{}) {
	l.logger.Error(fmt.Sprint(v...))
}
