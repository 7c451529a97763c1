package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
	"github.com/trafficpulse/trafficpulse/internal/api/response"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// activeAlertWindow is how far back the active alerts view reaches.
const activeAlertWindow = time.Hour

// AlertHandler handles traffic alert endpoints.
type AlertHandler struct {
	alerts traffic.AlertRepository
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts traffic.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts handles GET /v1/alerts - list raised alerts.
// Supports ?location=, ?type=, ?severity=, ?since= and ?limit= filters.
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	h.writeAlerts(w, r, filter)
}

// ListActiveAlerts handles GET /v1/alerts/active - alerts raised within the
// last hour, newest first.
func (h *AlertHandler) ListActiveAlerts(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	filter.Since = time.Now().Add(-activeAlertWindow)

	h.writeAlerts(w, r, filter)
}

func (h *AlertHandler) parseFilter(w http.ResponseWriter, r *http.Request) (traffic.AlertFilter, bool) {
	filter := traffic.AlertFilter{
		Location: r.URL.Query().Get("location"),
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		alertType := traffic.AlertType(raw)
		if !traffic.ValidAlertType(alertType) {
			response.BadRequest(w, r, "invalid alert type", []models.FieldError{
				{Field: "type", Message: "must be one of CONGESTION, INCIDENT, CLOSURE"},
			})
			return filter, false
		}
		filter.Type = alertType
	}

	if raw := r.URL.Query().Get("severity"); raw != "" {
		severity := traffic.Severity(raw)
		if !traffic.ValidSeverity(severity) {
			response.BadRequest(w, r, "invalid severity", []models.FieldError{
				{Field: "severity", Message: "must be one of LOW, MEDIUM, HIGH"},
			})
			return filter, false
		}
		filter.Severity = severity
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, r, "invalid since timestamp", []models.FieldError{
				{Field: "since", Message: "must be an RFC 3339 timestamp"},
			})
			return filter, false
		}
		filter.Since = since
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 1000", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 1000"},
			})
			return filter, false
		}
		filter.Limit = limit
	}

	return filter, true
}

func (h *AlertHandler) writeAlerts(w http.ResponseWriter, r *http.Request, filter traffic.AlertFilter) {
	alerts, err := h.alerts.List(r.Context(), filter)
	if err != nil {
		response.InternalError(w, r, "failed to list alerts")
		return
	}

	items := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, models.Alert{
			ID:          a.ID,
			Location:    a.Location,
			Type:        models.AlertType(a.Type),
			Severity:    models.AlertSeverity(a.Severity),
			Description: a.Description,
			Timestamp:   models.Timestamp(a.Timestamp),
		})
	}

	response.JSON(w, r, http.StatusOK, models.AlertsResponse{Items: items, Count: len(items)})
}
