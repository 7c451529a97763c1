package handler

import (
	"net/http"
	"strconv"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
	"github.com/trafficpulse/trafficpulse/internal/api/response"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// TrafficHandler handles traffic condition and history endpoints.
type TrafficHandler struct {
	service *traffic.Service
	samples traffic.SampleRepository
}

// NewTrafficHandler creates a new TrafficHandler.
func NewTrafficHandler(service *traffic.Service, samples traffic.SampleRepository) *TrafficHandler {
	return &TrafficHandler{service: service, samples: samples}
}

// GetConditions handles GET /v1/traffic/conditions - latest condition per location.
func (h *TrafficHandler) GetConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := h.service.CurrentConditions(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load current conditions")
		return
	}

	result := models.ConditionsResponse{
		Conditions: make(map[string]models.Condition, len(conditions)),
		Count:      len(conditions),
	}
	for location, cond := range conditions {
		result.Conditions[location] = models.Condition{
			Location:        cond.Location,
			Lat:             cond.Latitude,
			Lon:             cond.Longitude,
			CurrentSpeed:    cond.CurrentSpeed,
			FreeFlowSpeed:   cond.FreeFlowSpeed,
			Density:         cond.Density,
			CongestionLevel: models.CongestionLevel(cond.CongestionLevel),
			RoadClosure:     cond.RoadClosure,
			Timestamp:       models.Timestamp(cond.Timestamp),
		}
	}

	response.JSON(w, r, http.StatusOK, result)
}

// GetHistory handles GET /v1/traffic/history - windowed aggregate statistics.
// The window defaults to 24 hours and can be overridden with ?hours=N.
func (h *TrafficHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	hours := traffic.DefaultWindowHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 168 {
			response.BadRequest(w, r, "hours must be an integer between 1 and 168", []models.FieldError{
				{Field: "hours", Message: "must be an integer between 1 and 168"},
			})
			return
		}
		hours = parsed
	}

	stats, err := h.service.HistoricalAnalysis(r.Context(), hours)
	if err != nil {
		response.InternalError(w, r, "failed to compute historical analysis")
		return
	}

	result := models.HistoryResponse{
		WindowHours: hours,
		Locations:   make(map[string]models.LocationHistory, len(stats)),
	}
	for location, s := range stats {
		result.Locations[location] = models.LocationHistory{
			Location:          s.Location,
			AverageSpeed:      s.AverageSpeed,
			AverageTravelTime: s.AverageTravelTime,
			AverageDensity:    s.AverageDensity,
			CongestionLevel:   models.CongestionLevel(traffic.LevelForDensity(s.AverageDensity)),
			SampleCount:       s.SampleCount,
		}
	}

	response.JSON(w, r, http.StatusOK, result)
}

// ListSamples handles GET /v1/traffic/samples - raw stored measurements.
// Supports ?location=, ?roadClosure= and ?limit= filters.
func (h *TrafficHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	filter := traffic.SampleFilter{
		Location: r.URL.Query().Get("location"),
	}

	if raw := r.URL.Query().Get("roadClosure"); raw != "" {
		closure, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, r, "roadClosure must be a boolean", []models.FieldError{
				{Field: "roadClosure", Message: "must be true or false"},
			})
			return
		}
		filter.RoadClosure = &closure
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 1000", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 1000"},
			})
			return
		}
		filter.Limit = limit
	}

	samples, err := h.samples.List(r.Context(), filter)
	if err != nil {
		response.InternalError(w, r, "failed to list samples")
		return
	}

	items := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		items = append(items, models.Sample{
			ID:                 s.ID,
			Location:           s.Location,
			Lat:                s.Latitude,
			Lon:                s.Longitude,
			CurrentSpeed:       s.CurrentSpeed,
			FreeFlowSpeed:      s.FreeFlowSpeed,
			CurrentTravelTime:  s.CurrentTravelTime,
			FreeFlowTravelTime: s.FreeFlowTravelTime,
			Confidence:         s.Confidence,
			RoadClosure:        s.RoadClosure,
			Timestamp:          models.Timestamp(s.Timestamp),
		})
	}

	response.JSON(w, r, http.StatusOK, models.SamplesResponse{Items: items, Count: len(items)})
}
