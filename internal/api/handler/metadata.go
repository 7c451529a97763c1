package handler

import (
	"net/http"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
	"github.com/trafficpulse/trafficpulse/internal/api/response"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		CongestionLevels: []models.CongestionLevel{
			models.CongestionLow,
			models.CongestionMedium,
			models.CongestionHigh,
		},
		AlertTypes: []models.AlertType{
			models.AlertTypeCongestion,
			models.AlertTypeIncident,
			models.AlertTypeClosure,
		},
		AlertSeverities: []models.AlertSeverity{
			models.AlertSeverityLow,
			models.AlertSeverityMedium,
			models.AlertSeverityHigh,
		},
	}
	response.JSON(w, r, http.StatusOK, enums)
}
