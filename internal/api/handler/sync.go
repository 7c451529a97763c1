package handler

import (
	"context"
	"net/http"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
	"github.com/trafficpulse/trafficpulse/internal/api/response"
	"github.com/trafficpulse/trafficpulse/internal/mirror"
)

// Syncer triggers a mirror sync of current conditions.
type Syncer interface {
	Sync(ctx context.Context) (mirror.Result, error)
}

// SyncHandler handles the mirror sync endpoint.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// TriggerSync handles POST /v1/sync - push current conditions to the mirror.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to read current conditions")
		return
	}

	response.JSON(w, r, http.StatusOK, models.SyncResponse{
		Entries:   result.Entries,
		Published: result.Published,
		SyncedAt:  models.Timestamp(result.SyncedAt),
	})
}
