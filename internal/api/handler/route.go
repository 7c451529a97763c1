package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
	"github.com/trafficpulse/trafficpulse/internal/api/response"
	"github.com/trafficpulse/trafficpulse/internal/route"
)

// Paging bounds for route listings.
const (
	defaultRouteListLimit = 50
	maxRouteListLimit     = 200
)

// RouteHandler handles monitored route endpoints.
type RouteHandler struct {
	service *route.Service
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *route.Service) *RouteHandler {
	return &RouteHandler{service: service}
}

// ListRoutes handles GET /v1/routes - list monitored routes.
// Supports ?limit= and ?cursor= for paging through the collection.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	limit := defaultRouteListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRouteListLimit {
			response.BadRequest(w, r, fmt.Sprintf("limit must be an integer between 1 and %d", maxRouteListLimit), []models.FieldError{
				{Field: "limit", Message: fmt.Sprintf("must be an integer between 1 and %d", maxRouteListLimit)},
			})
			return
		}
		limit = parsed
	}

	routes, err := h.service.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		response.InternalError(w, r, "failed to list routes")
		return
	}
	response.JSON(w, r, http.StatusOK, routes)
}

// CreateRoute handles POST /v1/routes - create a monitored route.
func (h *RouteHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.service.Create(r.Context(), &input)
	if err != nil {
		var validationErr *route.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to create route")
		return
	}

	location := fmt.Sprintf("/v1/routes/%s", created.ID)
	response.Created(w, r, location, created)
}

// GetRoute handles GET /v1/routes/{routeId} - get a monitored route.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if routeID == "" {
		response.BadRequest(w, r, "routeId is required", nil)
		return
	}

	result, err := h.service.Get(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to get route")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// UpdateRoute handles PUT /v1/routes/{routeId} - update a monitored route.
func (h *RouteHandler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if routeID == "" {
		response.BadRequest(w, r, "routeId is required", nil)
		return
	}

	var input models.RouteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), routeID, &input)
	if err != nil {
		var validationErr *route.ValidationError
		switch {
		case errors.Is(err, route.ErrRouteNotFound):
			response.NotFound(w, r, "route not found")
		case errors.As(err, &validationErr):
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
		default:
			response.InternalError(w, r, "failed to update route")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteRoute handles DELETE /v1/routes/{routeId} - delete a monitored route.
func (h *RouteHandler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if routeID == "" {
		response.BadRequest(w, r, "routeId is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), routeID); err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to delete route")
		return
	}

	response.NoContent(w, r)
}
