package route

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trafficpulse/trafficpulse/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 500
	MaxWaypoints         = 25
)

// Service provides route operations.
type Service struct {
	repo Repository
}

// NewService creates a new route service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves one page of monitored routes, resuming after the cursor
// when one is given.
func (s *Service) List(ctx context.Context, limit int, cursor string) (*models.PagedRoutes, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.Route, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, s.toAPIRoute(r))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedRoutes{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a route by ID.
func (s *Service) Get(ctx context.Context, routeID string) (*models.Route, error) {
	route, err := s.repo.Get(ctx, routeID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIRoute(route)
	return &result, nil
}

// Create creates a new monitored route.
func (s *Service) Create(ctx context.Context, input *models.RouteCreateRequest) (*models.Route, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	routeID := "rte_" + uuid.New().String()[:22]

	route := &Route{
		ID:          routeID,
		Name:        input.Name,
		Description: input.Description,
		Origin:      Point{Lat: input.Origin.Lat, Lon: input.Origin.Lon},
		Destination: Point{Lat: input.Destination.Lat, Lon: input.Destination.Lon},
		Waypoints:   toDomainPoints(input.Waypoints),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, route); err != nil {
		return nil, err
	}

	result := s.toAPIRoute(route)
	return &result, nil
}

// Update updates an existing monitored route.
func (s *Service) Update(ctx context.Context, routeID string, input *models.RouteUpdateRequest) (*models.Route, error) {
	route, err := s.repo.Get(ctx, routeID)
	if err != nil {
		if errors.Is(err, ErrRouteNotFound) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Description != nil {
		route.Description = input.Description
	}
	if input.Origin != nil {
		route.Origin = Point{Lat: input.Origin.Lat, Lon: input.Origin.Lon}
	}
	if input.Destination != nil {
		route.Destination = Point{Lat: input.Destination.Lat, Lon: input.Destination.Lon}
	}
	if input.Waypoints != nil {
		route.Waypoints = toDomainPoints(input.Waypoints)
	}
	route.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, route); err != nil {
		return nil, err
	}

	result := s.toAPIRoute(route)
	return &result, nil
}

// Delete deletes a monitored route.
func (s *Service) Delete(ctx context.Context, routeID string) error {
	if _, err := s.repo.Get(ctx, routeID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, routeID)
}

// validateCreateInput validates the create route input.
func (s *Service) validateCreateInput(input *models.RouteCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.Description != nil && len(*input.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 500 characters"})
	}

	errs = append(errs, s.validatePoint(input.Origin, "origin")...)
	errs = append(errs, s.validatePoint(input.Destination, "destination")...)
	errs = append(errs, s.validateWaypoints(input.Waypoints)...)

	return errs
}

// validateUpdateInput validates the update route input.
func (s *Service) validateUpdateInput(input *models.RouteUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
		}
	}

	if input.Description != nil && len(*input.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 500 characters"})
	}

	if input.Origin != nil {
		errs = append(errs, s.validatePoint(*input.Origin, "origin")...)
	}
	if input.Destination != nil {
		errs = append(errs, s.validatePoint(*input.Destination, "destination")...)
	}
	if input.Waypoints != nil {
		errs = append(errs, s.validateWaypoints(input.Waypoints)...)
	}

	return errs
}

// validatePoint validates a geographic point.
func (s *Service) validatePoint(p models.Point, prefix string) []models.FieldError {
	var errs []models.FieldError

	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lat",
			Message: "must be between -90 and 90",
		})
	}

	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lon",
			Message: "must be between -180 and 180",
		})
	}

	return errs
}

// validateWaypoints validates the optional waypoint list.
func (s *Service) validateWaypoints(points []models.Point) []models.FieldError {
	if len(points) > MaxWaypoints {
		return []models.FieldError{{Field: "waypoints", Message: "must contain at most 25 points"}}
	}

	var errs []models.FieldError
	for _, p := range points {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			errs = append(errs, models.FieldError{Field: "waypoints", Message: "contains an out-of-range coordinate"})
			break
		}
	}
	return errs
}

func toDomainPoints(points []models.Point) []Point {
	if points == nil {
		return nil
	}
	result := make([]Point, 0, len(points))
	for _, p := range points {
		result = append(result, Point{Lat: p.Lat, Lon: p.Lon})
	}
	return result
}

// toAPIRoute converts a domain Route to an API Route.
func (s *Service) toAPIRoute(r *Route) models.Route {
	waypoints := make([]models.Point, 0, len(r.Waypoints))
	for _, p := range r.Waypoints {
		waypoints = append(waypoints, models.Point{Lat: p.Lat, Lon: p.Lon})
	}

	return models.Route{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Origin:      models.Point{Lat: r.Origin.Lat, Lon: r.Origin.Lon},
		Destination: models.Point{Lat: r.Destination.Lat, Lon: r.Destination.Lon},
		Waypoints:   waypoints,
		CreatedAt:   models.Timestamp(r.CreatedAt),
		UpdatedAt:   models.Timestamp(r.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
