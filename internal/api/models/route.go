package models

// Route represents a saved monitored route.
type Route struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Origin      Point     `json:"origin"`
	Destination Point     `json:"destination"`
	Waypoints   []Point   `json:"waypoints"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// PagedRoutes represents a paginated list of routes.
type PagedRoutes struct {
	Items []Route           `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// RouteCreateRequest is the request body for creating a route.
type RouteCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Origin      Point   `json:"origin" validate:"required"`
	Destination Point   `json:"destination" validate:"required"`
	Waypoints   []Point `json:"waypoints,omitempty" validate:"omitempty,max=25"`
}

// RouteUpdateRequest is the request body for updating a route.
// All fields are optional; only provided fields are applied.
type RouteUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Origin      *Point  `json:"origin,omitempty"`
	Destination *Point  `json:"destination,omitempty"`
	Waypoints   []Point `json:"waypoints,omitempty" validate:"omitempty,max=25"`
}
