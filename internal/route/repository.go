package route

import "context"

// ListOptions contains options for listing routes.
type ListOptions struct {
	Limit int

	// Cursor is the ID of the last route on the previous page; listing
	// resumes after it. An unknown cursor yields an empty page.
	Cursor string
}

// ListResult contains the results of listing routes.
type ListResult struct {
	Items      []*Route
	NextCursor string
}

// Repository defines the interface for route data persistence.
type Repository interface {
	// Get retrieves a route by ID. Returns ErrRouteNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Route, error)

	// List retrieves all routes with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create creates a new route.
	Create(ctx context.Context, route *Route) error

	// Update updates an existing route.
	Update(ctx context.Context, route *Route) error

	// Delete deletes a route by ID.
	Delete(ctx context.Context, id string) error
}
