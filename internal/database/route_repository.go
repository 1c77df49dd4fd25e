package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gobus/booking-backend/internal/models"
)

const routeColumns = `id, route_name, start_location, end_location, distance_km, bus_id, created_at, updated_at`

// getRoute fetches a route on any session; nil when not found
func getRoute(q Session, id uuid.UUID) (*models.Route, error) {
	route := &models.Route{}
	query := fmt.Sprintf(`SELECT %s FROM routes WHERE id = $1`, routeColumns)

	err := q.Get(route, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	return route, nil
}

// RouteRepository handles route database operations
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create adds a route served by a bus
func (r *RouteRepository) Create(req *models.CreateRouteRequest, busID uuid.UUID) (*models.Route, error) {
	route := &models.Route{
		RouteName:     req.RouteName,
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		DistanceKM:    req.DistanceKM,
		BusID:         busID,
	}

	query := `
		INSERT INTO routes (route_name, start_location, end_location, distance_km, bus_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(query,
		route.RouteName, route.StartLocation, route.EndLocation, route.DistanceKM, route.BusID,
	).Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return route, nil
}

// GetByID retrieves a route by ID. Returns nil when not found.
func (r *RouteRepository) GetByID(id uuid.UUID) (*models.Route, error) {
	return getRoute(r.db, id)
}

// GetByBusID retrieves all routes served by a bus
func (r *RouteRepository) GetByBusID(busID uuid.UUID) ([]models.Route, error) {
	var routes []models.Route
	query := fmt.Sprintf(`SELECT %s FROM routes WHERE bus_id = $1 ORDER BY route_name`, routeColumns)

	if err := r.db.Select(&routes, query, busID); err != nil {
		return nil, fmt.Errorf("failed to fetch routes for bus: %w", err)
	}
	return routes, nil
}

// List retrieves routes with pagination
func (r *RouteRepository) List(page, limit int) ([]models.Route, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM routes`); err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	offset := (page - 1) * limit
	var routes []models.Route
	query := fmt.Sprintf(`SELECT %s FROM routes ORDER BY created_at DESC LIMIT $1 OFFSET $2`, routeColumns)
	if err := r.db.Select(&routes, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	return routes, total, nil
}

// Update applies a partial update to a route
func (r *RouteRepository) Update(id uuid.UUID, req *models.UpdateRouteRequest) (*models.Route, error) {
	query := `
		UPDATE routes
		SET route_name = COALESCE($1, route_name),
		    start_location = COALESCE($2, start_location),
		    end_location = COALESCE($3, end_location),
		    distance_km = COALESCE($4, distance_km),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING ` + routeColumns

	route := &models.Route{}
	err := r.db.Get(route, query, req.RouteName, req.StartLocation, req.EndLocation, req.DistanceKM, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update route: %w", err)
	}
	return route, nil
}

// Delete removes a route
func (r *RouteRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
