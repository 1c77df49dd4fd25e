package models

import (
	"time"

	"github.com/google/uuid"
)

// Route represents a named journey served by a specific bus
type Route struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RouteName     string    `json:"route_name" db:"route_name"`
	StartLocation string    `json:"start_location" db:"start_location"`
	EndLocation   string    `json:"end_location" db:"end_location"`
	DistanceKM    float64   `json:"distance_km" db:"distance_km"`
	BusID         uuid.UUID `json:"bus_id" db:"bus_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRouteRequest represents the request to create a route
type CreateRouteRequest struct {
	RouteName     string  `json:"route_name" binding:"required"`
	StartLocation string  `json:"start_location" binding:"required"`
	EndLocation   string  `json:"end_location" binding:"required"`
	DistanceKM    float64 `json:"distance_km" binding:"required,gt=0"`
	BusID         string  `json:"bus_id" binding:"required,uuid"`
}

// UpdateRouteRequest represents a partial route update
type UpdateRouteRequest struct {
	RouteName     *string  `json:"route_name,omitempty"`
	StartLocation *string  `json:"start_location,omitempty"`
	EndLocation   *string  `json:"end_location,omitempty"`
	DistanceKM    *float64 `json:"distance_km,omitempty"`
}
