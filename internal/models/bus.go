package models

import (
	"time"

	"github.com/google/uuid"
)

// Bus represents a vehicle that serves routes and accepts seat bookings
type Bus struct {
	ID          uuid.UUID `json:"id" db:"id"`
	BusName     string    `json:"bus_name" db:"bus_name"`
	BusNumber   string    `json:"bus_number" db:"bus_number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateBusRequest represents the request to register a bus
type CreateBusRequest struct {
	BusName     string  `json:"bus_name" binding:"required"`
	BusNumber   string  `json:"bus_number" binding:"required"`
	Capacity    int     `json:"capacity" binding:"required,min=1"`
	Description *string `json:"description,omitempty"`
}

// UpdateBusRequest represents a partial bus update
type UpdateBusRequest struct {
	BusName     *string `json:"bus_name,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	Description *string `json:"description,omitempty"`
}
