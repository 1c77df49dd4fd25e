package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus represents the payment sub-state of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking represents a seat reservation for a bus on a travel date.
// SeatNumbers is a non-empty, deduplicated ascending set of positive
// integers, each within the bus capacity. The booking reference is
// generated at creation and never changes.
type Booking struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	BookingReference string        `json:"booking_reference" db:"booking_reference"`
	UserID           uuid.UUID     `json:"user_id" db:"user_id"`
	BusID            uuid.UUID     `json:"bus_id" db:"bus_id"`
	RouteID          uuid.UUID     `json:"route_id" db:"route_id"`
	TravelDate       time.Time     `json:"travel_date" db:"travel_date"`
	SeatNumbers      IntArray      `json:"seat_numbers" db:"seat_numbers"`
	TotalPrice       float64       `json:"total_price" db:"total_price"`
	Status           BookingStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	Notes            *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCancelled reports whether the booking reached its terminal state
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// CreateBookingRequest represents the inbound reservation request.
// SeatNumbers is deliberately loose ([]interface{}): clients have been
// observed sending duplicates, strings and floats, so the seat set is
// normalized server-side before any further validation.
type CreateBookingRequest struct {
	BusID       string        `json:"bus_id" binding:"required,uuid"`
	RouteID     string        `json:"route_id" binding:"required,uuid"`
	TravelDate  string        `json:"travel_date" binding:"required"`
	SeatNumbers []interface{} `json:"seat_numbers" binding:"required"`
	Notes       *string       `json:"notes,omitempty"`
}

// BookingFilter narrows admin booking listings
type BookingFilter struct {
	UserID        *uuid.UUID
	BusID         *uuid.UUID
	RouteID       *uuid.UUID
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
	TravelDate    *time.Time
}

// BookingList is a paginated booking listing
type BookingList struct {
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Bookings   []Booking `json:"bookings"`
}
