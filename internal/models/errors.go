package models

import (
	"fmt"
	"strings"
)

// ValidationError indicates malformed input. It is never retried and is
// reported to the caller with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ConsistencyError indicates referenced entities do not belong together,
// e.g. a route that is not served by the requested bus.
type ConsistencyError struct {
	Message string
}

func (e *ConsistencyError) Error() string {
	return e.Message
}

// SeatConflictError indicates one or more requested seats are already held
// by an active booking. Seats lists the clashing seat numbers so the caller
// can offer alternatives.
type SeatConflictError struct {
	Seats []int
}

func (e *SeatConflictError) Error() string {
	parts := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf("seats already booked: %s", strings.Join(parts, ","))
}
