package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/models"
)

// BookingService owns booking state transitions after creation. Cancelled
// is a terminal absorbing state; the payment sub-state moves independently.
// Authorization (owner or admin) is enforced by the caller.
type BookingService struct {
	bookings *database.BookingRepository
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(bookings *database.BookingRepository, logger *logrus.Logger) *BookingService {
	return &BookingService{bookings: bookings, logger: logger}
}

// Cancel transitions a booking to cancelled. Cancelling an already
// cancelled booking is a no-op, not an error. The cancelled seats become
// available again through the availability query's status filter; no
// separate seat-release step exists.
func (s *BookingService) Cancel(id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &models.NotFoundError{Resource: "booking"}
	}

	if booking.IsCancelled() {
		return booking, nil
	}

	if err := s.bookings.Cancel(id); err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatusCancelled

	s.logger.WithField("booking_reference", booking.BookingReference).Info("Booking cancelled")
	return booking, nil
}

// MarkPaid transitions the payment sub-state to paid. No cross-check
// against cancellation is applied here; callers layer any such policy.
func (s *BookingService) MarkPaid(id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &models.NotFoundError{Resource: "booking"}
	}

	if err := s.bookings.MarkPaid(id); err != nil {
		return nil, err
	}
	booking.PaymentStatus = models.PaymentStatusPaid

	return booking, nil
}
