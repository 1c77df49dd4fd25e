package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/models"
	"github.com/gobus/booking-backend/pkg/mailer"
	"github.com/gobus/booking-backend/pkg/validator"
)

// maxReferenceAttempts bounds reference regeneration on collision
const maxReferenceAttempts = 5

// ReservationService turns a reservation request into a durable,
// non-conflicting booking. The check-then-write sequence runs inside a
// storage transaction when the topology supports one; when it does not,
// the identical sequence is retried once without a transaction wrapper and
// the active-seat unique index becomes the last line of defense.
type ReservationService struct {
	store  database.ReservationStore
	pricer PriceCalculator
	mailer mailer.Mailer
	logger *logrus.Logger

	// genRef is swappable for deterministic tests
	genRef func() (string, error)
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	store database.ReservationStore,
	pricer PriceCalculator,
	m mailer.Mailer,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		store:  store,
		pricer: pricer,
		mailer: m,
		logger: logger,
		genRef: GenerateReference,
	}
}

// reservationInput is a validated, normalized reservation request
type reservationInput struct {
	userID     uuid.UUID
	busID      uuid.UUID
	routeID    uuid.UUID
	travelDate time.Time
	seats      []int
	notes      *string
}

// Reserve validates the request and executes the reservation, preferring a
// transactional session and falling back to a plain one exactly once when
// the storage layer reports a transient infrastructure condition.
func (s *ReservationService) Reserve(userID uuid.UUID, req *models.CreateBookingRequest) (*models.Booking, error) {
	in, err := s.buildInput(userID, req)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Begin()
	if err != nil {
		if !database.IsTransient(err) {
			return nil, fmt.Errorf("failed to open reservation session: %w", err)
		}
		s.logger.WithError(err).Warn("Transactions unavailable, reserving without transaction")
		return s.reserve(s.store.Plain(), in)
	}

	booking, err := s.reserve(sess, in)
	if err != nil && database.IsTransient(err) {
		// Single fallback hop; business failures never reach this branch
		s.logger.WithError(err).WithFields(logrus.Fields{
			"bus_id":      in.busID,
			"travel_date": in.travelDate.Format("2006-01-02"),
		}).Warn("Transactional reservation failed, retrying without transaction")
		return s.reserve(s.store.Plain(), in)
	}
	return booking, err
}

// buildInput normalizes and validates the raw request before any session opens
func (s *ReservationService) buildInput(userID uuid.UUID, req *models.CreateBookingRequest) (reservationInput, error) {
	var in reservationInput

	seats, err := validator.NormalizeSeats(req.SeatNumbers)
	if err != nil {
		return in, &models.ValidationError{Field: "seat_numbers", Message: err.Error()}
	}

	travelDate, err := parseTravelDate(req.TravelDate)
	if err != nil {
		return in, &models.ValidationError{Field: "travel_date", Message: err.Error()}
	}

	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		return in, &models.ValidationError{Field: "bus_id", Message: "must be a valid id"}
	}
	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return in, &models.ValidationError{Field: "route_id", Message: "must be a valid id"}
	}

	var notes *string
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			notes = &trimmed
		}
	}

	return reservationInput{
		userID:     userID,
		busID:      busID,
		routeID:    routeID,
		travelDate: travelDate,
		seats:      seats,
		notes:      notes,
	}, nil
}

// reserve is the single check-then-write algorithm. It never branches on
// whether sess is transactional; that decision lives entirely in Reserve.
func (s *ReservationService) reserve(sess database.ReservationSession, in reservationInput) (*models.Booking, error) {
	committed := false
	defer func() {
		if !committed {
			_ = sess.Rollback()
		}
	}()

	bus, err := sess.GetBus(in.busID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, &models.NotFoundError{Resource: "bus"}
	}

	route, err := sess.GetRoute(in.routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, &models.NotFoundError{Resource: "route"}
	}

	user, err := sess.GetUser(in.userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &models.NotFoundError{Resource: "user"}
	}

	if route.BusID != bus.ID {
		return nil, &models.ConsistencyError{Message: "route does not belong to bus"}
	}

	var overCapacity []int
	for _, seat := range in.seats {
		if seat > bus.Capacity {
			overCapacity = append(overCapacity, seat)
		}
	}
	if len(overCapacity) > 0 {
		return nil, &models.ValidationError{
			Field:   "seat_numbers",
			Message: fmt.Sprintf("invalid seat numbers: %s", joinInts(overCapacity)),
		}
	}

	taken, err := sess.TakenSeats(bus.ID, in.travelDate)
	if err != nil {
		return nil, err
	}

	var clashes []int
	for _, seat := range in.seats {
		if _, held := taken[seat]; held {
			clashes = append(clashes, seat)
		}
	}
	if len(clashes) > 0 {
		return nil, &models.SeatConflictError{Seats: clashes}
	}

	booking := &models.Booking{
		UserID:        user.ID,
		BusID:         bus.ID,
		RouteID:       route.ID,
		TravelDate:    in.travelDate,
		SeatNumbers:   models.IntArray(in.seats),
		TotalPrice:    s.pricer(bus, route, len(in.seats)),
		Status:        models.BookingStatusActive,
		PaymentStatus: models.PaymentStatusPending,
		Notes:         in.notes,
	}

	inserted := false
	for attempt := 0; attempt < maxReferenceAttempts && !inserted; attempt++ {
		reference, err := s.genRef()
		if err != nil {
			return nil, err
		}

		exists, err := sess.ReferenceExists(reference)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		booking.BookingReference = reference
		err = sess.InsertBooking(booking)
		switch {
		case err == nil:
			inserted = true
		case errors.Is(err, database.ErrDuplicateReference):
			// Lost the reference race to a concurrent writer; regenerate
			continue
		case errors.Is(err, database.ErrSeatTaken):
			return nil, s.seatTakenConflict(in)
		default:
			return nil, err
		}
	}
	if !inserted {
		return nil, fmt.Errorf("failed to generate unique booking reference after %d attempts", maxReferenceAttempts)
	}

	if err := sess.Commit(); err != nil {
		return nil, err
	}
	committed = true

	// Confirmation mail only after the booking is durable, detached from
	// the request path; delivery failure never affects the result
	s.dispatchConfirmation(user, bus, route, booking)

	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"bus_id":            bus.ID,
		"travel_date":       in.travelDate.Format("2006-01-02"),
		"seats":             booking.SeatNumbers,
	}).Info("Booking created")

	return booking, nil
}

// seatTakenConflict reports which seats clashed after a write-time
// constraint violation on the non-transactional path.
func (s *ReservationService) seatTakenConflict(in reservationInput) error {
	taken, err := s.store.Plain().TakenSeats(in.busID, in.travelDate)
	if err != nil {
		return &models.SeatConflictError{Seats: in.seats}
	}

	var clashes []int
	for _, seat := range in.seats {
		if _, held := taken[seat]; held {
			clashes = append(clashes, seat)
		}
	}
	if len(clashes) == 0 {
		clashes = in.seats
	}
	return &models.SeatConflictError{Seats: clashes}
}

func (s *ReservationService) dispatchConfirmation(user *models.User, bus *models.Bus, route *models.Route, booking *models.Booking) {
	msg := (&mailer.BookingConfirmation{
		Name:        user.Username,
		BookingRef:  booking.BookingReference,
		BusName:     bus.BusName,
		RouteName:   route.RouteName,
		TravelDate:  booking.TravelDate,
		SeatNumbers: booking.SeatNumbers,
		TotalPrice:  booking.TotalPrice,
	}).Render(user.Email)

	go func() {
		if err := s.mailer.Send(msg); err != nil {
			s.logger.WithError(err).WithField("booking_reference", booking.BookingReference).
				Warn("Failed to send confirmation email")
		}
	}()
}

// parseTravelDate parses a calendar date, discarding any time-of-day
func parseTravelDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid travel date, expected YYYY-MM-DD or an RFC 3339 timestamp")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
