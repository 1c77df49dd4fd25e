package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gobus/booking-backend/internal/models"
)

var (
	// ErrDuplicateReference is reported when a booking insert collides on
	// the booking_reference unique index. Callers regenerate and retry.
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrSeatTaken is reported when a booking insert collides on the
	// active-seat unique index, the write-time backstop against
	// double-booking on the non-transactional path.
	ErrSeatTaken = errors.New("seat already held by an active booking")
)

const bookingColumns = `id, booking_reference, user_id, bus_id, route_id, travel_date,
       seat_numbers, total_price, status, payment_status, notes, created_at, updated_at`

// ReservationSession is the capability the reservation algorithm runs
// against. It is either a live transaction or a pass-through over the plain
// connection pool; the algorithm itself never knows which.
type ReservationSession interface {
	GetBus(id uuid.UUID) (*models.Bus, error)
	GetRoute(id uuid.UUID) (*models.Route, error)
	GetUser(id uuid.UUID) (*models.User, error)
	TakenSeats(busID uuid.UUID, travelDate time.Time) (map[int]struct{}, error)
	ReferenceExists(reference string) (bool, error)
	InsertBooking(booking *models.Booking) error
	Commit() error
	Rollback() error
}

// ReservationStore opens reservation sessions. Begin may fail with
// ErrTransactionsUnsupported depending on the deployment topology.
type ReservationStore interface {
	Begin() (ReservationSession, error)
	Plain() ReservationSession
}

// BookingRepository handles booking database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Begin opens a transactional reservation session
func (r *BookingRepository) Begin() (ReservationSession, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		if IsTransient(err) {
			return nil, ErrTransactionsUnsupported
		}
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &bookingSession{q: tx, tx: tx}, nil
}

// Plain opens a pass-through session over the connection pool. Commit and
// Rollback are no-ops; the active-seat unique index is the only remaining
// double-booking defense on this path.
func (r *BookingRepository) Plain() ReservationSession {
	return &bookingSession{q: r.db}
}

// bookingSession runs reservation reads/writes on a Session. tx is nil for
// the pass-through mode.
type bookingSession struct {
	q  Session
	tx *sqlx.Tx
}

func (s *bookingSession) GetBus(id uuid.UUID) (*models.Bus, error) {
	return getBus(s.q, id)
}

func (s *bookingSession) GetRoute(id uuid.UUID) (*models.Route, error) {
	return getRoute(s.q, id)
}

func (s *bookingSession) GetUser(id uuid.UUID) (*models.User, error) {
	return getUser(s.q, id)
}

// TakenSeats computes the availability snapshot: the union of seat numbers
// across active bookings for the bus and travel date. Always computed fresh
// inside the session so the check-then-write window stays closed when a
// transaction is active.
func (s *bookingSession) TakenSeats(busID uuid.UUID, travelDate time.Time) (map[int]struct{}, error) {
	var seats []int
	query := `
		SELECT DISTINCT unnest(seat_numbers) AS seat_number
		FROM bookings
		WHERE bus_id = $1 AND travel_date = $2 AND status = 'active'`

	err := s.q.Select(&seats, query, busID, travelDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load taken seats: %w", err)
	}

	taken := make(map[int]struct{}, len(seats))
	for _, seat := range seats {
		taken[seat] = struct{}{}
	}
	return taken, nil
}

// ReferenceExists checks whether a booking reference is already in use
func (s *bookingSession) ReferenceExists(reference string) (bool, error) {
	var count int
	err := s.q.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, reference)
	if err != nil {
		return false, fmt.Errorf("failed to check reference uniqueness: %w", err)
	}
	return count > 0, nil
}

// InsertBooking writes the booking row and one active seat-claim row per
// seat. Unique-index collisions are mapped to ErrDuplicateReference and
// ErrSeatTaken so the orchestrator can react without parsing driver errors.
//
// The two failure modes need different repair. In a transaction a failed
// INSERT poisons the connection (every later statement fails with 25P02),
// so each attempt runs inside a savepoint that is rolled back on failure;
// the orchestrator's regeneration loop stays usable. Without a transaction
// the booking row is durable the moment it is written, so a later seat-claim
// failure must delete it again: an orphaned active row would feed its whole
// seat set into every future availability snapshot for that (bus, date).
func (s *bookingSession) InsertBooking(booking *models.Booking) error {
	if s.tx != nil {
		if _, err := s.q.Exec(`SAVEPOINT insert_booking`); err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}
	}

	query := `
		INSERT INTO bookings (
			booking_reference, user_id, bus_id, route_id, travel_date,
			seat_numbers, total_price, status, payment_status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := s.q.QueryRowx(query,
		booking.BookingReference, booking.UserID, booking.BusID, booking.RouteID,
		booking.TravelDate, booking.SeatNumbers, booking.TotalPrice,
		booking.Status, booking.PaymentStatus, booking.Notes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		s.releaseFailedInsert(uuid.Nil)
		if isUniqueViolation(err, "bookings_booking_reference_key") {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for _, seat := range booking.SeatNumbers {
		_, err = s.q.Exec(`
			INSERT INTO booking_seats (booking_id, bus_id, travel_date, seat_number, active)
			VALUES ($1, $2, $3, $4, TRUE)`,
			booking.ID, booking.BusID, booking.TravelDate, seat)
		if err != nil {
			s.releaseFailedInsert(booking.ID)
			if isUniqueViolation(err, "uniq_active_booking_seat") {
				return ErrSeatTaken
			}
			return fmt.Errorf("failed to claim seat %d: %w", seat, err)
		}
	}

	if s.tx != nil {
		if _, err := s.q.Exec(`RELEASE SAVEPOINT insert_booking`); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", err)
		}
	}
	return nil
}

// releaseFailedInsert undoes a partially applied InsertBooking. In a
// transaction the savepoint rollback discards the attempt and keeps the
// transaction usable. Without one, the already-committed rows are deleted;
// bookingID is uuid.Nil when the booking row itself never landed.
func (s *bookingSession) releaseFailedInsert(bookingID uuid.UUID) {
	if s.tx != nil {
		_, _ = s.q.Exec(`ROLLBACK TO SAVEPOINT insert_booking`)
		return
	}
	if bookingID == uuid.Nil {
		return
	}
	_, _ = s.q.Exec(`DELETE FROM booking_seats WHERE booking_id = $1`, bookingID)
	_, _ = s.q.Exec(`DELETE FROM bookings WHERE id = $1`, bookingID)
}

// Commit commits the underlying transaction; a no-op in pass-through mode
func (s *bookingSession) Commit() error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the underlying transaction; a no-op in pass-through mode
func (s *bookingSession) Rollback() error {
	if s.tx == nil {
		return nil
	}
	return s.tx.Rollback()
}

// ============================================================================
// BOOKING QUERIES
// ============================================================================

// GetByID retrieves a booking by ID. Returns nil when not found.
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	err := r.db.Get(booking, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetByReference retrieves a booking by its reference. Returns nil when not found.
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE booking_reference = $1`, bookingColumns)

	err := r.db.Get(booking, query, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, bookingColumns)

	err := r.db.Select(&bookings, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user bookings: %w", err)
	}
	return bookings, nil
}

// List retrieves bookings matching the filter with pagination
func (r *BookingRepository) List(filter models.BookingFilter, page, limit int) (*models.BookingList, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.UserID != nil {
		addCondition("user_id", *filter.UserID)
	}
	if filter.BusID != nil {
		addCondition("bus_id", *filter.BusID)
	}
	if filter.RouteID != nil {
		addCondition("route_id", *filter.RouteID)
	}
	if filter.Status != nil {
		addCondition("status", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		addCondition("payment_status", *filter.PaymentStatus)
	}
	if filter.TravelDate != nil {
		addCondition("travel_date", *filter.TravelDate)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM bookings`+where, args...); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	offset := (page - 1) * limit
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.BookingList{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		Bookings:   bookings,
	}, nil
}

// ============================================================================
// LIFECYCLE MUTATIONS
// ============================================================================

// Cancel flips a booking to cancelled and deactivates its seat claims in one
// transaction, so the seats become available on the next availability read.
func (r *BookingRepository) Cancel(id uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE booking_seats
		SET active = FALSE
		WHERE booking_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to release seat claims: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkPaid flips the payment sub-state to paid
func (r *BookingRepository) MarkPaid(id uuid.UUID) error {
	_, err := r.db.Exec(`
		UPDATE bookings
		SET payment_status = 'paid', updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}
