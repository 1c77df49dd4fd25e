package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobus/booking-backend/internal/models"
)

func newMockRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewBookingRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func testBooking() *models.Booking {
	return &models.Booking{
		BookingReference: "BK-20250301-A1B2C3D4E5",
		UserID:           uuid.New(),
		BusID:            uuid.New(),
		RouteID:          uuid.New(),
		TravelDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SeatNumbers:      models.IntArray{5, 6},
		TotalPrice:       20,
		Status:           models.BookingStatusActive,
		PaymentStatus:    models.PaymentStatusPending,
	}
}

func TestBookingSession_TakenSeats(t *testing.T) {
	repo, mock := newMockRepo(t)
	busID := uuid.New()
	travelDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT unnest\(seat_numbers\)`).
		WithArgs(busID, travelDate).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(5).AddRow(6).AddRow(12))

	taken, err := repo.Plain().TakenSeats(busID, travelDate)
	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{5: {}, 6: {}, 12: {}}, taken)
}

func TestBookingSession_InsertBooking(t *testing.T) {
	t.Run("Writes Booking And Seat Claims", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		booking := testBooking()
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 5).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 6).
			WillReturnResult(sqlmock.NewResult(2, 1))

		err := repo.Plain().InsertBooking(booking)
		require.NoError(t, err)
		assert.Equal(t, id, booking.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reference Collision", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_booking_reference_key"})

		err := repo.Plain().InsertBooking(testBooking())
		assert.ErrorIs(t, err, ErrDuplicateReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Claim Collision Deletes Partial Booking", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		booking := testBooking()
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 5).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 6).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_active_booking_seat"})
		// Without a transaction the booking row is already durable; the losing
		// attempt must leave nothing behind or it would shadow the seats in
		// every later availability snapshot.
		mock.ExpectExec(`DELETE FROM booking_seats WHERE booking_id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Plain().InsertBooking(booking)
		assert.ErrorIs(t, err, ErrSeatTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Savepoint Keeps Transaction Usable After Collision", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		booking := testBooking()
		id := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		// First attempt collides on the reference index; a failed statement
		// aborts a Postgres transaction, so the attempt must be fenced by a
		// savepoint for the regeneration retry to run on the same session.
		mock.ExpectExec(`SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_booking_reference_key"})
		mock.ExpectExec(`ROLLBACK TO SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectExec(`SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 5).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 6).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec(`RELEASE SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		sess, err := repo.Begin()
		require.NoError(t, err)

		err = sess.InsertBooking(booking)
		require.ErrorIs(t, err, ErrDuplicateReference)

		booking.BookingReference = "BK-20250301-0F0F0F0F0F"
		require.NoError(t, sess.InsertBooking(booking))
		require.NoError(t, sess.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Transaction Rollback Needs No Compensation", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		booking := testBooking()
		id := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(id, booking.BusID, booking.TravelDate, 5).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_active_booking_seat"})
		mock.ExpectExec(`ROLLBACK TO SAVEPOINT insert_booking`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		sess, err := repo.Begin()
		require.NoError(t, err)

		err = sess.InsertBooking(booking)
		require.ErrorIs(t, err, ErrSeatTaken)
		require.NoError(t, sess.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_Begin(t *testing.T) {
	t.Run("Opens Transactional Session", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		sess, err := repo.Begin()
		require.NoError(t, err)
		require.NoError(t, sess.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Maps Unsupported Topology", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin().WillReturnError(&pq.Error{Code: "0A000"})

		_, err := repo.Begin()
		assert.ErrorIs(t, err, ErrTransactionsUnsupported)
	})
}

func TestBookingSession_ReferenceExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_reference`).
		WithArgs("BK-20250301-A1B2C3D4E5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.Plain().ReferenceExists("BK-20250301-A1B2C3D4E5")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBookingRepository_GetByReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM bookings WHERE booking_reference`).
		WithArgs("BK-20250301-FFFFFF").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	booking, err := repo.GetByReference("BK-20250301-FFFFFF")
	require.NoError(t, err)
	assert.Nil(t, booking)
}

func TestBookingRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	status := models.BookingStatusActive

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = \$1`).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	now := time.Now()
	mock.ExpectQuery(`FROM bookings WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(status, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_reference", "user_id", "bus_id", "route_id", "travel_date",
			"seat_numbers", "total_price", "status", "payment_status", "notes",
			"created_at", "updated_at",
		}).AddRow(
			uuid.New(), "BK-20250301-A1B2C3D4E5", uuid.New(), uuid.New(), uuid.New(),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			"{5,6}", 20.0, status, models.PaymentStatusPending, nil, now, now,
		))

	list, err := repo.List(models.BookingFilter{Status: &status}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Bookings, 1)
	assert.Equal(t, models.IntArray{5, 6}, list.Bookings[0].SeatNumbers)
}
