package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/models"
)

func newBookingServiceTest(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewBookingService(database.NewBookingRepository(db), logger), mock
}

func bookingRows(id uuid.UUID, status models.BookingStatus, paymentStatus models.PaymentStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "booking_reference", "user_id", "bus_id", "route_id", "travel_date",
		"seat_numbers", "total_price", "status", "payment_status", "notes",
		"created_at", "updated_at",
	}).AddRow(
		id, "BK-20250301-A1B2C3D4E5", uuid.New(), uuid.New(), uuid.New(),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"{5,6}", 20.0, status, paymentStatus, nil, now, now,
	)
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("Cancels Active Booking", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t)
		id := uuid.New()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRows(id, models.BookingStatusActive, models.PaymentStatusPending))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE booking_seats`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		booking, err := svc.Cancel(id)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Cancelled Is A No-Op", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t)
		id := uuid.New()

		// Only the read is expected; no update statements follow
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRows(id, models.BookingStatusCancelled, models.PaymentStatusPending))

		booking, err := svc.Cancel(id)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t)
		id := uuid.New()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.Cancel(id)
		var notFoundErr *models.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, "booking", notFoundErr.Resource)
	})
}

func TestBookingService_MarkPaid(t *testing.T) {
	t.Run("Flips Payment Status", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t)
		id := uuid.New()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRows(id, models.BookingStatusActive, models.PaymentStatusPending))

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.MarkPaid(id)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t)
		id := uuid.New()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.MarkPaid(id)
		var notFoundErr *models.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}
