package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobus/booking-backend/internal/models"
)

func newTestBookingHandler() *BookingHandler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &BookingHandler{logger: logger}
}

func TestRespondReservationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestBookingHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "Validation Error",
			err:        &models.ValidationError{Field: "seat_numbers", Message: "invalid seat numbers: 50"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Not Found Error",
			err:        &models.NotFoundError{Resource: "bus"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Consistency Error",
			err:        &models.ConsistencyError{Message: "route does not belong to bus"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Seat Conflict",
			err:        &models.SeatConflictError{Seats: []int{6}},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Unexpected Error Stays Opaque",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			h.respondReservationError(c, tt.err)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

func TestRespondReservationError_SeatConflictBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestBookingHandler()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	h.respondReservationError(c, &models.SeatConflictError{Seats: []int{6, 12}})

	var body struct {
		Error string `json:"error"`
		Seats []int  `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Seats already booked", body.Error)
	assert.Equal(t, []int{6, 12}, body.Seats)
}

func TestRespondReservationError_InternalDetailsHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestBookingHandler()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	h.respondReservationError(c, errors.New("pq: password authentication failed for user postgres"))

	assert.NotContains(t, recorder.Body.String(), "postgres")
	assert.Contains(t, recorder.Body.String(), "Server error")
}
