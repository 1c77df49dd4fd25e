package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/middleware"
	"github.com/gobus/booking-backend/internal/models"
	"github.com/gobus/booking-backend/internal/services"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	reservations *services.ReservationService
	lifecycle    *services.BookingService
	bookingRepo  *database.BookingRepository
	logger       *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	reservations *services.ReservationService,
	lifecycle *services.BookingService,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		reservations: reservations,
		lifecycle:    lifecycle,
		bookingRepo:  bookingRepo,
		logger:       logger,
	}
}

// CreateBooking reserves seats on a bus for a travel date
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.reservations.Reserve(userCtx.UserID, &req)
	if err != nil {
		h.respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Booking created", "booking": booking})
}

// respondReservationError maps the reservation error taxonomy onto HTTP
func (h *BookingHandler) respondReservationError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var notFoundErr *models.NotFoundError
	var consistencyErr *models.ConsistencyError
	var conflictErr *models.SeatConflictError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &consistencyErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": consistencyErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Seats already booked", "seats": conflictErr.Seats})
	default:
		h.logger.WithError(err).Error("Reservation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}

// GetSeatAvailability reports the seats held for a bus on a travel date
// GET /api/v1/buses/:id/seats?date=2025-03-01
func (h *BookingHandler) GetSeatAvailability(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid date query parameter required (YYYY-MM-DD)"})
		return
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	taken, err := h.bookingRepo.Plain().TakenSeats(busID, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load seat availability")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	seats := make([]int, 0, len(taken))
	for seat := range taken {
		seats = append(seats, seat)
	}
	sort.Ints(seats)

	c.JSON(http.StatusOK, gin.H{
		"bus_id":      busID,
		"travel_date": date.Format("2006-01-02"),
		"taken_seats": seats,
	})
}

// ListBookings lists bookings with filters and pagination (admin)
// GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c, 20)

	var filter models.BookingFilter
	if raw := c.Query("user_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.UserID = &id
		}
	}
	if raw := c.Query("bus_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.BusID = &id
		}
	}
	if raw := c.Query("route_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.RouteID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("payment_status"); raw != "" {
		status := models.PaymentStatus(raw)
		filter.PaymentStatus = &status
	}
	if raw := c.Query("date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			filter.TravelDate = &d
		}
	}

	list, err := h.bookingRepo.List(filter, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetBooking retrieves a single booking (owner or admin)
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.bookingRepo.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.UserID != userCtx.UserID && !userCtx.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// MyBookings lists the authenticated user's bookings
// GET /api/v1/bookings/mine
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookings, err := h.bookingRepo.GetByUserID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

// CancelBooking cancels a booking (owner or admin). Re-cancelling an
// already cancelled booking succeeds without mutation.
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	existing, err := h.bookingRepo.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if existing.UserID != userCtx.UserID && !userCtx.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	booking, err := h.lifecycle.Cancel(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to cancel booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": booking})
}

// MarkPaid flips a booking's payment status to paid (admin)
// POST /api/v1/bookings/:id/paid
func (h *BookingHandler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.lifecycle.MarkPaid(id)
	if err != nil {
		var notFoundErr *models.NotFoundError
		if errors.As(err, &notFoundErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update payment status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment updated", "booking": booking})
}

// parsePagination extracts page/limit query parameters with bounds
func parsePagination(c *gin.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
