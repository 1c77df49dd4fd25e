package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/models"
)

// BusHandler handles bus fleet endpoints
type BusHandler struct {
	buses  *database.BusRepository
	routes *database.RouteRepository
	logger *logrus.Logger
}

// NewBusHandler creates a new BusHandler
func NewBusHandler(buses *database.BusRepository, routes *database.RouteRepository, logger *logrus.Logger) *BusHandler {
	return &BusHandler{buses: buses, routes: routes, logger: logger}
}

// CreateBus registers a bus (admin)
// POST /api/v1/buses
func (h *BusHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bus, err := h.buses.Create(&req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateBusNumber) {
			c.JSON(http.StatusConflict, gin.H{"error": "Bus number already exists"})
			return
		}
		h.logger.WithError(err).Error("Failed to create bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithField("bus_number", bus.BusNumber).Info("Bus created")
	c.JSON(http.StatusCreated, gin.H{"message": "Bus created", "bus": bus})
}

// ListBuses lists buses with pagination
// GET /api/v1/buses
func (h *BusHandler) ListBuses(c *gin.Context) {
	page, limit := parsePagination(c, 20)

	buses, total, err := h.buses.List(page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"buses": buses,
	})
}

// GetBus retrieves a bus with its routes
// GET /api/v1/buses/:id
func (h *BusHandler) GetBus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return
	}

	bus, err := h.buses.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if bus == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	routes, err := h.routes.GetByBusID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch bus routes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bus": bus, "routes": routes})
}

// UpdateBus applies a partial update to a bus (admin)
// PUT /api/v1/buses/:id
func (h *BusHandler) UpdateBus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return
	}

	var req models.UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bus, err := h.buses.Update(id, &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if bus == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bus updated", "bus": bus})
}

// DeleteBus removes a bus (admin)
// DELETE /api/v1/buses/:id
func (h *BusHandler) DeleteBus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return
	}

	if err := h.buses.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bus deleted"})
}
