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

// RouteHandler handles route endpoints
type RouteHandler struct {
	routes *database.RouteRepository
	buses  *database.BusRepository
	logger *logrus.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routes *database.RouteRepository, buses *database.BusRepository, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, buses: buses, logger: logger}
}

// CreateRoute adds a route served by an existing bus (admin)
// POST /api/v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return
	}

	bus, err := h.buses.GetByID(busID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if bus == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	route, err := h.routes.Create(&req, busID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithField("route_name", route.RouteName).Info("Route created")
	c.JSON(http.StatusCreated, gin.H{"message": "Route created", "route": route})
}

// ListRoutes lists routes with pagination
// GET /api/v1/routes
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	page, limit := parsePagination(c, 20)

	routes, total, err := h.routes.List(page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list routes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":   page,
		"limit":  limit,
		"total":  total,
		"routes": routes,
	})
}

// GetRoute retrieves a single route
// GET /api/v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route id"})
		return
	}

	route, err := h.routes.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": route})
}

// UpdateRoute applies a partial update to a route (admin)
// PUT /api/v1/routes/:id
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route id"})
		return
	}

	var req models.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	route, err := h.routes.Update(id, &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route updated", "route": route})
}

// DeleteRoute removes a route (admin)
// DELETE /api/v1/routes/:id
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route id"})
		return
	}

	if err := h.routes.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route deleted"})
}
