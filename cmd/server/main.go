package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gobus/booking-backend/internal/config"
	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/handlers"
	"github.com/gobus/booking-backend/internal/middleware"
	"github.com/gobus/booking-backend/internal/services"
	"github.com/gobus/booking-backend/pkg/jwt"
	"github.com/gobus/booking-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting GoBus Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	busRepository := database.NewBusRepository(db)
	routeRepository := database.NewRouteRepository(db)
	bookingRepository := database.NewBookingRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mailService mailer.Mailer
	if cfg.Mail.Mode == "smtp" {
		logger.Info("Initializing SMTP mailer")
		mailService = mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	} else {
		logger.Info("Mailer in development mode (no actual mail will be sent)")
		mailService = mailer.NewDevMailer(logger)
	}

	reservationService := services.NewReservationService(
		bookingRepository,
		services.FlatRate(cfg.Booking.SeatRate),
		mailService,
		logger,
	)
	bookingService := services.NewBookingService(bookingRepository, logger)

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepository, refreshTokenRepository, jwtService, mailService, logger)
	busHandler := handlers.NewBusHandler(busRepository, routeRepository, logger)
	routeHandler := handlers.NewRouteHandler(routeRepository, busRepository, logger)
	bookingHandler := handlers.NewBookingHandler(reservationService, bookingService, bookingRepository, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// Bus routes (reads public, writes admin)
		buses := v1.Group("/buses")
		{
			buses.GET("", busHandler.ListBuses)
			buses.GET("/:id", busHandler.GetBus)
			buses.GET("/:id/seats", bookingHandler.GetSeatAvailability)

			busesAdmin := buses.Group("")
			busesAdmin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole("admin"))
			{
				busesAdmin.POST("", busHandler.CreateBus)
				busesAdmin.PUT("/:id", busHandler.UpdateBus)
				busesAdmin.DELETE("/:id", busHandler.DeleteBus)
			}
		}

		// Route routes (reads public, writes admin)
		routes := v1.Group("/routes")
		{
			routes.GET("", routeHandler.ListRoutes)
			routes.GET("/:id", routeHandler.GetRoute)

			routesAdmin := routes.Group("")
			routesAdmin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole("admin"))
			{
				routesAdmin.POST("", routeHandler.CreateRoute)
				routesAdmin.PUT("/:id", routeHandler.UpdateRoute)
				routesAdmin.DELETE("/:id", routeHandler.DeleteRoute)
			}
		}

		// Booking routes (all protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/mine", bookingHandler.MyBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)

			bookingsAdmin := bookings.Group("")
			bookingsAdmin.Use(middleware.RequireRole("admin"))
			{
				bookingsAdmin.GET("", bookingHandler.ListBookings)
				bookingsAdmin.POST("/:id/paid", bookingHandler.MarkPaid)
			}
		}
	}

	// Periodic cleanup of expired refresh tokens
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := refreshTokenRepository.CleanupExpired()
				if err != nil {
					logger.WithError(err).Warn("Refresh token cleanup failed")
					continue
				}
				if removed > 0 {
					logger.WithField("removed", removed).Info("Expired refresh tokens cleaned up")
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db interface{ Ping() error }) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
