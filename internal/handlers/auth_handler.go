package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/gobus/booking-backend/internal/database"
	"github.com/gobus/booking-backend/internal/models"
	"github.com/gobus/booking-backend/pkg/jwt"
	"github.com/gobus/booking-backend/pkg/mailer"
)

// AuthHandler handles registration, login and token lifecycle endpoints
type AuthHandler struct {
	users      *database.UserRepository
	tokens     *database.RefreshTokenRepository
	jwtService *jwt.Service
	mailer     mailer.Mailer
	logger     *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	users *database.UserRepository,
	tokens *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	m mailer.Mailer,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
		mailer:     m,
		logger:     logger,
	}
}

// Register creates a user account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	user, err := h.users.Create(req.Username, req.Email, req.PhoneNumber, string(passwordHash))
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	// Welcome mail is best-effort; registration does not wait on SMTP
	msg := (&mailer.Welcome{Name: user.Username}).Render(user.Email)
	go func() {
		if err := h.mailer.Send(msg); err != nil {
			h.logger.WithError(err).WithField("email", user.Email).Warn("Failed to send welcome email")
		}
	}()

	h.logger.WithField("email", user.Email).Info("User registered")
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "user": user})
}

// Login verifies credentials and issues an access/refresh token pair
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	response, err := h.issueTokens(c, user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithField("email", user.Email).Info("User logged in")
	c.JSON(http.StatusOK, response)
}

// Refresh rotates a refresh token and issues a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	stored, err := h.tokens.Get(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if stored == nil || stored.Revoked || stored.IsExpired() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	user, err := h.users.GetByID(claims.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	// Rotation: the presented token is single-use
	if err := h.tokens.Revoke(req.RefreshToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	response, err := h.issueTokens(c, user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the presented refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.tokens.Revoke(req.RefreshToken); err != nil {
		// Already revoked or unknown; logout is idempotent from the client's view
		h.logger.WithError(err).Debug("Refresh token revoke skipped")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// issueTokens generates an access/refresh pair and persists the refresh
// token hash along with the client's device metadata.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	rawUA := c.Request.UserAgent()
	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())
	if err := h.tokens.Store(user.ID, refreshToken, deviceType(rawUA), c.ClientIP(), rawUA, expiresAt); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// deviceType classifies a User-Agent header for session records
func deviceType(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := user_agent.New(rawUA)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}
