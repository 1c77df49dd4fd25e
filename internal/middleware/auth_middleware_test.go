package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobus/booking-backend/pkg/jwt"
)

func newTestRouter(jwtService *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	protected := router.Group("/protected")
	protected.Use(AuthMiddleware(jwtService))
	{
		protected.GET("/me", func(c *gin.Context) {
			userCtx, _ := GetUserContext(c)
			c.JSON(http.StatusOK, gin.H{"email": userCtx.Email})
		})

		admin := protected.Group("")
		admin.Use(RequireRole("admin"))
		admin.GET("/admin", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}

	return router
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	router := newTestRouter(jwtService)

	t.Run("Valid Token", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "amal@example.com", "user")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "amal@example.com")
	})

	t.Run("Missing Header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/me", nil)
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/me", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Refresh Token Rejected On Access Paths", func(t *testing.T) {
		token, err := jwtService.GenerateRefreshToken(uuid.New(), "amal@example.com")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	router := newTestRouter(jwtService)

	t.Run("Admin Allowed", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "admin@example.com", "admin")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("User Forbidden", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "amal@example.com", "user")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
