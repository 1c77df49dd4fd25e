package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gobus/booking-backend/internal/models"
)

// RefreshTokenRepository persists refresh tokens keyed by their SHA-256
// hash. Tokens expire and are revocable, so session validity never depends
// on process-lifetime memory.
type RefreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Store persists a refresh token hash with its session metadata
func (r *RefreshTokenRepository) Store(
	userID uuid.UUID,
	token string,
	deviceType, ipAddress, userAgent string,
	expiresAt time.Time,
) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, device_type, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	var deviceTypeVal, ipVal, userAgentVal interface{}
	if deviceType != "" {
		deviceTypeVal = deviceType
	}
	if ipAddress != "" {
		ipVal = ipAddress
	}
	if userAgent != "" {
		userAgentVal = userAgent
	}

	_, err := r.db.Exec(query, userID, hashToken(token), deviceTypeVal, ipVal, userAgentVal, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get retrieves a refresh token record by the raw token. Returns nil when
// the token is unknown.
func (r *RefreshTokenRepository) Get(token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken

	query := `
		SELECT id, user_id, token_hash, device_type, ip_address, user_agent,
		       created_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	err := r.db.Get(&refreshToken, query, hashToken(token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &refreshToken, nil
}

// Revoke revokes a specific refresh token
func (r *RefreshTokenRepository) Revoke(token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE token_hash = $2 AND revoked = FALSE`

	result, err := r.db.Exec(query, time.Now(), hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("token not found or already revoked")
	}
	return nil
}

// RevokeAllForUser revokes every active token for a user
func (r *RefreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE`

	_, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpired removes refresh tokens past their expiry
func (r *RefreshTokenRepository) CleanupExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}
