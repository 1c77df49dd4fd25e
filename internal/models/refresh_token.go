package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a persisted refresh token. Only the SHA-256 hash
// of the token is stored; the raw token never touches the database.
type RefreshToken struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"`
	DeviceType *string    `json:"device_type,omitempty" db:"device_type"`
	IPAddress  *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	Revoked    bool       `json:"revoked" db:"revoked"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// IsExpired reports whether the token passed its expiry
func (t *RefreshToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}
