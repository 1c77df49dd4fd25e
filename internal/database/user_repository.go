package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gobus/booking-backend/internal/models"
)

// ErrDuplicateEmail is reported when an email is already registered
var ErrDuplicateEmail = errors.New("email already registered")

const userColumns = `id, username, email, phone_number, password_hash, role, is_verified, created_at, updated_at`

// getUser fetches a user on any session; nil when not found
func getUser(q Session, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	err := q.Get(user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// UserRepository handles user database operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create registers a user account. Emails are stored lowercased and unique.
func (r *UserRepository) Create(username, email, phoneNumber, passwordHash string) (*models.User, error) {
	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PhoneNumber:  phoneNumber,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	query := `
		INSERT INTO users (username, email, phone_number, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_verified, created_at, updated_at`

	err := r.db.QueryRowx(query,
		user.Username, user.Email, user.PhoneNumber, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID. Returns nil when not found.
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	return getUser(r.db, id)
}

// GetByEmail retrieves a user by email. Returns nil when not found.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	err := r.db.Get(user, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// MarkVerified flags the user's email as verified
func (r *UserRepository) MarkVerified(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}
