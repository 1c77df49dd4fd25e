package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobus/booking-backend/internal/models"
)

func newMockUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewUserRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("Stores Lowercased Email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("amal", "amal@example.com", "+94771234567", "hashed", models.RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"id", "is_verified", "created_at", "updated_at"}).
				AddRow(id, false, now, now))

		user, err := repo.Create("amal", "  Amal@Example.COM ", "+94771234567", "hashed")
		require.NoError(t, err)
		assert.Equal(t, "amal@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Equal(t, id, user.ID)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Create("amal", "amal@example.com", "+94771234567", "hashed")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("Normalizes Lookup", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`FROM users WHERE email = \$1`).
			WithArgs("amal@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "phone_number", "password_hash",
				"role", "is_verified", "created_at", "updated_at",
			}).AddRow(id, "amal", "amal@example.com", "+94771234567", "hashed", "user", true, now, now))

		user, err := repo.GetByEmail("Amal@Example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, id, user.ID)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery(`FROM users WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.GetByEmail("nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
