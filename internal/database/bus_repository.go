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

// ErrDuplicateBusNumber is reported when a bus number is already registered
var ErrDuplicateBusNumber = errors.New("bus number already exists")

const busColumns = `id, bus_name, bus_number, capacity, description, created_at, updated_at`

// getBus fetches a bus on any session; nil when not found. Shared with the
// reservation session so the in-transaction lookup uses the same SQL.
func getBus(q Session, id uuid.UUID) (*models.Bus, error) {
	bus := &models.Bus{}
	query := fmt.Sprintf(`SELECT %s FROM buses WHERE id = $1`, busColumns)

	err := q.Get(bus, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch bus: %w", err)
	}
	return bus, nil
}

// BusRepository handles bus database operations
type BusRepository struct {
	db *sqlx.DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *sqlx.DB) *BusRepository {
	return &BusRepository{db: db}
}

// Create registers a bus. Bus numbers are stored normalized and unique.
func (r *BusRepository) Create(req *models.CreateBusRequest) (*models.Bus, error) {
	bus := &models.Bus{
		BusName:     req.BusName,
		BusNumber:   strings.ToUpper(strings.TrimSpace(req.BusNumber)),
		Capacity:    req.Capacity,
		Description: req.Description,
	}

	query := `
		INSERT INTO buses (bus_name, bus_number, capacity, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(query, bus.BusName, bus.BusNumber, bus.Capacity, bus.Description).
		Scan(&bus.ID, &bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "buses_bus_number_key") {
			return nil, ErrDuplicateBusNumber
		}
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return bus, nil
}

// GetByID retrieves a bus by ID. Returns nil when not found.
func (r *BusRepository) GetByID(id uuid.UUID) (*models.Bus, error) {
	return getBus(r.db, id)
}

// List retrieves buses with pagination
func (r *BusRepository) List(page, limit int) ([]models.Bus, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM buses`); err != nil {
		return nil, 0, fmt.Errorf("failed to count buses: %w", err)
	}

	offset := (page - 1) * limit
	var buses []models.Bus
	query := fmt.Sprintf(`SELECT %s FROM buses ORDER BY created_at DESC LIMIT $1 OFFSET $2`, busColumns)
	if err := r.db.Select(&buses, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list buses: %w", err)
	}

	return buses, total, nil
}

// Update applies a partial update to a bus
func (r *BusRepository) Update(id uuid.UUID, req *models.UpdateBusRequest) (*models.Bus, error) {
	query := `
		UPDATE buses
		SET bus_name = COALESCE($1, bus_name),
		    capacity = COALESCE($2, capacity),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $4
		RETURNING ` + busColumns

	bus := &models.Bus{}
	err := r.db.Get(bus, query, req.BusName, req.Capacity, req.Description, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update bus: %w", err)
	}
	return bus, nil
}

// Delete removes a bus
func (r *BusRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM buses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bus: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
