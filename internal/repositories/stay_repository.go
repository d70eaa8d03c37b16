package repositories

import (
	"database/sql"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
)

const stayColumns = `id, sitter_id, owner_id, pets, start_date, end_date, rating, review, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

type StayRepository struct {
	db *sql.DB
}

// NewStayRepository creates a new stay repository
func NewStayRepository(db *sql.DB) *StayRepository {
	return &StayRepository{db: db}
}

// Create creates a new stay
func (r *StayRepository) Create(stay *models.Stay) error {
	now := time.Now()
	stay.CreatedAt = now
	stay.UpdatedAt = now

	query := `
		INSERT INTO stays (` + stayColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		stay.ID,
		stay.SitterID,
		stay.OwnerID,
		stay.Pets,
		stay.StartDate,
		stay.EndDate,
		stay.Rating,
		stay.Review,
		stay.CreatedAt,
		stay.UpdatedAt,
	)
	return err
}

// GetByID retrieves a stay by ID
func (r *StayRepository) GetByID(id string) (*models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays WHERE id = ?`
	return scanStay(r.db.QueryRow(query, id))
}

// GetAll retrieves all stays, newest first
func (r *StayRepository) GetAll() ([]*models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays ORDER BY start_date DESC, id`
	return r.queryStays(query)
}

// GetBySitterID retrieves every stay whose sitter is sitterID
func (r *StayRepository) GetBySitterID(sitterID string) ([]*models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays WHERE sitter_id = ? ORDER BY start_date DESC, id`
	return r.queryStays(query, sitterID)
}

// GetByOwnerID retrieves every stay booked by ownerID
func (r *StayRepository) GetByOwnerID(ownerID string) ([]*models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays WHERE owner_id = ? ORDER BY start_date DESC, id`
	return r.queryStays(query, ownerID)
}

// Update updates an existing stay
func (r *StayRepository) Update(stay *models.Stay) error {
	stay.UpdatedAt = time.Now()

	query := `
		UPDATE stays SET
			sitter_id = ?, owner_id = ?, pets = ?, start_date = ?, end_date = ?,
			rating = ?, review = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		stay.SitterID,
		stay.OwnerID,
		stay.Pets,
		stay.StartDate,
		stay.EndDate,
		stay.Rating,
		stay.Review,
		stay.UpdatedAt,
		stay.ID,
	)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// Delete deletes a stay by ID
func (r *StayRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM stays WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *StayRepository) queryStays(query string, args ...interface{}) ([]*models.Stay, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stays := []*models.Stay{}
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, err
		}
		stays = append(stays, stay)
	}

	return stays, rows.Err()
}

func scanStay(row scanner) (*models.Stay, error) {
	stay := &models.Stay{}
	err := row.Scan(
		&stay.ID,
		&stay.SitterID,
		&stay.OwnerID,
		&stay.Pets,
		&stay.StartDate,
		&stay.EndDate,
		&stay.Rating,
		&stay.Review,
		&stay.CreatedAt,
		&stay.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return stay, nil
}

// requireAffected maps "no rows touched" to sql.ErrNoRows
func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
