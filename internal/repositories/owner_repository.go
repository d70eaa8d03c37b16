package repositories

import (
	"database/sql"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
)

type OwnerRepository struct {
	db *sql.DB
}

// NewOwnerRepository creates a new owner repository
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Create creates a new owner
func (r *OwnerRepository) Create(owner *models.Owner) error {
	now := time.Now()
	owner.CreatedAt = now
	owner.UpdatedAt = now

	query := `
		INSERT INTO owners (
			id, name, image, phone_number, email_address, pets, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, owner.ID, owner.Name, owner.Image, owner.PhoneNumber,
		owner.EmailAddress, owner.Pets, owner.CreatedAt, owner.UpdatedAt)
	return err
}

// GetByID retrieves an owner by ID
func (r *OwnerRepository) GetByID(id string) (*models.Owner, error) {
	query := `
		SELECT id, name, image, phone_number, email_address, pets, created_at, updated_at
		FROM owners WHERE id = ?
	`

	owner := &models.Owner{}
	err := r.db.QueryRow(query, id).Scan(
		&owner.ID, &owner.Name, &owner.Image, &owner.PhoneNumber,
		&owner.EmailAddress, &owner.Pets, &owner.CreatedAt, &owner.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return owner, nil
}

// GetAll retrieves all owners ordered by name
func (r *OwnerRepository) GetAll() ([]*models.Owner, error) {
	query := `
		SELECT id, name, image, phone_number, email_address, pets, created_at, updated_at
		FROM owners ORDER BY name COLLATE NOCASE, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []*models.Owner{}
	for rows.Next() {
		owner := &models.Owner{}
		err := rows.Scan(
			&owner.ID, &owner.Name, &owner.Image, &owner.PhoneNumber,
			&owner.EmailAddress, &owner.Pets, &owner.CreatedAt, &owner.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}

	return owners, rows.Err()
}

// Update updates an existing owner
func (r *OwnerRepository) Update(owner *models.Owner) error {
	owner.UpdatedAt = time.Now()

	query := `
		UPDATE owners SET
			name = ?, image = ?, phone_number = ?, email_address = ?, pets = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, owner.Name, owner.Image, owner.PhoneNumber,
		owner.EmailAddress, owner.Pets, owner.UpdatedAt, owner.ID)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// Delete deletes an owner by ID. Stays keep their history with owner_id cleared.
func (r *OwnerRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM owners WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}
