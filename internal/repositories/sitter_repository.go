package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
)

const sitterColumns = `id, name, image, phone_number, email_address, created_at, updated_at`

// hydrateBatchSize keeps IN (...) lists under SQLite's bound parameter limit
const hydrateBatchSize = 500

// SitterRepository persists sitters and their ordered stay references.
// Every sitter it returns has its stays resolved and its scores recomputed
// from them; the stored score columns only exist for filtering and sorting.
type SitterRepository struct {
	db *sql.DB
}

// NewSitterRepository creates a new sitter repository
func NewSitterRepository(db *sql.DB) *SitterRepository {
	return &SitterRepository{db: db}
}

// Create inserts a sitter together with its stay references
func (r *SitterRepository) Create(sitter *models.Sitter) error {
	now := time.Now()
	sitter.CreatedAt = now
	sitter.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sitters (
			id, name, image, phone_number, email_address,
			ratings_score, overall_sitter_rank, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		sitter.ID,
		sitter.Name,
		sitter.Image,
		sitter.PhoneNumber,
		sitter.EmailAddress,
		sitter.RatingsScore(),
		sitter.OverallSitterRank(),
		sitter.CreatedAt,
		sitter.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertStayRefs(tx, sitter); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a sitter by ID with its stays resolved
func (r *SitterRepository) GetByID(id string) (*models.Sitter, error) {
	query := `SELECT ` + sitterColumns + ` FROM sitters WHERE id = ?`
	return r.getOne(query, id)
}

// GetByEmail retrieves a sitter by email address
func (r *SitterRepository) GetByEmail(email string) (*models.Sitter, error) {
	query := `SELECT ` + sitterColumns + ` FROM sitters WHERE email_address = ?`
	return r.getOne(query, email)
}

// FindMatching returns sitters whose identity fields all equal the given ones
func (r *SitterRepository) FindMatching(name, phoneNumber, emailAddress, image string) ([]*models.Sitter, error) {
	query := `
		SELECT ` + sitterColumns + `
		FROM sitters
		WHERE name = ? AND phone_number = ? AND email_address = ? AND image = ?
		ORDER BY id
	`
	return r.getMany(query, name, phoneNumber, emailAddress, image)
}

// GetAll lists sitters filtered and ordered by q
func (r *SitterRepository) GetAll(q models.SitterQuery) ([]*models.Sitter, error) {
	q.Normalize()

	var (
		conditions []string
		args       []interface{}
	)

	if q.Search != "" {
		conditions = append(conditions, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	if q.MinRank != nil {
		conditions = append(conditions, `overall_sitter_rank >= ?`)
		args = append(args, *q.MinRank)
	}

	query := `SELECT ` + sitterColumns + ` FROM sitters`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY ` + orderClause(q) + ` LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	return r.getMany(query, args...)
}

// ListIDs returns the ID of every sitter
func (r *SitterRepository) ListIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM sitters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// GetSitterIDsByStayID returns the sitters whose history references stayID
func (r *SitterRepository) GetSitterIDsByStayID(stayID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT sitter_id FROM sitter_stays WHERE stay_id = ? ORDER BY sitter_id`, stayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Update writes identity fields and the derived score columns
func (r *SitterRepository) Update(sitter *models.Sitter) error {
	sitter.UpdatedAt = time.Now()

	query := `
		UPDATE sitters SET
			name = ?, image = ?, phone_number = ?, email_address = ?,
			ratings_score = ?, overall_sitter_rank = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		sitter.Name,
		sitter.Image,
		sitter.PhoneNumber,
		sitter.EmailAddress,
		sitter.RatingsScore(),
		sitter.OverallSitterRank(),
		sitter.UpdatedAt,
		sitter.ID,
	)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// SaveStays rewrites the stay references and derived score columns in a
// single transaction so readers never see one without the other.
func (r *SitterRepository) SaveStays(sitter *models.Sitter) error {
	return r.inTx(func(tx *sql.Tx) error {
		return saveStays(tx, sitter)
	})
}

// AttachStay saves sitter's stay references, saves detached when it is not
// nil, and points the stay row at sitter, all in one transaction.
func (r *SitterRepository) AttachStay(sitter *models.Sitter, stayID string, detached *models.Sitter) error {
	return r.inTx(func(tx *sql.Tx) error {
		if err := saveStays(tx, sitter); err != nil {
			return err
		}
		if detached != nil {
			if err := saveStays(tx, detached); err != nil {
				return err
			}
		}

		result, err := tx.Exec(`UPDATE stays SET sitter_id = ?, updated_at = ? WHERE id = ?`, sitter.ID, time.Now(), stayID)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ReleaseStay saves sitter's stay references and clears the stay's sitter
// when it still points at sitter, in one transaction.
func (r *SitterRepository) ReleaseStay(sitter *models.Sitter, stayID string) error {
	return r.inTx(func(tx *sql.Tx) error {
		if err := saveStays(tx, sitter); err != nil {
			return err
		}

		_, err := tx.Exec(`UPDATE stays SET sitter_id = NULL, updated_at = ? WHERE id = ? AND sitter_id = ?`, time.Now(), stayID, sitter.ID)
		return err
	})
}

// Delete deletes a sitter by ID; its stay references go with it
func (r *SitterRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sitters WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *SitterRepository) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SitterRepository) getOne(query string, args ...interface{}) (*models.Sitter, error) {
	sitter, err := scanSitter(r.db.QueryRow(query, args...))
	if err != nil {
		return nil, err
	}

	if err := r.hydrateStays([]*models.Sitter{sitter}); err != nil {
		return nil, err
	}

	return sitter, nil
}

func (r *SitterRepository) getMany(query string, args ...interface{}) ([]*models.Sitter, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sitters := []*models.Sitter{}
	for rows.Next() {
		sitter, err := scanSitter(rows)
		if err != nil {
			return nil, err
		}
		sitters = append(sitters, sitter)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.hydrateStays(sitters); err != nil {
		return nil, err
	}

	return sitters, nil
}

// hydrateStays resolves the stay references of every sitter with one query
// per batch and recomputes their scores from the resolved stays.
func (r *SitterRepository) hydrateStays(sitters []*models.Sitter) error {
	byID := make(map[string][]*models.Stay, len(sitters))

	for start := 0; start < len(sitters); start += hydrateBatchSize {
		end := start + hydrateBatchSize
		if end > len(sitters) {
			end = len(sitters)
		}
		batch := sitters[start:end]

		args := make([]interface{}, len(batch))
		for i, sitter := range batch {
			args[i] = sitter.ID
		}

		query := `
			SELECT ss.sitter_id, s.id, s.sitter_id, s.owner_id, s.pets, s.start_date, s.end_date,
			       s.rating, s.review, s.created_at, s.updated_at
			FROM sitter_stays ss
			INNER JOIN stays s ON s.id = ss.stay_id
			WHERE ss.sitter_id IN (` + placeholders(len(batch)) + `)
			ORDER BY ss.sitter_id, ss.position
		`

		if err := r.collectStays(query, args, byID); err != nil {
			return err
		}
	}

	for _, sitter := range sitters {
		sitter.ReplaceStays(byID[sitter.ID])
	}

	return nil
}

func (r *SitterRepository) collectStays(query string, args []interface{}, byID map[string][]*models.Stay) error {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ownerSitterID string
		stay := &models.Stay{}
		err := rows.Scan(
			&ownerSitterID,
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
			return err
		}
		byID[ownerSitterID] = append(byID[ownerSitterID], stay)
	}

	return rows.Err()
}

func saveStays(tx *sql.Tx, sitter *models.Sitter) error {
	sitter.UpdatedAt = time.Now()

	result, err := tx.Exec(`
		UPDATE sitters SET ratings_score = ?, overall_sitter_rank = ?, updated_at = ?
		WHERE id = ?
	`, sitter.RatingsScore(), sitter.OverallSitterRank(), sitter.UpdatedAt, sitter.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM sitter_stays WHERE sitter_id = ?`, sitter.ID); err != nil {
		return err
	}

	return insertStayRefs(tx, sitter)
}

func insertStayRefs(tx *sql.Tx, sitter *models.Sitter) error {
	stmt, err := tx.Prepare(`INSERT INTO sitter_stays (sitter_id, position, stay_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for position, stayID := range sitter.StayIDs() {
		if _, err := stmt.Exec(sitter.ID, position, stayID); err != nil {
			return err
		}
	}

	return nil
}

func scanSitter(row scanner) (*models.Sitter, error) {
	sitter := &models.Sitter{}
	err := row.Scan(
		&sitter.ID,
		&sitter.Name,
		&sitter.Image,
		&sitter.PhoneNumber,
		&sitter.EmailAddress,
		&sitter.CreatedAt,
		&sitter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sitter, nil
}

func orderClause(q models.SitterQuery) string {
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	switch q.Sort {
	case models.SortByName:
		return "name COLLATE NOCASE " + direction + ", id"
	case models.SortByRatings:
		return "ratings_score " + direction + ", name COLLATE NOCASE, id"
	default:
		return "overall_sitter_rank " + direction + ", name COLLATE NOCASE, id"
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
