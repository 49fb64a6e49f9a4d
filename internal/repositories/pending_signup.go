package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

// PendingSignupRepository implements [models.Repository] for [models.PendingSignup] records
// in the pending_users table.
type PendingSignupRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.PendingSignup] = (*PendingSignupRepository)(nil)

// NewPendingSignupRepository creates a new [PendingSignupRepository] with the given database connection
func NewPendingSignupRepository(db *sql.DB) *PendingSignupRepository {
	return &PendingSignupRepository{db: db}
}

// Create validates and inserts a record, assigning it a generated ID.
//
// Invalid records are rejected before anything is written.
func (r *PendingSignupRepository) Create(signup *models.PendingSignup) error {
	if err := signup.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	id := shared.GenerateID()

	_, err := r.db.Exec(
		`INSERT INTO pending_users (id, email, timestamp) VALUES (?, ?, ?)`,
		id, signup.Email(), signup.Timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pending signup: %w", err)
	}

	signup.SetID(id)
	return nil
}

// Get retrieves a record by ID.
func (r *PendingSignupRepository) Get(id string) (*models.PendingSignup, error) {
	var (
		email     string
		timestamp time.Time
	)

	err := r.db.QueryRow(`SELECT email, timestamp FROM pending_users WHERE id = ?`, id).Scan(&email, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pending signup %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending signup: %w", err)
	}

	return models.RestorePendingSignup(id, email, timestamp), nil
}

// Delete removes exactly the record with the given ID.
func (r *PendingSignupRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM pending_users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending signup: %w", err)
	}
	return affectedOne(result, "pending signup", id)
}

// List returns records newest first. Supported criteria: "email" (exact match).
func (r *PendingSignupRepository) List(criteria map[string]any) ([]*models.PendingSignup, error) {
	query := `SELECT id, email, timestamp FROM pending_users`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " WHERE email = ?"
		args = append(args, email)
	}

	query += " ORDER BY timestamp DESC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending signups: %w", err)
	}
	defer rows.Close()

	signups := []*models.PendingSignup{}
	for rows.Next() {
		var (
			id        string
			email     string
			timestamp time.Time
		)
		if err := rows.Scan(&id, &email, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan pending signup: %w", err)
		}
		signups = append(signups, models.RestorePendingSignup(id, email, timestamp))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return signups, nil
}

// Count returns the number of stored records.
func (r *PendingSignupRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pending_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending signups: %w", err)
	}
	return n, nil
}
