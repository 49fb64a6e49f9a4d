package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KeyValueRepository persists string values by key in the kv_store table.
type KeyValueRepository struct {
	db *sql.DB
}

// NewKeyValueRepository creates a new [KeyValueRepository].
func NewKeyValueRepository(db *sql.DB) *KeyValueRepository {
	return &KeyValueRepository{db: db}
}

// Get returns the value for key and whether it exists.
func (r *KeyValueRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (r *KeyValueRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error.
func (r *KeyValueRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
