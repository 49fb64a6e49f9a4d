package session

import (
	"database/sql"

	"github.com/desertthunder/statify/internal/repositories"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/patrickmn/go-cache"
)

const (
	TokenKey    = "access_token"
	PlaylistKey = "my_playlist"
)

// Store is the key-value persistence the session and playlist are built on.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear(key string) error
}

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) Clear(key string) error {
	m.c.Delete(key)
	return nil
}

// SQLStore is a [Store] over the kv_store table.
type SQLStore struct {
	db   *sql.DB
	repo *repositories.KeyValueRepository
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, repo: repositories.NewKeyValueRepository(db)}
}

// OpenSQLStore opens (creating if needed) and migrates the session database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: path, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) Get(key string) (string, bool, error) { return s.repo.Get(key) }

func (s *SQLStore) Set(key, value string) error { return s.repo.Set(key, value) }

func (s *SQLStore) Clear(key string) error { return s.repo.Delete(key) }

func (s *SQLStore) Close() error {
	return s.db.Close()
}
