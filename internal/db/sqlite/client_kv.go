package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

const (
	selectKVQuery = `SELECT value FROM kv_store WHERE key = ?`
	upsertKVQuery = `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
)

// GetKV returns the stored document, or an empty string when the key was never written.
func (s *sqliteClient) GetKV(ctx context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var value string
	switch err := s.db.GetContext(ctx, &value, selectKVQuery, key); {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", errors.Wrapf(err, "get kv %q", key)
	}
	return value, nil
}

func (s *sqliteClient) SetKV(ctx context.Context, key string, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.db.ExecContext(ctx, upsertKVQuery, key, value, time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "set kv %q", key)
	}
	return nil
}
