package storage

import (
	"context"
	"database/sql"
	"errors"

	"boardx/internal/domain"
)

// SettingsStore is a small key/value table for app state that outlives a session.
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored value for key and whether it exists.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.Conn().GetContext(ctx, &v, `SELECT value FROM app_settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.NewStorageError("get setting", err)
	}
	return v, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return domain.NewStorageError("set setting", err)
}
