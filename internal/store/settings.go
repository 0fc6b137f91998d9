package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/creature-forge/internal/domain"
)

// Setting returns the raw JSON value stored under key. An absent key returns
// ErrSettingNotFound rather than a default: the caller decides on initial
// values, not the store.
func (s *Store) Setting(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSettingNotFound
		}
		return nil, fmt.Errorf("%w: getting setting %q: %v", domain.ErrStoreRead, key, err)
	}
	return json.RawMessage(value), nil
}

// IntSetting reads a setting and decodes it as an integer
func (s *Store) IntSetting(ctx context.Context, key string) (int, error) {
	raw, err := s.Setting(ctx, key)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: decoding setting %q: %v", domain.ErrStoreRead, key, err)
	}
	return n, nil
}

// PutSetting inserts or replaces the value stored under key
func (s *Store) PutSetting(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding setting %q: %v", domain.ErrStoreWrite, key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("%w: putting setting %q: %v", domain.ErrStoreWrite, key, err)
	}
	return nil
}

// getIntSettingTx reads an integer setting inside an open transaction
func getIntSettingTx(ctx context.Context, tx *sql.Tx, key string) (int, error) {
	var value string
	err := tx.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrSettingNotFound
		}
		return 0, err
	}
	var n int
	if err := json.Unmarshal([]byte(value), &n); err != nil {
		return 0, fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return n, nil
}

// putIntSettingTx upserts an integer setting inside an open transaction
func putIntSettingTx(ctx context.Context, tx *sql.Tx, key string, n int) error {
	encoded, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(encoded),
	)
	return err
}
