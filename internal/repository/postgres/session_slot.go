package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

var _ repository.SessionSlot = (*SessionSlot)(nil)

// DefaultSlotKey is the row the console session lives under.
const DefaultSlotKey = "user"

// SessionSlot implements SessionSlot as one row of the session_slot table.
type SessionSlot struct {
	db  *DB
	key string
}

// NewSessionSlot constructs a slot stored under key (DefaultSlotKey if empty).
func NewSessionSlot(db *DB, key string) *SessionSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &SessionSlot{db: db, key: key}
}

// Load selects the stored record.
func (s *SessionSlot) Load(ctx context.Context) (*model.StoredSession, error) {
	const q = `SELECT value FROM session_slot WHERE key=$1`
	var raw []byte
	if err := s.db.Pool.QueryRow(ctx, q, s.key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var ss model.StoredSession
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// Save upserts the record.
func (s *SessionSlot) Save(ctx context.Context, ss model.StoredSession) error {
	const q = `
INSERT INTO session_slot (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	raw, err := json.Marshal(ss)
	if err != nil {
		return err
	}
	_, err = s.db.Pool.Exec(ctx, q, s.key, raw)
	return err
}

// Clear deletes the row; a missing row is fine.
func (s *SessionSlot) Clear(ctx context.Context) error {
	const q = `DELETE FROM session_slot WHERE key=$1`
	_, err := s.db.Pool.Exec(ctx, q, s.key)
	return err
}
