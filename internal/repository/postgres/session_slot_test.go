package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/prismcms/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func sample() model.StoredSession {
	return model.StoredSession{
		User:      model.SessionUser{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: model.RoleAdmin},
		Token:     "jwt",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSessionSlot_Load_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionSlot(db, "")

	raw, err := json.Marshal(sample())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT value FROM session_slot WHERE key=\$1`).
		WithArgs(DefaultSlotKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(raw))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "admin@example.com", got.User.Email)
	require.True(t, got.ExpiresAt.Equal(sample().ExpiresAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSlot_Load_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionSlot(db, "console")

	mock.ExpectQuery(`SELECT value FROM session_slot WHERE key=\$1`).
		WithArgs("console").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSessionSlot_Load_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionSlot(db, "")

	boom := errors.New("conn reset")
	mock.ExpectQuery(`SELECT value FROM session_slot`).WithArgs(DefaultSlotKey).WillReturnError(boom)

	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestSessionSlot_Save(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionSlot(db, "")

	raw, err := json.Marshal(sample())
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO session_slot \(key, value, updated_at\)`).
		WithArgs(DefaultSlotKey, raw).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), sample()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSlot_Clear(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionSlot(db, "")

	mock.ExpectExec(`DELETE FROM session_slot WHERE key=\$1`).
		WithArgs(DefaultSlotKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
