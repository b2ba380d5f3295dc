package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/and161185/prismcms/internal/model"
)

func TestDefaultPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got := DefaultPath("session.json")
	if got != filepath.Join(dir, "prismcms", "session.json") {
		t.Fatalf("DefaultPath=%q", got)
	}
}

func TestSlot_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewSlot(filepath.Join(t.TempDir(), "nested", "session.json"))

	ss, err := s.Load(ctx)
	if err != nil || ss != nil {
		t.Fatalf("empty slot: ss=%v err=%v", ss, err)
	}

	want := model.StoredSession{
		User:      model.SessionUser{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: model.RoleAdmin},
		Token:     "tok",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("perm=%v, want 0600", st.Mode().Perm())
	}

	got, err := s.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load: got=%v err=%v", got, err)
	}
	if got.User != want.User || got.Token != want.Token || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if got, _ := s.Load(ctx); got != nil {
		t.Fatalf("slot not cleared")
	}
}

func TestSlot_CorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSlot(p).Load(context.Background()); err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("want decode error, got %v", err)
	}
}
