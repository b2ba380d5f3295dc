package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/prismcms/internal/clock"
	pkgcrypto "github.com/and161185/prismcms/internal/crypto"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository/memory"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newIdentity(t *testing.T, users []model.DirectoryUser) (*IdentityStore, *memory.UserDirectory, *fakeSlot, *clock.Fake) {
	t.Helper()
	dir := memory.NewUserDirectory(users)
	slot := &fakeSlot{}
	clk := clock.NewFake(t0)
	s := NewIdentityStore(dir, slot, clk, []byte("k"), time.Hour, zaptest.NewLogger(t))
	return s, dir, slot, clk
}

func TestIdentity_Login_EmptyFields(t *testing.T) {
	t.Parallel()
	s, _, slot, _ := newIdentity(t, nil)

	for _, c := range [][2]string{{"", "x"}, {"a@b.c", ""}, {"", ""}} {
		if _, err := s.Login(context.Background(), c[0], c[1]); !errors.Is(err, errs.ErrAuth) {
			t.Fatalf("Login(%q,%q) want ErrAuth, got %v", c[0], c[1], err)
		}
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("no session expected after failed logins")
	}
	if slot.saves != 0 {
		t.Fatalf("slot must not be written, saves=%d", slot.saves)
	}
}

func TestIdentity_Login_DefaultProfile(t *testing.T) {
	t.Parallel()
	s, _, slot, _ := newIdentity(t, nil)

	u, err := s.Login(context.Background(), "a@b.c", "x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Email != "a@b.c" || u.Role != model.RoleAdmin || u.Name != "Admin User" || u.ID != "1" {
		t.Fatalf("unexpected user: %+v", u)
	}
	cur, ok := s.Current()
	if !ok || cur != u {
		t.Fatalf("Current mismatch: %+v ok=%v", cur, ok)
	}
	if slot.stored == nil || slot.stored.User != u || slot.stored.Token != s.Token() {
		t.Fatalf("slot not written: %+v", slot.stored)
	}
	if !slot.stored.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expiry want %v, got %v", t0.Add(time.Hour), slot.stored.ExpiresAt)
	}
}

func TestIdentity_Login_DirectoryProfile(t *testing.T) {
	t.Parallel()
	s, dir, _, _ := newIdentity(t, []model.DirectoryUser{
		{ID: "u2", Name: "Jane Smith", Email: "jane@example.com", Role: model.RoleEditor, Status: model.UserActive},
	})

	u, err := s.Login(context.Background(), "JANE@example.com", "whatever")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != "u2" || u.Role != model.RoleEditor || u.Name != "Jane Smith" {
		t.Fatalf("directory profile not used: %+v", u)
	}
	got, _ := dir.Get(context.Background(), "u2")
	if got.LastLogin == nil || !got.LastLogin.Equal(t0) {
		t.Fatalf("LastLogin not stamped: %v", got.LastLogin)
	}
}

func TestIdentity_Register(t *testing.T) {
	t.Parallel()
	s, dir, _, _ := newIdentity(t, nil)
	ctx := context.Background()

	if _, err := s.Register(ctx, "", "a@b.c", "pw"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty name, got %v", err)
	}
	if _, err := s.Register(ctx, "Ann", "", "pw"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty email, got %v", err)
	}

	u, err := s.Register(ctx, "Ann", "ann@example.com", "secret-pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "Ann" || u.Email != "ann@example.com" || u.Role != model.RoleAdmin || u.ID == "" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if cur, ok := s.Current(); !ok || cur.ID != u.ID {
		t.Fatalf("register must sign in")
	}

	du, _ := dir.GetByEmail(ctx, "ann@example.com")
	if du == nil {
		t.Fatalf("directory entry missing")
	}
	if !pkgcrypto.VerifyPassword([]byte("secret-pw"), du.Salt, du.PasswordHash) {
		t.Fatalf("password hash does not verify")
	}

	if _, err := s.Register(ctx, "Ann 2", "ANN@example.com", "x"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestIdentity_Logout(t *testing.T) {
	t.Parallel()
	s, _, slot, _ := newIdentity(t, nil)
	ctx := context.Background()

	if _, err := s.Login(ctx, "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	tok := s.Token()
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("session must be cleared")
	}
	if slot.stored != nil || slot.clears != 1 {
		t.Fatalf("slot must be cleared: %+v clears=%d", slot.stored, slot.clears)
	}
	if _, err := s.Verify(tok); !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("token must be rejected after logout, got %v", err)
	}
	// idempotent
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestIdentity_RequestPasswordReset(t *testing.T) {
	t.Parallel()
	s, _, _, _ := newIdentity(t, nil)

	if err := s.RequestPasswordReset(context.Background(), ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if err := s.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
}

func TestIdentity_Verify(t *testing.T) {
	t.Parallel()
	s, _, _, clk := newIdentity(t, nil)

	if _, err := s.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	sub, err := s.Verify(s.Token())
	if err != nil || sub != "1" {
		t.Fatalf("Verify: sub=%q err=%v", sub, err)
	}

	if _, err := s.Verify("not-a-jwt"); !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("want ErrAuth on garbage, got %v", err)
	}

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}).SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(other); !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("want ErrAuth on foreign key, got %v", err)
	}

	clk.Set(t0.Add(2 * time.Hour))
	if _, err := s.Verify(s.Token()); !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("want ErrAuth on expired token, got %v", err)
	}
}

func TestIdentity_Restore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	first, _, slot, clk := newIdentity(t, nil)
	if _, err := first.Login(ctx, "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	second := NewIdentityStore(nil, slot, clk, []byte("k"), time.Hour, zaptest.NewLogger(t))
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	cur, ok := second.Current()
	if !ok || cur.Email != "a@b.c" {
		t.Fatalf("session not restored: %+v", cur)
	}
	if _, err := second.Verify(second.Token()); err != nil {
		t.Fatalf("restored token must verify: %v", err)
	}
}

func TestIdentity_Restore_DiscardsExpiredOrForeign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	first, _, slot, clk := newIdentity(t, nil)
	if _, err := first.Login(ctx, "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	foreign := NewIdentityStore(nil, slot, clk, []byte("rotated"), time.Hour, nil)
	if err := foreign.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := foreign.Current(); ok {
		t.Fatalf("session signed by another key must be discarded")
	}
	if slot.stored != nil {
		t.Fatalf("slot must be cleared")
	}

	if _, err := first.Login(ctx, "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	clk.Set(t0.Add(2 * time.Hour))
	late := NewIdentityStore(nil, slot, clk, []byte("k"), time.Hour, nil)
	if err := late.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := late.Current(); ok {
		t.Fatalf("expired session must be discarded")
	}
}

func TestIdentity_Restore_Empty(t *testing.T) {
	t.Parallel()
	s, _, _, _ := newIdentity(t, nil)
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("no session expected")
	}

	boom := errors.New("disk")
	s.slot = &fakeSlot{loadErr: boom}
	if err := s.Restore(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want load error, got %v", err)
	}
}

func TestIdentity_SlotSaveFailureKeepsSession(t *testing.T) {
	t.Parallel()
	slot := &fakeSlot{saveErr: errors.New("read-only")}
	s := NewIdentityStore(nil, slot, clock.NewFake(t0), []byte("k"), 0, zaptest.NewLogger(t))

	if _, err := s.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := s.Current(); !ok {
		t.Fatalf("session must stand when the slot write fails")
	}
}
