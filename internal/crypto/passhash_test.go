package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestRandBytes(t *testing.T) {
	t.Parallel()

	a, err := RandBytes(SaltLen)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	b, _ := RandBytes(SaltLen)
	if len(a) != SaltLen || bytes.Equal(a, b) {
		t.Fatalf("salts must be %d random bytes: %x %x", SaltLen, a, b)
	}
	if bytes.Equal(a, make([]byte, SaltLen)) {
		t.Fatalf("all zero salt")
	}
}

func TestHashPassword_DependsOnBothInputs(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")
	base := HashPassword([]byte("editor-pass"), salt)
	if len(base) != int(argonKeyLen) {
		t.Fatalf("hash len=%d", len(base))
	}
	if !bytes.Equal(base, HashPassword([]byte("editor-pass"), salt)) {
		t.Fatalf("same input must give the same hash")
	}
	for name, h := range map[string][]byte{
		"other salt":     HashPassword([]byte("editor-pass"), []byte("fedcba9876543210")),
		"other password": HashPassword([]byte("editor-pass!"), salt),
	} {
		if bytes.Equal(base, h) {
			t.Fatalf("%s: hash did not change", name)
		}
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, salt, err := NewPasswordHash("s3cret-pass")
	if err != nil {
		t.Fatalf("NewPasswordHash: %v", err)
	}
	if len(salt) != SaltLen {
		t.Fatalf("salt len=%d, want %d", len(salt), SaltLen)
	}

	cases := []struct {
		name     string
		password string
		salt     []byte
		hash     []byte
		want     bool
	}{
		{"match", "s3cret-pass", salt, hash, true},
		{"wrong password", "s3cret-pas", salt, hash, false},
		{"wrong salt", "s3cret-pass", []byte("another-salt-16b"), hash, false},
		{"empty password", "", salt, hash, false},
		{"account without password", "s3cret-pass", salt, nil, false},
	}
	for _, c := range cases {
		if got := VerifyPassword([]byte(c.password), c.salt, c.hash); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestToken(t *testing.T) {
	t.Parallel()

	a, err := Token(24)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	b, _ := Token(24)
	if a == b || len(a) != 32 {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
	if _, err := base64.RawURLEncoding.DecodeString(a); err != nil {
		t.Fatalf("token is not url-safe base64: %v", err)
	}
}
