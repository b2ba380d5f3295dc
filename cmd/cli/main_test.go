package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "prismcms")
}

func Test_tokenPath(t *testing.T) {
	base := withTmpConfig(t)
	if got := tokenPath(); got != filepath.Join(base, "token.json") {
		t.Fatalf("tokenPath=%q", got)
	}
}

func Test_token_SaveLoadRemove(t *testing.T) {
	_ = withTmpConfig(t)
	now := time.Now()

	if _, err := loadToken(now); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in, got %v", err)
	}
	if err := saveToken(tokenFile{Token: "tok", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	tok, err := loadToken(now)
	if err != nil || tok != "tok" {
		t.Fatalf("loadToken: tok=%q err=%v", tok, err)
	}
	if _, err := loadToken(now.Add(2 * time.Minute)); err == nil {
		t.Fatalf("want error for expired token")
	}

	fi, err := os.Stat(tokenPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode %v", fi.Mode().Perm())
	}

	if err := removeToken(); err != nil {
		t.Fatalf("removeToken: %v", err)
	}
	if err := removeToken(); err != nil {
		t.Fatalf("second removeToken: %v", err)
	}
}

func Test_tokenExpiry(t *testing.T) {
	t.Parallel()
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if got := tokenExpiry(tok, time.Time{}); !got.Equal(exp) {
		t.Fatalf("exp=%v want %v", got, exp)
	}

	fallback := time.Unix(42, 0)
	if got := tokenExpiry("not-a-jwt", fallback); !got.Equal(fallback) {
		t.Fatalf("fallback not used: %v", got)
	}
}

func Test_loadTLS(t *testing.T) {
	t.Parallel()
	if _, err := loadTLS("", true); err != nil {
		t.Fatalf("insecure: %v", err)
	}
	if _, err := loadTLS("", false); err != nil {
		t.Fatalf("system roots: %v", err)
	}
	bad := filepath.Join(t.TempDir(), "ca.pem")
	_ = os.WriteFile(bad, []byte("nope"), 0o600)
	if _, err := loadTLS(bad, false); err == nil {
		t.Fatalf("want error on bad CA")
	}
	if _, err := loadTLS(filepath.Join(t.TempDir(), "missing.pem"), false); err == nil {
		t.Fatalf("want error on missing CA")
	}
}

func Test_readAll_File_And_Stdin(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "f.txt")
	_ = os.WriteFile(tmp, []byte("hello"), 0o600)
	b, err := readAll(tmp)
	if err != nil || string(b) != "hello" {
		t.Fatalf("readAll(file): %q %v", b, err)
	}

	r, w, _ := os.Pipe()
	old := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = old }()
	go func() { _, _ = io.WriteString(w, "from-stdin"); _ = w.Close() }()
	b, err = readAll("-")
	if err != nil || string(b) != "from-stdin" {
		t.Fatalf("readAll(stdin): %q %v", b, err)
	}
}

func Test_printJSON_WritesPretty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	a := &app{out: &buf}
	a.printJSON(map[string]any{"a": 1})

	var m map[string]any
	if json.Unmarshal(buf.Bytes(), &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  ")) {
		t.Fatalf("printJSON should indent")
	}
}
