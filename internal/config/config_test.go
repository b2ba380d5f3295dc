package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("test", nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Error(t, cfg.Validate(), "jwt key is required")
}

func TestParse_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
jwtKey: from-file
latency: 750ms
slotBackend: postgres
dsn: postgres://localhost/prism
`), 0o600))

	cfg, err := Parse("test", []string{"-config", path, "-addr", ":7000", "-seed=false"})
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Addr, "flag wins over file")
	require.Equal(t, "from-file", cfg.JWTKey, "file wins over default")
	require.Equal(t, 750*time.Millisecond, cfg.Latency)
	require.Equal(t, SlotPostgres, cfg.SlotBackend)
	require.False(t, cfg.Seed)
	require.Equal(t, 5*time.Second, cfg.NotificationTTL, "untouched default")
	require.NoError(t, cfg.Validate())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("test", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse("test", []string{"-no-such-flag"})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("latency: [1"), 0o600))
	_, err = Parse("test", []string{"-config", bad})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.JWTKey = "k"
	require.NoError(t, c.Validate())

	c.SlotBackend = SlotPostgres
	require.Error(t, c.Validate(), "dsn required for postgres")
	c.DSN = "postgres://x"
	require.NoError(t, c.Validate())

	c.TLSCert = "cert.pem"
	require.Error(t, c.Validate(), "key required with cert")
	c.TLSKey = "key.pem"
	require.NoError(t, c.Validate())

	c.SlotBackend = "redis"
	require.Error(t, c.Validate())
}
