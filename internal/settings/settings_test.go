package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/prismcms/internal/errs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultsAreValid(t *testing.T) {
	d := Defaults()
	require.NoError(t, Validate(&d))
}

func TestStore_UpdateSections(t *testing.T) {
	s := NewStore(Defaults(), zaptest.NewLogger(t))

	g := s.Get().General
	g.SiteName = "Prism"
	require.NoError(t, s.UpdateGeneral(g))
	require.Equal(t, "Prism", s.Get().General.SiteName)

	bad := g
	bad.TimeFormat = "13"
	err := s.UpdateGeneral(bad)
	require.True(t, errors.Is(err, errs.ErrValidation), "got %v", err)
	require.Equal(t, "24", s.Get().General.TimeFormat)

	sys := s.Get().System
	sys.MaxUploadSizeMB = 0
	require.ErrorIs(t, s.UpdateSystem(sys), errs.ErrValidation)
	sys.MaxUploadSizeMB = 25
	require.NoError(t, s.UpdateSystem(sys))
	require.Equal(t, 25, s.Get().System.MaxUploadSizeMB)

	e := s.Get().Email
	e.SMTPHost = ""
	require.ErrorIs(t, s.UpdateEmail(e), errs.ErrValidation)
	e.Provider = "sendgrid"
	require.NoError(t, s.UpdateEmail(e))
	require.Equal(t, "sendgrid", s.Get().Email.Provider)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "settings.yaml")

	s := NewStore(Defaults(), nil)
	g := s.Get().General
	g.SiteName = "Round Trip"
	require.NoError(t, s.UpdateGeneral(g))
	require.NoError(t, s.Save(path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, s.Get(), got)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("general:\n  siteName: Partial\n"), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Partial", got.General.SiteName)
	require.Equal(t, Defaults().System, got.System)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	syntax := filepath.Join(dir, "syntax.yaml")
	require.NoError(t, os.WriteFile(syntax, []byte("general: [unclosed"), 0o600))
	_, err = Load(syntax)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("system:\n  backupFrequency: yearly\n"), 0o600))
	_, err = Load(invalid)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestStore_LoadFileKeepsValueOnError(t *testing.T) {
	s := NewStore(Defaults(), nil)
	require.Error(t, s.LoadFile(filepath.Join(t.TempDir(), "none.yaml")))
	require.Equal(t, Defaults(), s.Get())
}

func TestStore_PersistWritesEachUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewStore(Defaults(), zaptest.NewLogger(t))

	g := s.Get().General
	g.SiteName = "Not Yet"
	require.NoError(t, s.UpdateGeneral(g))
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	s.Persist(path)
	e := s.Get().Email
	e.SMTPPort = 2525
	require.NoError(t, s.UpdateEmail(e))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2525, got.Email.SMTPPort)
	require.Equal(t, "Not Yet", got.General.SiteName)

	// rejected updates leave the file alone
	e.Provider = "pigeon"
	require.ErrorIs(t, s.UpdateEmail(e), errs.ErrValidation)
	got, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "smtp", got.Email.Provider)
}
