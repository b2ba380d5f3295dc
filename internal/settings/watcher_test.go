package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeAtomic replaces path in one rename so the watcher never sees a truncated file.
func writeAtomic(t *testing.T, path, body string) {
	t.Helper()
	tmp := path + ".new"
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_ReloadsAndKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	s := NewStore(Defaults(), zaptest.NewLogger(t))
	require.NoError(t, s.Save(path))

	w, err := NewWatcher(s, path, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeAtomic(t, path, "general:\n  siteName: Reloaded\n")
	require.Eventually(t, func() bool { return s.Get().General.SiteName == "Reloaded" }, 3*time.Second, 10*time.Millisecond)

	writeAtomic(t, path, "general:\n  timeFormat: \"7\"\n")
	require.Eventually(t, func() bool { return w.Stats().Failures >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, "Reloaded", s.Get().General.SiteName)
	require.Equal(t, "24", s.Get().General.TimeFormat)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	s := NewStore(Defaults(), nil)
	require.NoError(t, s.Save(path))

	w, err := NewWatcher(s, path, 10*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, w.Stats().Reloads+w.Stats().Failures)

	w.Stop()
	w.Stop()
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	s := NewStore(Defaults(), nil)
	require.NoError(t, s.Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(s, path, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher loop did not exit on cancel")
	}
	w.Stop()
}

// returnsSoon fails the test when fn blocks.
func returnsSoon(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("call blocked")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	w, err := NewWatcher(NewStore(Defaults(), nil), path, 0, nil)
	require.NoError(t, err)

	returnsSoon(t, w.Stop)
	returnsSoon(t, w.Stop)
}

func TestWatcher_StartFailureReleasesWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.yaml")
	w, err := NewWatcher(NewStore(Defaults(), nil), path, 0, nil)
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))
	returnsSoon(t, w.Stop)
}
