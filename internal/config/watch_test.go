package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get(t *testing.T) {
	cfg := Default()
	cfg.Engine.MaxResults = 7

	s := NewStore(cfg, nil)
	assert.Equal(t, 7, s.Get().Engine.MaxResults)
	assert.Equal(t, "balanced", s.ActivePreset().Name)
}

func TestStore_StopWithoutWatch(t *testing.T) {
	s := NewStore(Default(), nil)
	assert.NotPanics(t, s.Stop)
}

func TestStore_WatchMissingFile(t *testing.T) {
	s := NewStore(Default(), nil)
	err := s.Watch(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func waitForPreset(t *testing.T, s *Store, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if s.ActivePreset().Name == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("preset never became %q, still %q", want, s.ActivePreset().Name)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestStore_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: {preset: balanced}"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	s := NewStore(cfg, nil)
	require.NoError(t, s.Watch(path))
	defer s.Stop()

	require.NoError(t, os.WriteFile(path, []byte("engine: {preset: strict}"), 0o644))
	waitForPreset(t, s, "strict")
}

func TestStore_InvalidEditKeepsPreviousConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: {preset: strict}"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	s := NewStore(cfg, nil)
	require.NoError(t, s.Watch(path))
	defer s.Stop()

	require.NoError(t, os.WriteFile(path, []byte("engine: {preset: nonexistent}"), 0o644))

	// Give the debounce and reload a chance to run, then confirm the
	// broken edit was rejected.
	time.Sleep(3 * reloadDebounce)
	assert.Equal(t, "strict", s.ActivePreset().Name)
}
