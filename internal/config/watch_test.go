package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func receive(t *testing.T, ch <-chan *Config) *Config {
	t.Helper()
	select {
	case cfg, ok := <-ch:
		require.True(t, ok, "watch channel closed early")
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return nil
	}
}

func drain(t *testing.T, ch <-chan *Config) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func TestWatchDeliversReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "backdrop.yaml")
	writeConfig(t, path, "effect: fire\n")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, path, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)

	writeConfig(t, path, "effect: water\n")
	cfg := receive(t, ch)
	assert.Equal(t, "water", cfg.Effect)

	cancel()
	drain(t, ch)
}

func TestWatchSkipsInvalidReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "backdrop.yaml")
	writeConfig(t, path, "effect: fire\n")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, path, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)

	writeConfig(t, path, "effect: lava\n")
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, "effect: glitch\n")

	cfg := receive(t, ch)
	assert.Equal(t, "glitch", cfg.Effect)

	cancel()
	drain(t, ch)
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "backdrop.yaml")
	writeConfig(t, path, "effect: fire\n")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, path, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)

	writeConfig(t, filepath.Join(dir, "other.yaml"), "effect: water\n")
	select {
	case cfg := <-ch:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	drain(t, ch)
}

func TestWatchMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "gone", "backdrop.yaml"), 0, nil)
	require.Error(t, err)
}

func TestWatchRemovedFileReloadsDefaults(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "backdrop.yaml")
	writeConfig(t, path, "effect: fire\n")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, path, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	cfg := receive(t, ch)
	assert.Equal(t, Default().Effect, cfg.Effect)

	cancel()
	drain(t, ch)
}
