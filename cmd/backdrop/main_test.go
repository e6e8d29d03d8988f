package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phanxgames/backdrop"
	"github.com/phanxgames/backdrop/internal/config"
)

func TestListPrintsEffects(t *testing.T) {
	var out bytes.Buffer
	listCmd.SetOut(&out)
	t.Cleanup(func() { listCmd.SetOut(nil) })

	require.NoError(t, listCmd.RunE(listCmd, nil))
	got := strings.Fields(out.String())
	if diff := cmp.Diff(backdrop.Names(), got); diff != "" {
		t.Errorf("list output mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLogger(t *testing.T) {
	dev, err := newLogger(true)
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := newLogger(false)
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "term", "list"})

	run, _, err := rootCmd.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"width", "height", "script", "watch"} {
		assert.NotNil(t, run.Flags().Lookup(flag), "run is missing --%s", flag)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestBuildEffect(t *testing.T) {
	cfg := config.Default()
	cfg.Effect = "fire"

	fx, err := buildEffect(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "fire", fx.Name())

	fx, err = buildEffect(cfg, "glitch")
	require.NoError(t, err)
	assert.Equal(t, "glitch", fx.Name())

	_, err = buildEffect(cfg, "lava")
	assert.ErrorIs(t, err, backdrop.ErrUnknownEffect)
}

func glitchConfig() *config.Config {
	cfg := config.Default()
	cfg.Effect = "glitch"
	return cfg
}

func TestSwapperApply(t *testing.T) {
	sw, err := newSwapper(glitchConfig(), "", zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, sw.Mount(64, 48))
	old := sw.stage

	next := glitchConfig()
	next.Seed = 7
	sw.apply(next)

	assert.NotSame(t, old, sw.stage)
	assert.False(t, old.Mounted(), "old stage still mounted")
	assert.True(t, sw.stage.Mounted())
	w, h := sw.stage.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Equal(t, 1, sw.swaps)

	sw.Unmount()
	assert.False(t, sw.stage.Mounted())
}

func TestSwapperKeepsStageOnBadReload(t *testing.T) {
	sw, err := newSwapper(glitchConfig(), "", zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, sw.Mount(64, 48))
	t.Cleanup(sw.Unmount)
	old := sw.stage

	bad := glitchConfig()
	bad.Effect = "lava"
	sw.apply(bad)

	assert.Same(t, old, sw.stage)
	assert.True(t, old.Mounted())
	assert.Zero(t, sw.swaps)
}

func TestSwapperPoll(t *testing.T) {
	sw, err := newSwapper(glitchConfig(), "", zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, sw.Mount(32, 32))
	t.Cleanup(sw.Unmount)

	reloads := make(chan *config.Config, 1)
	sw.reloads = reloads

	sw.poll()
	assert.Zero(t, sw.swaps, "poll blocked or swapped with nothing queued")

	reloads <- glitchConfig()
	sw.poll()
	assert.Equal(t, 1, sw.swaps)

	close(reloads)
	sw.poll()
	assert.Nil(t, sw.reloads)
}

func TestSwapperCarriesTestRunner(t *testing.T) {
	runner, err := backdrop.LoadTestScript([]byte(`{"steps":[{"action":"wait","frames":3}]}`))
	require.NoError(t, err)

	sw, err := newSwapper(glitchConfig(), "", zap.NewNop(), runner)
	require.NoError(t, err)
	require.NoError(t, sw.Mount(32, 32))
	t.Cleanup(sw.Unmount)

	sw.apply(glitchConfig())
	sw.stage.ReadDeviceInput = false
	for range 4 {
		require.NoError(t, sw.stage.Update())
	}
	assert.True(t, runner.Done())
}
