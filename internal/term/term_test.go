package term

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/phanxgames/backdrop"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func TestRendererDrawsGrid(t *testing.T) {
	s := newScreen(t, 40, 12)
	r := NewRenderer(backdrop.DefaultGlitchConfig(), 40, 12)
	r.Grid().Step(1.0/30, backdrop.Pointer{})
	r.Draw(s)

	glyphs := 0
	for y := 0; y < 12; y++ {
		for x := 0; x < 40; x++ {
			ch, _, st, _ := s.GetContent(x, y)
			if ch < 33 || ch > 126 {
				continue
			}
			glyphs++
			fg, bg, _ := st.Decompose()
			assert.True(t, fg.IsRGB(), "fg at (%d,%d) is not RGB", x, y)
			assert.True(t, bg.IsRGB(), "bg at (%d,%d) is not RGB", x, y)
		}
	}
	// Scrolling can leave a column between cells uncovered, never most of them.
	assert.Greater(t, glyphs, 40*12/2)
}

func TestRendererPointerHeatsCell(t *testing.T) {
	r := NewRenderer(backdrop.DefaultGlitchConfig(), 20, 10)
	p := r.PointerAt(5, 5)
	require.True(t, p.Active())

	r.Grid().Step(1.0/30, p)
	assert.Greater(t, r.Grid().Heat(5, 5), 0.5)

	out := r.PointerAt(-1, 3)
	assert.False(t, out.Active())
}

func TestRendererResize(t *testing.T) {
	cfg := backdrop.DefaultGlitchConfig()
	r := NewRenderer(cfg, 20, 10)
	cols := r.Grid().Cols()

	r.Resize(20, 10)
	assert.Equal(t, cols, r.Grid().Cols())

	r.Resize(50, 10)
	c, rows := r.Size()
	assert.Equal(t, 50, c)
	assert.Equal(t, 10, rows)
	assert.Greater(t, r.Grid().Cols(), cols)
}

func TestRunQuitsOnKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, key := range []struct {
		name string
		k    tcell.Key
		r    rune
	}{
		{"q", tcell.KeyRune, 'q'},
		{"esc", tcell.KeyEscape, 0},
		{"ctrl-c", tcell.KeyCtrlC, 0},
	} {
		t.Run(key.name, func(t *testing.T) {
			s := newScreen(t, 30, 10)
			done := make(chan error, 1)
			go func() {
				done <- Run(context.Background(), s, Options{Glitch: backdrop.DefaultGlitchConfig(), TickRate: time.Millisecond})
			}()
			s.InjectKey(key.k, key.r, tcell.ModNone)

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not return after quit key")
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newScreen(t, 30, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, s, Options{Glitch: backdrop.DefaultGlitchConfig(), TickRate: time.Millisecond})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunHandlesResize(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newScreen(t, 30, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, s, Options{Glitch: backdrop.DefaultGlitchConfig(), TickRate: time.Millisecond})
	}()

	s.SetSize(60, 20)
	require.NoError(t, s.PostEvent(tcell.NewEventResize(60, 20)))
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
