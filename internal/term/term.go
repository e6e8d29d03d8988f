// Package term renders the glitch character grid into a terminal.
package term

import (
	"context"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/backdrop"
)

// Renderer maps a GlitchGrid onto terminal cells. The grid is simulated in
// pixel units, cfg.CellWidth x cfg.CellHeight per terminal cell, so the
// simulation behaves the same as in a window.
type Renderer struct {
	cfg        backdrop.GlitchConfig
	grid       *backdrop.GlitchGrid
	cols, rows int
}

// NewRenderer creates a renderer for a cols x rows terminal.
func NewRenderer(cfg backdrop.GlitchConfig, cols, rows int) *Renderer {
	cols, rows = max(cols, 1), max(rows, 1)
	return &Renderer{
		cfg:  cfg,
		grid: backdrop.NewGlitchGrid(cols*cfg.CellWidth, rows*cfg.CellHeight, cfg),
		cols: cols,
		rows: rows,
	}
}

// Grid returns the simulation.
func (r *Renderer) Grid() *backdrop.GlitchGrid { return r.grid }

// Size returns the terminal size in cells.
func (r *Renderer) Size() (int, int) { return r.cols, r.rows }

// Resize rebuilds the grid for a new terminal size. Unchanged sizes are
// ignored.
func (r *Renderer) Resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if cols == r.cols && rows == r.rows {
		return
	}
	r.cols, r.rows = cols, rows
	r.grid.Resize(cols*r.cfg.CellWidth, rows*r.cfg.CellHeight)
}

// PointerAt converts a terminal cell to a pointer at the cell's centre in
// grid pixels.
func (r *Renderer) PointerAt(x, y int) backdrop.Pointer {
	cw, ch := float64(r.cfg.CellWidth), float64(r.cfg.CellHeight)
	return backdrop.Pointer{
		X:      (float64(x) + 0.5) * cw,
		Y:      (float64(y) + 0.5) * ch,
		Inside: x >= 0 && y >= 0 && x < r.cols && y < r.rows,
	}
}

func rgb(c backdrop.Color) tcell.Color {
	cr, cg, cb := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return tcell.NewRGBColor(int32(cr), int32(cg), int32(cb))
}

// Draw writes every visible grid cell into s. Rows inside an active
// scanline are shifted sideways by the scanline offset. It does not call
// Show.
func (r *Renderer) Draw(s tcell.Screen) {
	cw, ch := float64(r.cfg.CellWidth), float64(r.cfg.CellHeight)
	bg := rgb(r.cfg.ClearColor)
	blank := tcell.StyleDefault.Background(bg)
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			s.SetContent(x, y, ' ', nil, blank)
		}
	}

	sl, glitching := r.grid.Scanline()
	shift := 0
	if glitching {
		shift = int(math.Round(sl.Offset / cw))
	}
	r.grid.VisitCells(func(c backdrop.GlitchCell) {
		x := int(math.Round(c.X / cw))
		y := int(math.Round(c.Y / ch))
		if glitching && c.Y+ch > sl.Y && c.Y < sl.Y+sl.Height {
			x += shift
		}
		if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
			return
		}
		st := tcell.StyleDefault.Foreground(rgb(c.Fg)).Background(rgb(c.Bg))
		s.SetContent(x, y, c.Char, nil, st)
	})
}

// Options configures Run.
type Options struct {
	Glitch backdrop.GlitchConfig
	// TickRate is how often the screen is refreshed. The simulation itself
	// is throttled to Glitch.FPS.
	TickRate time.Duration
	Log      *zap.Logger
}

// Run animates the glitch grid on s until ctx is cancelled or the user
// presses Esc, Ctrl-C or q. s must already be initialised; the caller
// finalises it. Events are read on a separate goroutine and handed to the
// frame loop over a channel.
func Run(ctx context.Context, s tcell.Screen, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	tick := opts.TickRate
	if tick <= 0 {
		tick = time.Second / 60
	}
	s.EnableMouse()
	defer s.DisableMouse()

	cols, rows := s.Size()
	r := NewRenderer(opts.Glitch, cols, rows)
	log.Debug("terminal renderer started", zap.Int("cols", cols), zap.Int("rows", rows))

	g, gctx := errgroup.WithContext(ctx)
	events := make(chan tcell.Event, 64)
	stop := make(chan struct{})

	g.Go(func() error {
		s.ChannelEvents(events, stop)
		return nil
	})

	g.Go(func() error {
		defer close(stop)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		var pointer backdrop.Pointer
		last := time.Now()
		for {
			select {
			case <-gctx.Done():
				return nil

			case ev, ok := <-events:
				if !ok {
					return nil
				}
				switch ev := ev.(type) {
				case *tcell.EventKey:
					if isQuit(ev) {
						log.Debug("quit requested")
						return nil
					}
				case *tcell.EventMouse:
					x, y := ev.Position()
					pointer = r.PointerAt(x, y)
				case *tcell.EventResize:
					cols, rows := ev.Size()
					r.Resize(cols, rows)
					s.Sync()
				}

			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				if r.grid.Advance(dt, pointer) {
					r.Draw(s)
					s.Show()
				}
			}
		}
	})

	return g.Wait()
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}
