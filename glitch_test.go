package backdrop

import "testing"

func TestGlitchGridSize(t *testing.T) {
	cfg := DefaultGlitchConfig()
	g := NewGlitchGrid(100, 60, cfg)
	// ceil(100/10)+4 columns, ceil(60/15)+2 rows.
	if g.Cols() != 14 || g.Rows() != 6 {
		t.Errorf("grid = %dx%d, want 14x6", g.Cols(), g.Rows())
	}
	g.Resize(205, 61)
	if g.Cols() != 25 || g.Rows() != 7 {
		t.Errorf("grid after resize = %dx%d, want 25x7", g.Cols(), g.Rows())
	}
	if len(g.HeatMap()) != 25*7 {
		t.Errorf("len(HeatMap()) = %d, want %d", len(g.HeatMap()), 25*7)
	}
}

func TestGlitchGridHeatBounds(t *testing.T) {
	g := NewGlitchGrid(200, 150, DefaultGlitchConfig())
	p := Pointer{X: 50, Y: 50, Inside: true}
	for range 20 {
		g.Step(1.0/30, p)
		for i, h := range g.HeatMap() {
			if h < 0 || h > 1 {
				t.Fatalf("heat[%d] = %v, want in [0, 1]", i, h)
			}
		}
	}
	if h := g.Heat(5, 3); h < 0.8 {
		t.Errorf("Heat(5,3) under the pointer = %v, want > 0.8", h)
	}
	if h := g.Heat(19, 9); h != 0 {
		t.Errorf("Heat(19,9) far from the pointer = %v, want 0", h)
	}
}

func TestGlitchGridHeatDecaysToZero(t *testing.T) {
	g := NewGlitchGrid(200, 150, DefaultGlitchConfig())
	g.Step(1.0/30, Pointer{X: 100, Y: 75, Inside: true})

	// 0.93^64 < 0.01, so every cell snaps to zero within 64 frames.
	idle := Pointer{X: leftPosition, Y: leftPosition}
	for range 64 {
		g.Step(1.0/30, idle)
	}
	for i, h := range g.HeatMap() {
		if h != 0 {
			t.Fatalf("heat[%d] = %v after 64 idle frames, want 0", i, h)
		}
	}
}

func TestGlitchGridTrailIsContinuous(t *testing.T) {
	cfg := DefaultGlitchConfig()
	cfg.MouseRadius = 20
	g := NewGlitchGrid(400, 150, cfg)
	g.Step(1.0/30, Pointer{X: 10, Y: 75, Inside: true})
	g.Step(1.0/30, Pointer{X: 390, Y: 75, Inside: true})

	row := 75 / cfg.CellHeight
	for c := 1; c < 39; c++ {
		if g.Heat(c, row) == 0 {
			t.Fatalf("Heat(%d,%d) = 0, want a continuous trail", c, row)
		}
	}
}

func TestGlitchGridAdvanceThrottles(t *testing.T) {
	g := NewGlitchGrid(100, 100, DefaultGlitchConfig())
	if g.Advance(0.02, Pointer{}) {
		t.Error("Advance(0.02) ran a frame before 1/30s elapsed")
	}
	if !g.Advance(0.02, Pointer{}) {
		t.Error("Advance did not run a frame after 0.04s")
	}
	if g.Frame() != 1 {
		t.Errorf("Frame() = %d, want 1", g.Frame())
	}
	// A long stall runs a single frame.
	if !g.Advance(5, Pointer{}) || g.Frame() != 2 {
		t.Errorf("Frame() = %d after a stall, want 2", g.Frame())
	}
}

func TestGlitchGridScanline(t *testing.T) {
	cfg := DefaultGlitchConfig()
	cfg.ScanlineChance = 0
	g := NewGlitchGrid(100, 100, cfg)
	for range 50 {
		g.Step(1.0/30, Pointer{})
	}
	if _, ok := g.Scanline(); ok {
		t.Error("scanline appeared with ScanlineChance 0")
	}

	cfg.ScanlineChance = 1
	g = NewGlitchGrid(100, 100, cfg)
	g.Step(1.0/30, Pointer{})
	sl, ok := g.Scanline()
	if !ok {
		t.Fatal("no scanline with ScanlineChance 1")
	}
	if sl.FramesLeft < 2 || sl.FramesLeft > 4 {
		t.Errorf("FramesLeft = %d, want 2..4", sl.FramesLeft)
	}
	if sl.Offset < -25 || sl.Offset > 25 {
		t.Errorf("Offset = %v, want within ±25", sl.Offset)
	}
	if sl.Height < 2 || sl.Height > 12 {
		t.Errorf("Height = %v, want 2..12", sl.Height)
	}
}

func TestGlitchGridVisitCells(t *testing.T) {
	cfg := DefaultGlitchConfig()
	g := NewGlitchGrid(120, 90, cfg)
	for range 10 {
		g.Step(1.0/30, Pointer{X: 60, Y: 45, Inside: true})
	}

	n := 0
	g.VisitCells(func(c GlitchCell) {
		n++
		if c.Char < 33 || c.Char > 126 {
			t.Errorf("cell (%d,%d) char %q is not printable ASCII", c.Col, c.Row, c.Char)
		}
		if c.Fg.A != 1 || c.Bg.A != 1 {
			t.Errorf("cell (%d,%d) colours not opaque: %v %v", c.Col, c.Row, c.Fg, c.Bg)
		}
		if c.X+float64(cfg.CellWidth) < 0 || c.X > 120 || c.Y > 90 {
			t.Errorf("cell (%d,%d) at (%v,%v) is off screen", c.Col, c.Row, c.X, c.Y)
		}
		if c.Heat > 0 && c.Fg.R+c.Fg.G+c.Fg.B < c.Bg.R+c.Bg.G+c.Bg.B {
			t.Errorf("cell (%d,%d) glyph darker than its block", c.Col, c.Row)
		}
	})
	// 12 columns plus partial ones, 7 rows (0..90 inclusive).
	if n < 12*6 {
		t.Errorf("visited %d cells, want at least %d", n, 12*6)
	}
}
