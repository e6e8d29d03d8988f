package backdrop

import (
	"math"
	"math/rand/v2"
)

// GlitchConfig parameterizes the character-grid glitch effect.
type GlitchConfig struct {
	CellWidth, CellHeight int
	// FPS throttles simulation frames; ticks in between only redraw.
	FPS            float64
	MouseRadius    float64
	HeatDecay      float64
	BaseBrightness float64
	MaxBrightness  float64
	// ScrollSpeed is the horizontal row drift in pixels per simulation frame.
	ScrollSpeed    float64
	ScanlineChance float64
	Background     Color
	ClearColor     Color
	Blobs          []Color
	Seed           uint64
}

// DefaultGlitchConfig returns the stock blue-green-amber glitch look.
func DefaultGlitchConfig() GlitchConfig {
	return GlitchConfig{
		CellWidth:      10,
		CellHeight:     15,
		FPS:            30,
		MouseRadius:    150,
		HeatDecay:      0.93,
		BaseBrightness: 0.45,
		MaxBrightness:  1.3,
		ScrollSpeed:    0.3,
		ScanlineChance: 0.015,
		Background:     MustHexColor("#050510"),
		ClearColor:     MustHexColor("#050508"),
		Blobs: []Color{
			RGB(10, 60, 160),
			RGB(20, 90, 180),
			RGB(5, 40, 120),
			RGB(30, 140, 80),
			RGB(60, 160, 60),
			RGB(160, 160, 20),
			RGB(180, 140, 10),
			RGB(15, 80, 140),
			RGB(100, 40, 140),
			RGB(10, 30, 80),
		},
		Seed: 1,
	}
}

// heatEpsilon is the level below which decayed heat snaps to zero.
const heatEpsilon = 0.01

type colorBlob struct {
	x, y, vx, vy float64
	radius       float64
	color        Color
}

// Scanline is a horizontal strip of the rendered frame shifted sideways for
// a few frames.
type Scanline struct {
	Y, Height, Offset float64
	FramesLeft        int
}

// GlitchCell is one visible character cell, positioned in surface pixels
// after row scrolling.
type GlitchCell struct {
	Col, Row int
	X, Y     float64
	Char     rune
	Heat     float64
	// Fg is the glyph colour and Bg the block behind it. Both are opaque.
	Fg, Bg Color
}

// GlitchGrid is the renderer-independent state of the glitch effect: a
// scrolling grid of random glyphs tinted by drifting colour blobs, with a
// heat map that brightens and scrambles cells near the pointer.
type GlitchGrid struct {
	cfg GlitchConfig
	rng *rand.Rand

	w, h       float64
	cols, rows int
	chars      []rune
	heat       []float64
	blobs      []colorBlob
	bgW, bgH   int

	acc      float64
	frame    int
	scanline *Scanline

	prevX, prevY float64
	prevActive   bool
}

// NewGlitchGrid creates a grid covering a w x h pixel surface.
func NewGlitchGrid(w, h int, cfg GlitchConfig) *GlitchGrid {
	g := &GlitchGrid{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef)),
	}
	g.Resize(w, h)
	return g
}

// Resize rebuilds the grid, heat map and blobs for a new surface size.
func (g *GlitchGrid) Resize(w, h int) {
	g.w, g.h = float64(max(w, 1)), float64(max(h, 1))
	cw, ch := float64(max(g.cfg.CellWidth, 1)), float64(max(g.cfg.CellHeight, 1))
	g.cols = int(math.Ceil(g.w/cw)) + 4
	g.rows = int(math.Ceil(g.h/ch)) + 2
	g.chars = make([]rune, g.cols*g.rows)
	for i := range g.chars {
		g.chars[i] = g.randomChar()
	}
	g.heat = make([]float64, g.cols*g.rows)
	g.bgW = int(math.Ceil(g.w / 4))
	g.bgH = int(math.Ceil(g.h / 4))

	g.blobs = g.blobs[:0]
	size := math.Max(g.w, g.h)
	for _, c := range g.cfg.Blobs {
		g.blobs = append(g.blobs, colorBlob{
			x:      g.rng.Float64() * g.w,
			y:      g.rng.Float64() * g.h,
			vx:     (g.rng.Float64() - 0.5) * 20,
			vy:     (g.rng.Float64() - 0.5) * 15,
			radius: size * (0.25 + g.rng.Float64()*0.35),
			color:  c,
		})
	}
	g.scanline = nil
}

func (g *GlitchGrid) randomChar() rune {
	return rune(33 + g.rng.IntN(94))
}

// Cols returns the number of grid columns.
func (g *GlitchGrid) Cols() int { return g.cols }

// Rows returns the number of grid rows.
func (g *GlitchGrid) Rows() int { return g.rows }

// Heat returns the heat of cell (col, row).
func (g *GlitchGrid) Heat(col, row int) float64 {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return 0
	}
	return g.heat[row*g.cols+col]
}

// HeatMap returns the row-major heat values. The slice is owned by the grid.
func (g *GlitchGrid) HeatMap() []float64 { return g.heat }

// Frame returns the number of simulation frames run.
func (g *GlitchGrid) Frame() int { return g.frame }

// Scanline returns the active scanline glitch, if any.
func (g *GlitchGrid) Scanline() (Scanline, bool) {
	if g.scanline == nil {
		return Scanline{}, false
	}
	return *g.scanline, true
}

// Advance accumulates dt seconds of wall time and runs one simulation frame
// when a 1/FPS interval has elapsed. The pointer is in surface pixels and is
// ignored unless active. Returns whether a frame ran.
func (g *GlitchGrid) Advance(dt float64, p Pointer) bool {
	interval := 1 / math.Max(g.cfg.FPS, 1)
	g.acc += dt
	if g.acc < interval {
		return false
	}
	elapsed := g.acc
	g.acc = math.Mod(g.acc, interval)
	g.Step(math.Min(elapsed, 0.1), p)
	return true
}

// Step runs one simulation frame of dt seconds unconditionally.
func (g *GlitchGrid) Step(dt float64, p Pointer) {
	if g.scanline != nil {
		g.scanline.FramesLeft--
		if g.scanline.FramesLeft <= 0 {
			g.scanline = nil
		}
	}

	g.frame++
	g.moveBlobs(dt)

	for i, v := range g.heat {
		v *= g.cfg.HeatDecay
		if v < heatEpsilon {
			v = 0
		}
		g.heat[i] = v
	}

	active := p.Active()
	if active {
		if g.prevActive {
			g.depositLine(g.prevX, g.prevY, p.X, p.Y)
		} else {
			g.depositLine(p.X, p.Y, p.X, p.Y)
		}
	}
	g.prevX, g.prevY, g.prevActive = p.X, p.Y, active

	for i, h := range g.heat {
		if g.rng.Float64() < 0.04+h*0.5 {
			g.chars[i] = g.randomChar()
		}
	}

	if g.scanline == nil && g.rng.Float64() < g.cfg.ScanlineChance {
		g.scanline = &Scanline{
			Y:          g.rng.Float64() * g.h,
			Offset:     (g.rng.Float64() - 0.5) * 50,
			Height:     2 + g.rng.Float64()*10,
			FramesLeft: 2 + g.rng.IntN(3),
		}
	}
}

func (g *GlitchGrid) moveBlobs(dt float64) {
	for i := range g.blobs {
		b := &g.blobs[i]
		b.x += b.vx * dt
		b.y += b.vy * dt
		m := b.radius * 0.5
		if b.x < -m {
			b.vx = math.Abs(b.vx)
		}
		if b.x > g.w+m {
			b.vx = -math.Abs(b.vx)
		}
		if b.y < -m {
			b.vy = math.Abs(b.vy)
		}
		if b.y > g.h+m {
			b.vy = -math.Abs(b.vy)
		}
	}
}

// depositLine adds heat around evenly spaced samples of the segment from
// (x0, y0) to (x1, y1), so fast pointer moves leave a continuous trail.
func (g *GlitchGrid) depositLine(x0, y0, x1, y1 float64) {
	radius := g.cfg.MouseRadius
	cw, ch := float64(g.cfg.CellWidth), float64(g.cfg.CellHeight)
	dx, dy := x1-x0, y1-y0
	steps := max(1, int(math.Ceil(math.Hypot(dx, dy)/(radius*0.4))))
	rx := int(math.Ceil(radius / cw))
	ry := int(math.Ceil(radius / ch))

	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		mcx := (x0 + dx*t) / cw
		mcy := (y0 + dy*t) / ch
		fx, fy := int(math.Floor(mcx)), int(math.Floor(mcy))
		for r := max(0, fy-ry); r <= min(g.rows-1, fy+ry); r++ {
			for c := max(0, fx-rx); c <= min(g.cols-1, fx+rx); c++ {
				d := math.Hypot((float64(c)+0.5-mcx)*cw, (float64(r)+0.5-mcy)*ch)
				if d >= radius {
					continue
				}
				f := 1 - d/radius
				i := r*g.cols + c
				g.heat[i] = math.Min(1, g.heat[i]+f*f)
			}
		}
	}
}

// sampleBackground returns the blob field at quarter-resolution pixel
// (bx, by): each blob is a radial gradient over the base colour with alpha
// 0.6 at its centre, 0.15 halfway and 0 at its rim.
func (g *GlitchGrid) sampleBackground(bx, by int) Color {
	c := g.cfg.Background
	sx, sy := float64(g.bgW)/g.w, float64(g.bgH)/g.h
	scale := math.Max(sx, sy)
	px, py := float64(bx)+0.5, float64(by)+0.5
	for i := range g.blobs {
		b := &g.blobs[i]
		r := b.radius * scale
		u := math.Hypot(px-b.x*sx, py-b.y*sy) / r
		var a float64
		switch {
		case u < 0.5:
			a = lerp(0.6, 0.15, u/0.5)
		case u < 1:
			a = lerp(0.15, 0, (u-0.5)/0.5)
		default:
			continue
		}
		c = c.Lerp(b.color, a)
	}
	c.A = 1
	return c
}

// VisitCells calls fn for every cell that is at least partly on screen, in
// row-major order. Even rows drift right and odd rows left.
func (g *GlitchGrid) VisitCells(fn func(GlitchCell)) {
	cw, ch := float64(g.cfg.CellWidth), float64(g.cfg.CellHeight)
	scroll := float64(g.frame) * g.cfg.ScrollSpeed
	rowWidth := float64(g.cols) * cw
	sx, sy := float64(g.bgW)/g.w, float64(g.bgH)/g.h
	span := g.cfg.MaxBrightness - g.cfg.BaseBrightness

	for r := 0; r < g.rows; r++ {
		py := float64(r) * ch
		if py > g.h {
			break
		}
		dir := 1.0
		if r%2 == 1 {
			dir = -1
		}
		offset := math.Mod(scroll*dir, rowWidth)
		for c := 0; c < g.cols; c++ {
			px := math.Mod(float64(c)*cw+offset, rowWidth)
			if px < 0 {
				px += rowWidth
			}
			px -= cw * 2
			if px+cw < 0 || px > g.w {
				continue
			}

			scrX := clamp(px+cw/2, 0, g.w-1)
			scrY := clamp(py+ch/2, 0, g.h-1)
			bx := min(int(scrX*sx), g.bgW-1)
			by := min(int(scrY*sy), g.bgH-1)
			base := g.sampleBackground(bx, by)

			heat := g.heat[r*g.cols+c]
			bright := g.cfg.BaseBrightness + heat*span
			fn(GlitchCell{
				Col:  c,
				Row:  r,
				X:    px,
				Y:    py,
				Char: g.chars[r*g.cols+c],
				Heat: heat,
				Fg:   scaleOpaque(base, bright),
				Bg:   scaleOpaque(base, bright*0.55),
			})
		}
	}
}

func scaleOpaque(c Color, k float64) Color {
	return Color{clamp01(c.R * k), clamp01(c.G * k), clamp01(c.B * k), 1}
}
