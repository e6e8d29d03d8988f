package backdrop

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Glitch draws a GlitchGrid with Ebitengine: a block per cell, a glyph on
// top, and the active scanline strip shifted sideways.
type Glitch struct {
	cfg    GlitchConfig
	grid   *GlitchGrid
	canvas *RenderTexture
	dirty  bool

	cells    []GlitchCell
	blocks   triangleBatch
	blocksOp ebiten.DrawTrianglesOptions
	glyphs   label
	stripOp  ebiten.DrawImageOptions
}

// NewGlitch creates a glitch effect.
func NewGlitch(cfg GlitchConfig) *Glitch {
	return &Glitch{cfg: cfg}
}

// Name implements Effect.
func (g *Glitch) Name() string { return "glitch" }

// Grid returns the underlying simulation.
func (g *Glitch) Grid() *GlitchGrid { return g.grid }

// Mount implements Effect.
func (g *Glitch) Mount(w, h int) error {
	g.grid = NewGlitchGrid(w, h, g.cfg)
	g.canvas = NewRenderTexture(w, h)
	g.blocksOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	g.dirty = true
	return nil
}

// Resize implements Effect. The grid, heat map and blobs are rebuilt.
func (g *Glitch) Resize(w, h int) {
	g.grid.Resize(w, h)
	g.canvas.Resize(w, h)
	g.dirty = true
}

// Update implements Effect.
func (g *Glitch) Update(f *Frame) {
	if g.grid.Advance(f.Delta, f.Pointer) {
		g.dirty = true
	}
}

// render repaints the canvas from the grid.
func (g *Glitch) render() {
	g.canvas.Fill(g.cfg.ClearColor)
	img := g.canvas.Image()

	cw, ch := float64(g.cfg.CellWidth), float64(g.cfg.CellHeight)
	g.cells = g.cells[:0]
	g.grid.VisitCells(func(c GlitchCell) {
		g.cells = append(g.cells, c)
	})

	g.blocks.reset()
	for _, c := range g.cells {
		g.blocks.addQuad(
			vertex(c.X, c.Y, c.Bg),
			vertex(c.X+cw, c.Y, c.Bg),
			vertex(c.X, c.Y+ch, c.Bg),
			vertex(c.X+cw, c.Y+ch, c.Bg),
		)
	}
	g.blocks.drawQuads(img, ensureWhitePixel(), &g.blocksOp)

	for _, c := range g.cells {
		g.glyphs.draw(img, glyphString(c.Char), c.X+1, c.Y+1, AlignLeft, c.Fg)
	}
}

// glyphStrings caches one-character strings for printable ASCII.
var glyphStrings = func() (t [128]string) {
	for i := 0x20; i < 0x7f; i++ {
		t[i] = string(rune(i))
	}
	return t
}()

func glyphString(r rune) string {
	if r < 0x20 || r >= 0x7f {
		return "?"
	}
	return glyphStrings[r]
}

// Draw implements Effect.
func (g *Glitch) Draw(dst *ebiten.Image) {
	if g.dirty {
		g.render()
		g.dirty = false
	}
	g.canvas.DrawTo(dst, 0, 0)

	sl, ok := g.grid.Scanline()
	if !ok {
		return
	}
	y0 := max(int(sl.Y+0.5), 0)
	hgt := max(int(sl.Height+0.5), 1)
	if y0+hgt > g.canvas.Height() {
		return
	}
	strip := g.canvas.Image().SubImage(image.Rect(0, y0, g.canvas.Width(), y0+hgt)).(*ebiten.Image)
	g.stripOp.GeoM.Reset()
	g.stripOp.GeoM.Translate(float64(int(sl.Offset+0.5)), float64(y0))
	g.stripOp.Blend = ebiten.BlendCopy
	dst.DrawImage(strip, &g.stripOp)
}

// Dispose implements Effect.
func (g *Glitch) Dispose() {
	if g.canvas != nil {
		g.canvas.Dispose()
		g.canvas = nil
	}
	g.grid = nil
	g.cells = nil
	g.blocks = triangleBatch{}
}
