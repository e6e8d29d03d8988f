package backdrop

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// --- Bitmap label face (single-threaded, no sync.Once) ---

var labelFace *text.GoXFace

// ensureLabelFace returns the shared 7x13 monospace face used for captions
// and glyph grids.
func ensureLabelFace() *text.GoXFace {
	if labelFace == nil {
		labelFace = text.NewGoXFace(basicfont.Face7x13)
	}
	return labelFace
}

// Align controls horizontal placement of a label relative to its anchor.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// label draws short runs of text with the bitmap face. It reuses one
// DrawOptions across calls.
type label struct {
	op text.DrawOptions
}

// draw renders s with its top edge at y and horizontal anchor x.
func (l *label) draw(dst *ebiten.Image, s string, x, y float64, align Align, c Color) {
	if s == "" || c.A <= 0 {
		return
	}
	face := ensureLabelFace()
	switch align {
	case AlignCenter:
		w, _ := text.Measure(s, face, 0)
		x -= w / 2
	case AlignRight:
		w, _ := text.Measure(s, face, 0)
		x -= w
	}
	op := &l.op
	op.GeoM.Reset()
	op.GeoM.Translate(x, y)
	op.ColorScale.Reset()
	op.ColorScale.ScaleWithColor(c.toRGBA())
	text.Draw(dst, s, face, op)
}

// measureLabel returns the pixel size of s in the label face.
func measureLabel(s string) (float64, float64) {
	return text.Measure(s, ensureLabelFace(), 0)
}
