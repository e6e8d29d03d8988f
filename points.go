package backdrop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// pointSpriteSize is the edge length of the generated point sprite.
const pointSpriteSize = 64

// generatePointSprite creates a white disc whose alpha falls from 1 to 0
// between 60% and 100% of its radius. Premultiplied.
func generatePointSprite(size int) *ebiten.Image {
	if size < 2 {
		size = 2
	}
	img := ebiten.NewImage(size, size)
	pix := make([]byte, size*size*4)

	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float64(x) + 0.5 - half) / float64(size)
			dy := (float64(y) + 0.5 - half) / float64(size)
			r := dx*dx + dy*dy
			var alpha float64
			if r < 0.25 {
				alpha = 1 - smoothstep(0.3, 0.5, math.Sqrt(r))
			}
			a := uint8(alpha * 255)
			off := (y*size + x) * 4
			pix[off+0] = a
			pix[off+1] = a
			pix[off+2] = a
			pix[off+3] = a
		}
	}
	img.WritePixels(pix)
	return img
}

// pointBatch draws many screen-space sprites in a single DrawTriangles32
// call. Used by the point-cloud effects.
type pointBatch struct {
	sprite *ebiten.Image
	verts  []ebiten.Vertex
	inds   []uint32
	op     ebiten.DrawTrianglesOptions
}

func newPointBatch(blend BlendMode) *pointBatch {
	b := &pointBatch{sprite: generatePointSprite(pointSpriteSize)}
	b.op.Blend = blend.EbitenBlend()
	b.op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	b.op.Filter = ebiten.FilterLinear
	return b
}

func (b *pointBatch) reset() {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
}

// len returns the number of queued points.
func (b *pointBatch) len() int {
	return len(b.verts) / 4
}

// add queues a w x h sprite centred on (x, y).
func (b *pointBatch) add(x, y, w, h float64, c Color) {
	if w <= 0 || h <= 0 || c.A <= 0 {
		return
	}
	a := float32(clamp01(c.A))
	cr, cg, cb := float32(c.R)*a, float32(c.G)*a, float32(c.B)*a
	x0, y0 := float32(x-w/2), float32(y-h/2)
	x1, y1 := float32(x+w/2), float32(y+h/2)
	s := float32(pointSpriteSize)

	base := uint32(len(b.verts))
	b.verts = append(b.verts,
		ebiten.Vertex{DstX: x0, DstY: y0, SrcX: 0, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a},
		ebiten.Vertex{DstX: x1, DstY: y0, SrcX: s, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a},
		ebiten.Vertex{DstX: x0, DstY: y1, SrcX: 0, SrcY: s, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a},
		ebiten.Vertex{DstX: x1, DstY: y1, SrcX: s, SrcY: s, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a},
	)
	b.inds = append(b.inds,
		base+0, base+1, base+2,
		base+1, base+3, base+2,
	)
}

// flush submits the queued points to dst and resets the batch.
func (b *pointBatch) flush(dst *ebiten.Image) {
	if len(b.verts) > 0 {
		dst.DrawTriangles32(b.verts, b.inds, b.sprite, &b.op)
	}
	b.reset()
}

func (b *pointBatch) dispose() {
	if b.sprite != nil {
		b.sprite.Deallocate()
		b.sprite = nil
	}
	b.verts = nil
	b.inds = nil
}
