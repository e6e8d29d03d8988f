package backdrop

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestPointBatch(t *testing.T) {
	b := newPointBatch(BlendAdd)
	defer b.dispose()

	if b.op.Blend != ebiten.BlendLighter {
		t.Errorf("blend = %v, want lighter", b.op.Blend)
	}
	if b.op.ColorScaleMode != ebiten.ColorScaleModePremultipliedAlpha {
		t.Error("vertex colours are premultiplied; ColorScaleMode must match")
	}

	b.add(10, 10, 4, 4, Color{1, 0.5, 0, 0.5})
	b.add(10, 10, 0, 4, Color{1, 1, 1, 1})
	b.add(10, 10, 4, 4, Color{1, 1, 1, 0})
	if b.len() != 1 {
		t.Fatalf("len() = %d, want 1 (empty and transparent points dropped)", b.len())
	}

	v := b.verts[0]
	if v.DstX != 8 || v.DstY != 8 {
		t.Errorf("top-left = (%v, %v), want (8, 8)", v.DstX, v.DstY)
	}
	if v.ColorR != 0.5 || v.ColorG != 0.25 || v.ColorA != 0.5 {
		t.Errorf("colour = (%v, %v, %v, %v), want premultiplied", v.ColorR, v.ColorG, v.ColorB, v.ColorA)
	}
	if len(b.inds) != 6 {
		t.Errorf("indices = %d, want 6", len(b.inds))
	}

	dst := ebiten.NewImage(32, 32)
	defer dst.Deallocate()
	b.flush(dst)
	if b.len() != 0 {
		t.Errorf("len() after flush = %d, want 0", b.len())
	}
}
