package backdrop

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestNewBlurFilterClampsRadius(t *testing.T) {
	if f := NewBlurFilter(-3); f.Radius != 0 {
		t.Errorf("Radius = %d, want 0", f.Radius)
	}
	if f := NewBlurFilter(24); f.Radius != 24 {
		t.Errorf("Radius = %d, want 24", f.Radius)
	}
}

func TestNewBloomFilter(t *testing.T) {
	f := NewBloomFilter(0.1, 1.2, 24)
	if f.Strength != 1.2 {
		t.Errorf("Strength = %v, want 1.2", f.Strength)
	}
	if f.bright.Threshold != 0.1 || f.blur.Radius != 24 {
		t.Errorf("bloom stages = (threshold %v, radius %d), want (0.1, 24)", f.bright.Threshold, f.blur.Radius)
	}
	f.Dispose()
}

func TestApplyFiltersEmptyChain(t *testing.T) {
	var pool renderTexturePool
	src := ebiten.NewImage(8, 8)
	defer src.Deallocate()

	result, scratch := applyFilters(nil, src, &pool)
	if result != src || scratch != nil {
		t.Errorf("empty chain = (%p, %v), want src and no scratch", result, scratch)
	}
}

type recordingFilter struct {
	calls int
	srcs  []*ebiten.Image
}

func (f *recordingFilter) Apply(src, dst *ebiten.Image) {
	f.calls++
	f.srcs = append(f.srcs, src)
}

func TestApplyFiltersPingPong(t *testing.T) {
	var pool renderTexturePool
	src := ebiten.NewImage(30, 20)
	defer src.Deallocate()

	a, b := &recordingFilter{}, &recordingFilter{}
	result, scratch := applyFilters([]Filter{a, b}, src, &pool)
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls = (%d, %d), want (1, 1)", a.calls, b.calls)
	}
	if a.srcs[0] != src {
		t.Error("first filter did not read src")
	}
	if b.srcs[0] == src || b.srcs[0] == result {
		t.Error("second filter should read the first filter's output")
	}
	if len(scratch) != 2 {
		t.Errorf("len(scratch) = %d, want 2", len(scratch))
	}
	if got := result.Bounds(); got.Dx() != 30 || got.Dy() != 20 {
		t.Errorf("result bounds = %v, want 30x20", got)
	}
	for _, img := range scratch {
		pool.Release(img)
	}
	if pool.Len() != 2 {
		t.Errorf("pool.Len() = %d, want 2", pool.Len())
	}
	pool.Dispose()
}

func TestLazyShaderCachesFailure(t *testing.T) {
	l := lazyShader{name: "broken", src: "this is not kage"}
	_, err := l.get()
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("err = %v, want ErrSurfaceUnavailable", err)
	}
	_, err2 := l.get()
	if err2 != err {
		t.Errorf("second get returned %v, want the cached error", err2)
	}
}
