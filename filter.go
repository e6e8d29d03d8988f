package backdrop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is a full-surface post-process pass.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
}

// --- Kage shader sources ---
// All shaders use //kage:unit pixels as required by Ebitengine.
// Ebitengine uses premultiplied alpha; shaders un-premultiply before processing
// and re-premultiply output where needed.

const brightPassShaderSrc = `//kage:unit pixels
package main

var Threshold float
var Knee float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return vec4(0)
	}
	c.rgb /= c.a
	lum := dot(c.rgb, vec3(0.299, 0.587, 0.114))
	w := smoothstep(Threshold, Threshold+Knee, lum)
	a := c.a * w
	return vec4(c.rgb*a, a)
}
`

var brightPassShader = lazyShader{name: "bright pass", src: brightPassShaderSrc}

// --- BlurFilter ---

// BlurFilter applies a Kawase iterative blur using downscale/upscale passes.
// No Kage shader needed: bilinear filtering during DrawImage does the work.
type BlurFilter struct {
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlurFilter creates a blur filter with the given radius (in pixels).
func NewBlurFilter(radius int) *BlurFilter {
	if radius < 0 {
		radius = 0
	}
	return &BlurFilter{Radius: radius}
}

// Apply renders a Kawase blur from src into dst using iterative downscale/upscale.
func (f *BlurFilter) Apply(src, dst *ebiten.Image) {
	if f.Radius <= 0 {
		f.imgOp.GeoM.Reset()
		f.imgOp.ColorScale.Reset()
		f.imgOp.Filter = ebiten.FilterNearest
		dst.DrawImage(src, &f.imgOp)
		return
	}

	// Number of iterations: log2(radius), minimum 1.
	passes := int(math.Ceil(math.Log2(float64(f.Radius))))
	if passes < 1 {
		passes = 1
	}

	srcBounds := src.Bounds()
	w, h := srcBounds.Dx(), srcBounds.Dy()

	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	// Deallocate excess temp images from previous larger radius.
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	// Downscale passes: each half-size
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		if f.temps[i] == nil || f.temps[i].Bounds().Dx() != w || f.temps[i].Bounds().Dy() != h {
			if f.temps[i] != nil {
				f.temps[i].Deallocate()
			}
			f.temps[i] = ebiten.NewImage(w, h)
		} else {
			f.temps[i].Clear()
		}
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}

	// Upscale passes: draw each back up
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}

	f.scaleInto(dst, current)
}

func (f *BlurFilter) scaleInto(dst, src *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	sb, db := src.Bounds(), dst.Bounds()
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// Dispose releases the intermediate images.
func (f *BlurFilter) Dispose() {
	for i, img := range f.temps {
		if img != nil {
			img.Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:0]
}

// --- BrightPassFilter ---

// BrightPassFilter keeps only pixels whose luminance exceeds Threshold,
// fading in over Knee.
type BrightPassFilter struct {
	Threshold float64
	Knee      float64
	uniforms  map[string]any
	shaderOp  ebiten.DrawRectShaderOptions
}

// NewBrightPassFilter creates a bright-pass filter.
func NewBrightPassFilter(threshold float64) *BrightPassFilter {
	return &BrightPassFilter{
		Threshold: threshold,
		Knee:      0.01,
		uniforms:  make(map[string]any, 2),
	}
}

// Apply writes the bright regions of src into dst. It is a no-op if the
// shader failed to compile; callers check Prepare at mount time.
func (f *BrightPassFilter) Apply(src, dst *ebiten.Image) {
	shader, err := brightPassShader.get()
	if err != nil {
		return
	}
	// Scalar float32 boxing is unavoidable with Ebitengine's uniform API.
	f.uniforms["Threshold"] = float32(f.Threshold)
	f.uniforms["Knee"] = float32(f.Knee)
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
}

// Prepare compiles the shader, reporting ErrSurfaceUnavailable on failure.
func (f *BrightPassFilter) Prepare() error {
	_, err := brightPassShader.get()
	return err
}

// --- BloomFilter ---

// BloomFilter adds a glow around bright areas: bright pass, Kawase blur,
// then an additive composite of the blurred highlights over the source
// scaled by Strength.
type BloomFilter struct {
	Strength float64
	bright   *BrightPassFilter
	blur     *BlurFilter
	pool     renderTexturePool
	imgOp    ebiten.DrawImageOptions
}

// NewBloomFilter creates a bloom filter with the given bright-pass threshold,
// composite strength and blur radius in pixels.
func NewBloomFilter(threshold, strength float64, radiusPx int) *BloomFilter {
	return &BloomFilter{
		Strength: strength,
		bright:   NewBrightPassFilter(threshold),
		blur:     NewBlurFilter(radiusPx),
	}
}

// Prepare compiles the bloom shaders.
func (f *BloomFilter) Prepare() error {
	return f.bright.Prepare()
}

// Apply draws src plus its bloom into dst.
func (f *BloomFilter) Apply(src, dst *ebiten.Image) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	brightImg, bright := f.pool.AcquireExact(w, h)
	blurImg, blurred := f.pool.AcquireExact(w, h)
	f.bright.Apply(src, bright)
	f.blur.Apply(bright, blurred)

	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.Blend = ebiten.BlendSourceOver
	op.Filter = ebiten.FilterNearest
	dst.DrawImage(src, op)

	s := float32(f.Strength)
	op.ColorScale.Scale(s, s, s, s)
	op.Blend = ebiten.BlendLighter
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(blurred, op)

	f.pool.Release(brightImg)
	f.pool.Release(blurImg)
}

// Dispose releases the pooled and intermediate images.
func (f *BloomFilter) Dispose() {
	f.blur.Dispose()
	f.pool.Dispose()
}

// applyFilters runs a filter chain on src, ping-ponging between pooled
// scratch images. Returns the image holding the final result and the pooled
// scratch images the caller must release once it has drawn the result.
func applyFilters(filters []Filter, src *ebiten.Image, pool *renderTexturePool) (result *ebiten.Image, scratch []*ebiten.Image) {
	if len(filters) == 0 {
		return src, nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	current := src
	for _, f := range filters {
		pooled, view := pool.AcquireExact(w, h)
		scratch = append(scratch, pooled)
		f.Apply(current, view)
		current = view
	}
	return current, scratch
}
