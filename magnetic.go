package backdrop

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// magneticShaderSrc draws a spiral vortex centred on the pointer over
// simplex-noise turbulence, cycling through four blues.
const magneticShaderSrc = `//kage:unit pixels
package main

var Time float
var Resolution vec2
var Mouse vec2

func mod289v3(x vec3) vec3 {
	return x - floor(x*(1.0/289.0))*289.0
}

func mod289v2(x vec2) vec2 {
	return x - floor(x*(1.0/289.0))*289.0
}

func permute(x vec3) vec3 {
	return mod289v3(((x*34.0)+1.0)*x)
}

func snoise(v vec2) float {
	C := vec4(0.211324865405187, 0.366025403784439, -0.577350269189626, 0.024390243902439)
	i := floor(v + dot(v, C.yy))
	x0 := v - i + dot(i, C.xx)
	i1 := vec2(0.0, 1.0)
	if x0.x > x0.y {
		i1 = vec2(1.0, 0.0)
	}
	x12 := x0.xyxy + C.xxzz
	x12.xy -= i1
	i = mod289v2(i)
	p := permute(permute(i.y+vec3(0.0, i1.y, 1.0)) + i.x + vec3(0.0, i1.x, 1.0))
	m := max(0.5-vec3(dot(x0, x0), dot(x12.xy, x12.xy), dot(x12.zw, x12.zw)), vec3(0.0))
	m = m * m
	m = m * m
	x := 2.0*fract(p*C.www) - 1.0
	h := abs(x) - 0.5
	ox := floor(x + 0.5)
	a0 := x - ox
	m *= 1.79284291400159 - 0.85373472095314*(a0*a0+h*h)
	var g vec3
	g.x = a0.x*x0.x + h.x*x0.y
	g.yz = a0.yz*x12.xz + h.yz*x12.yw
	return 130.0 * dot(m, g)
}

func fbm(v vec2) float {
	p := v
	total := 0.0
	amplitude := 0.5
	for i := 0; i < 6; i++ {
		total += snoise(p) * amplitude
		p *= 2.0
		amplitude *= 0.5
	}
	return total
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := dst.xy - imageDstOrigin()
	uv := vec2(pos.x/Resolution.x, 1.0-pos.y/Resolution.y)*2.0 - 1.0
	aspect := Resolution.x / Resolution.y
	uv.x *= aspect
	m := Mouse*2.0 - 1.0
	m.x *= aspect

	dist := length(uv - m)
	distortion := (1.0 - smoothstep(0.0, 0.4, dist)) * 0.6
	dir := vec2(1.0, 0.0)
	if dist > 0.00001 {
		dir = (uv - m) / dist
	}
	angle := atan2(dir.y, dir.x)
	spiral := sin(angle*8.0 - dist*10.0 + Time*4.0)
	duv := uv + dir*(distortion+spiral*distortion*0.5)
	turbulence := fbm(duv*2.0 + vec2(Time*0.5))
	pattern := sin(angle*3.5-Time*2.5) * turbulence

	c1 := vec3(0.15, 0.25, 0.9)
	c2 := vec3(0.4, 0.5, 0.95)
	c3 := vec3(0.6, 0.7, 1.0)
	c4 := vec3(0.2, 0.3, 0.8)
	var clr vec3
	if pattern < -0.33 {
		clr = mix(c1, c2, (pattern+1.0)/0.67)
	} else if pattern < 0.0 {
		clr = mix(c2, c3, pattern/0.33)
	} else if pattern < 0.33 {
		clr = mix(c3, c4, pattern/0.33)
	} else {
		clr = mix(c4, c1, (pattern-0.33)/0.67)
	}

	glow := exp(-dist*8.0) * (0.8 + spiral*0.2)
	clr += vec3(glow)
	clr = pow(max(clr, vec3(0.0)), vec3(0.9))
	clr = min(clr*0.6, vec3(1.0))
	return vec4(clr*0.7, 0.7)
}
`

var magneticShader = lazyShader{name: "magnetic", src: magneticShaderSrc}

// MagneticConfig parameterizes a Magnetic effect.
type MagneticConfig struct {
	BloomThreshold float64
	BloomStrength  float64
	// BloomRadius is in the 0..1 range; it is scaled to a blur radius of up
	// to 40 pixels.
	BloomRadius float64
}

// DefaultMagneticConfig returns the stock bloom settings.
func DefaultMagneticConfig() MagneticConfig {
	return MagneticConfig{
		BloomThreshold: 0.1,
		BloomStrength:  1.2,
		BloomRadius:    0.6,
	}
}

// Magnetic is a full-surface spiral field that swirls around the pointer,
// post-processed with bloom.
type Magnetic struct {
	cfg    MagneticConfig
	shader *ebiten.Shader
	canvas *RenderTexture
	bloom  *BloomFilter
	pool   renderTexturePool

	filters     []Filter
	uniforms    map[string]any
	op          ebiten.DrawRectShaderOptions
	compositeOp ebiten.DrawImageOptions

	mouse, mouseTarget Vec2
	time               float64
}

// NewMagnetic creates a magnetic wave effect.
func NewMagnetic(cfg MagneticConfig) *Magnetic {
	return &Magnetic{
		cfg:         cfg,
		uniforms:    make(map[string]any, 3),
		mouse:       Vec2{0.5, 0.5},
		mouseTarget: Vec2{0.5, 0.5},
	}
}

// Name implements Effect.
func (m *Magnetic) Name() string { return "magnetic" }

// Mouse returns the smoothed pointer, Y up. It may leave [0, 1] by half a
// surface in each direction.
func (m *Magnetic) Mouse() Vec2 { return m.mouse }

// Mount implements Effect.
func (m *Magnetic) Mount(w, h int) error {
	shader, err := magneticShader.get()
	if err != nil {
		return err
	}
	m.bloom = NewBloomFilter(m.cfg.BloomThreshold, m.cfg.BloomStrength, int(m.cfg.BloomRadius*40))
	if err := m.bloom.Prepare(); err != nil {
		return err
	}
	m.shader = shader
	m.filters = []Filter{m.bloom}
	m.canvas = NewRenderTexture(w, h)
	return nil
}

// Resize implements Effect.
func (m *Magnetic) Resize(w, h int) {
	if m.canvas != nil {
		m.canvas.Resize(w, h)
	}
}

// Update implements Effect.
func (m *Magnetic) Update(f *Frame) {
	m.time = f.Time
	if f.Pointer.Active() {
		n := f.Pointer.Normalized(f.Width, f.Height)
		m.mouseTarget = Vec2{clamp(n.X, -0.5, 1.5), clamp(1-n.Y, -0.5, 1.5)}
	}
	m.mouse.X += (m.mouseTarget.X - m.mouse.X) * 0.08
	m.mouse.Y += (m.mouseTarget.Y - m.mouse.Y) * 0.08
}

// Draw implements Effect.
func (m *Magnetic) Draw(dst *ebiten.Image) {
	if m.shader == nil {
		return
	}
	m.canvas.Clear()
	img := m.canvas.Image()
	w, h := m.canvas.Width(), m.canvas.Height()
	m.uniforms["Time"] = float32(m.time)
	m.uniforms["Resolution"] = []float32{float32(w), float32(h)}
	m.uniforms["Mouse"] = []float32{float32(m.mouse.X), float32(m.mouse.Y)}
	m.op.Uniforms = m.uniforms
	img.DrawRectShader(w, h, m.shader, &m.op)

	result, scratch := applyFilters(m.filters, img, &m.pool)
	m.compositeOp.GeoM.Reset()
	dst.DrawImage(result, &m.compositeOp)
	for _, s := range scratch {
		m.pool.Release(s)
	}
}

// Dispose implements Effect.
func (m *Magnetic) Dispose() {
	if m.canvas != nil {
		m.canvas.Dispose()
		m.canvas = nil
	}
	if m.bloom != nil {
		m.bloom.Dispose()
		m.bloom = nil
	}
	m.pool.Dispose()
	m.filters = nil
	m.shader = nil
}
