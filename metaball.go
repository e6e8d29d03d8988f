package backdrop

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// metaballShaderSrc sphere-traces a smooth union of a box, a torus, a capsule
// and a sphere, each tumbling on its own orbit. Misses are transparent.
const metaballShaderSrc = `//kage:unit pixels
package main

var Time float
var Resolution vec2
var Saturation float
var Value float

const degToRad = 3.14159265 / 180.0

func hsv2rgb(c vec3) vec3 {
	K := vec4(1.0, 2.0/3.0, 1.0/3.0, 3.0)
	p := abs(fract(c.xxx+K.xyz)*6.0 - K.www)
	return c.z * mix(K.xxx, clamp(p-K.xxx, 0.0, 1.0), c.y)
}

func smin(d1 float, d2 float, k float) float {
	h := exp(-k*d1) + exp(-k*d2)
	return -log(h) / k
}

func dSphere(p vec3, r float) float {
	return length(p) - r
}

func dBox(p vec3, size vec3) float {
	return length(max(abs(p)-size, 0.0))
}

func dTorus(p vec3, t vec2) float {
	q := vec2(length(p.xz)-t.x, p.y)
	return length(q) - t.y
}

func dCapsule(p vec3, a vec3, b vec3, r float) float {
	pa := p - a
	ba := b - a
	h := clamp(dot(pa, ba)/dot(ba, ba), 0.0, 1.0)
	return length(pa-ba*h) - r
}

func polar(r float, a1 float, a2 float) vec3 {
	return vec3(r*sin(a1)*cos(a2), r*sin(a1)*sin(a2), r*cos(a1))
}

func rotX(p vec3, a float) vec3 {
	c := cos(a)
	s := sin(a)
	return vec3(p.x, c*p.y+s*p.z, -s*p.y+c*p.z)
}

func rotY(p vec3, a float) vec3 {
	c := cos(a)
	s := sin(a)
	return vec3(c*p.x-s*p.z, p.y, s*p.x+c*p.z)
}

func rotZ(p vec3, a float) vec3 {
	c := cos(a)
	s := sin(a)
	return vec3(c*p.x+s*p.y, -s*p.x+c*p.y, p.z)
}

func rotate(p vec3, ax float, ay float, az float) vec3 {
	return rotX(rotY(rotZ(p, az), ay), ax)
}

func field(p vec3) float {
	t := Time * degToRad
	d1 := dBox(rotate(p, -t, t, t)+polar(2.0, t, t), vec3(1.0))
	d2 := dTorus(rotate(p, t, -t, t)+polar(2.0, -t, t), vec2(2.0, 0.3))
	d3 := dCapsule(rotate(p, t*2.0, t*2.0, -t*2.0)+polar(2.0, t, -t), vec3(1.0), vec3(-1.0), 0.4)
	d4 := dSphere(p+polar(2.0, -t, -t), 1.0)
	return smin(smin(d1, d2, 2.0), smin(d3, d4, 2.0), 2.0)
}

func normalAt(p vec3) vec3 {
	e := 0.0001
	return normalize(vec3(
		field(p+vec3(e, 0.0, 0.0))-field(p-vec3(e, 0.0, 0.0)),
		field(p+vec3(0.0, e, 0.0))-field(p-vec3(0.0, e, 0.0)),
		field(p+vec3(0.0, 0.0, e))-field(p-vec3(0.0, 0.0, e)),
	))
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := dst.xy - imageDstOrigin()
	frag := vec2(pos.x, Resolution.y-pos.y)
	uv := (frag*2.0 - Resolution) / min(Resolution.x, Resolution.y)

	camPos := vec3(0.0, 0.0, 10.0)
	camDir := vec3(0.0, 0.0, -1.0)
	camUp := vec3(0.0, 1.0, 0.0)
	camSide := cross(camDir, camUp)
	ray := normalize(camSide*uv.x + camUp*uv.y + camDir*1.8)

	d := 0.0
	travelled := 0.0
	rp := camPos
	for i := 0; i < 64; i++ {
		d = field(rp)
		travelled += d
		rp = camPos + ray*travelled
	}
	if abs(d) >= 0.001 {
		discard()
	}
	n := normalAt(rp)
	return vec4(hsv2rgb(vec3(dot(n, camUp)/4.0, Saturation, Value)), 1.0)
}
`

var metaballShader = lazyShader{name: "metaballs", src: metaballShaderSrc}

// MetaballsConfig parameterizes a Metaballs effect.
type MetaballsConfig struct {
	// Speed is the shader time added per frame. Shader time is read as
	// degrees of rotation.
	Speed      float64
	Saturation float64
	Value      float64
}

// DefaultMetaballsConfig returns the stock pastel metaballs.
func DefaultMetaballsConfig() MetaballsConfig {
	return MetaballsConfig{
		Speed:      0.05,
		Saturation: 0.5,
		Value:      0.9,
	}
}

// Metaballs is a full-surface raymarched blend of four tumbling solids,
// coloured by how far each surface normal points up.
type Metaballs struct {
	cfg    MetaballsConfig
	shader *ebiten.Shader
	time   float64
	w, h   int

	uniforms map[string]any
	op       ebiten.DrawRectShaderOptions
}

// NewMetaballs creates a metaballs effect.
func NewMetaballs(cfg MetaballsConfig) *Metaballs {
	return &Metaballs{cfg: cfg, uniforms: make(map[string]any, 4)}
}

// Name implements Effect.
func (m *Metaballs) Name() string { return "metaballs" }

// Time returns the current shader time.
func (m *Metaballs) Time() float64 { return m.time }

// Mount implements Effect.
func (m *Metaballs) Mount(w, h int) error {
	shader, err := metaballShader.get()
	if err != nil {
		return err
	}
	m.shader = shader
	m.Resize(w, h)
	return nil
}

// Resize implements Effect.
func (m *Metaballs) Resize(w, h int) {
	m.w, m.h = w, h
}

// Update implements Effect.
func (m *Metaballs) Update(*Frame) {
	m.time += m.cfg.Speed
}

// Draw implements Effect.
func (m *Metaballs) Draw(dst *ebiten.Image) {
	if m.shader == nil {
		return
	}
	m.uniforms["Time"] = float32(m.time)
	m.uniforms["Resolution"] = []float32{float32(m.w), float32(m.h)}
	m.uniforms["Saturation"] = float32(m.cfg.Saturation)
	m.uniforms["Value"] = float32(m.cfg.Value)
	m.op.Uniforms = m.uniforms
	dst.DrawRectShader(m.w, m.h, m.shader, &m.op)
}

// Dispose implements Effect.
func (m *Metaballs) Dispose() {
	m.shader = nil
	m.time = 0
}
