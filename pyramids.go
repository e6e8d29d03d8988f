package backdrop

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
)

// PyramidsConfig parameterizes a Pyramids effect.
type PyramidsConfig struct {
	// Particles is the point count of each pyramid.
	Particles int
	// BaseSize is the half-width of each square base.
	BaseSize float64
	Height   float64
	// EdgeRatio is the fraction of particles placed on edges rather than
	// faces.
	EdgeRatio    float64
	UpperPalette []Color
	LowerPalette []Color
	// OrbitSpeed is the camera's automatic orbit in radians per frame.
	OrbitSpeed float64
	// FogDensity darkens distant points exponentially squared.
	FogDensity float64
	Seed       uint64
}

// DefaultPyramidsConfig returns neon pyramids on black.
func DefaultPyramidsConfig() PyramidsConfig {
	return PyramidsConfig{
		Particles: 8000,
		BaseSize:  300,
		Height:    400,
		EdgeRatio: 0.3,
		UpperPalette: []Color{
			{1, 0.2, 0.6, 1},
			{0.8, 0, 1, 1},
			{1, 0.4, 0, 1},
		},
		LowerPalette: []Color{
			{0, 1, 0.8, 1},
			{0, 0.8, 1, 1},
			{0.2, 0.4, 1, 1},
		},
		OrbitSpeed: 2 * math.Pi / 3600 * 0.5,
		FogDensity: 0.0002,
		Seed:       1,
	}
}

// PyramidParticle is one point of a pyramid layer in the layer's local
// frame. The apex of the upper layer points up and the lower layer down.
type PyramidParticle struct {
	Pos   Vec3
	Color Color
	Size  float64
}

// GeneratePyramidLayer scatters cfg.Particles points over the edges and faces
// of a square pyramid. upper selects the palette and the apex direction.
func GeneratePyramidLayer(cfg PyramidsConfig, upper bool, rng *rand.Rand) []PyramidParticle {
	palette := cfg.LowerPalette
	if upper {
		palette = cfg.UpperPalette
	}
	b, h := cfg.BaseSize, cfg.Height
	corners := [4]Vec2{{b, b}, {-b, b}, {-b, -b}, {b, -b}}

	pts := make([]PyramidParticle, max(cfg.Particles, 0))
	for i := range pts {
		var x, y, z float64
		if rng.Float64() < cfg.EdgeRatio {
			edge := rng.IntN(8)
			t := rng.Float64()
			if edge < 4 {
				c1, c2 := corners[edge], corners[(edge+1)%4]
				x = lerp(c1.X, c2.X, t)
				z = lerp(c1.Y, c2.Y, t)
			} else {
				c := corners[edge-4]
				x, z = c.X*(1-t), c.Y*(1-t)
				y = h * t
			}
		} else {
			face := rng.IntN(5)
			u, v := rng.Float64(), rng.Float64()
			if face == 0 {
				x = b * (2*u - 1)
				z = b * (2*v - 1)
			} else {
				if u+v > 1 {
					u, v = 1-u, 1-v
				}
				c, next := corners[face-1], corners[face%4]
				x = c.X*(1-u-v) + next.X*u
				z = c.Y*(1-u-v) + next.Y*v
				y = h * (1 - math.Max(u, v))
			}
		}
		if !upper {
			y = -y
		}

		var col Color
		if len(palette) > 0 {
			col = palette[rng.IntN(len(palette))]
		}
		col.R = clamp01(col.R + (rng.Float64()-0.5)*0.1)
		col.G = clamp01(col.G + (rng.Float64()-0.5)*0.1)
		col.B = clamp01(col.B + (rng.Float64()-0.5)*0.1)
		col.A = 1

		pts[i] = PyramidParticle{
			Pos:   Vec3{x, y, z},
			Color: col,
			Size:  rng.Float64()*3 + 1,
		}
	}
	return pts
}

type pyramidLayer struct {
	particles []PyramidParticle
	offsetY   float64
	spin      float64
}

// Pyramids is a pair of glowing point-cloud pyramids joined at their bases.
// Each layer spins its own way; points spiral around the pointer and swell
// while the pointer hovers.
type Pyramids struct {
	cfg    PyramidsConfig
	camera *PerspectiveCamera
	layers [2]pyramidLayer
	batch  *pointBatch

	time   float64
	orbit  float64
	mouse  Vec2
	hover  float64
	bright float64
}

// NewPyramids creates a twin-pyramid effect.
func NewPyramids(cfg PyramidsConfig) *Pyramids {
	return &Pyramids{
		cfg:    cfg,
		camera: NewPerspectiveCamera(75, 1, 5000, Vec3{0, 400, 1000}),
		bright: 1,
	}
}

// Name implements Effect.
func (p *Pyramids) Name() string { return "pyramids" }

// Camera returns the effect camera.
func (p *Pyramids) Camera() *PerspectiveCamera { return p.camera }

// Hover returns the hover intensity in [0, 1].
func (p *Pyramids) Hover() float64 { return p.hover }

// Mount implements Effect.
func (p *Pyramids) Mount(w, h int) error {
	rng := rand.New(rand.NewPCG(p.cfg.Seed, p.cfg.Seed^0x5851f42d4c957f2d))
	half := p.cfg.Height / 2
	p.layers[0] = pyramidLayer{particles: GeneratePyramidLayer(p.cfg, true, rng), offsetY: half, spin: 1}
	p.layers[1] = pyramidLayer{particles: GeneratePyramidLayer(p.cfg, false, rng), offsetY: -half, spin: -1}
	p.batch = newPointBatch(BlendAdd)
	p.Resize(w, h)
	return nil
}

// Resize implements Effect.
func (p *Pyramids) Resize(w, h int) {
	p.camera.SetViewport(w, h)
}

// Update implements Effect.
func (p *Pyramids) Update(f *Frame) {
	p.time = f.Time
	step := -0.1
	if f.Pointer.Active() {
		step = 0.1
		hw, hh := float64(f.Width)/2, float64(f.Height)/2
		p.mouse = Vec2{(f.Pointer.X - hw) / hw * 0.5, -(f.Pointer.Y - hh) / hh * 0.5}
	}
	p.hover = clamp01(p.hover + step)
	p.bright = 1 + 0.8*p.hover*(1+math.Sin(p.time*4)*0.35)

	p.orbit += p.cfg.OrbitSpeed
	pos := p.camera.Position
	r := math.Hypot(pos.X, pos.Z)
	p.camera.LookAt(Vec3{math.Sin(p.orbit) * r, pos.Y, math.Cos(p.orbit) * r}, Vec3{})
}

// displace animates a particle in its layer frame. It returns the moved
// position, the hover influence at that point and the point-size factor.
func (p *Pyramids) displace(pt *PyramidParticle, spin float64) (Vec3, float64, float64) {
	t := p.time
	pos := pt.Pos.RotateY(-spin * t * 0.3)

	wave := math.Sin(t*2.5 + pos.Len()*0.08)
	heightFactor := math.Abs(pt.Pos.Y / p.cfg.Height)
	pos = pos.Mul(1 + wave*0.05*(1-heightFactor))

	mx, my := p.mouse.X*150, p.mouse.Y*150
	influence := smoothstep(500, 0, math.Hypot(pos.X-mx, pos.Y-my))
	sa := t*3 + pos.Len()*0.15
	pos.X += math.Cos(sa) * influence * 25
	pos.Y += math.Sin(sa) * influence * 25

	hi := smoothstep(300, 0, math.Hypot(pos.X-mx, pos.Y-my))
	pos.X += p.mouse.X * hi * 35 * p.hover
	pos.Y += p.mouse.Y * hi * 35 * p.hover
	pos.Y += math.Sin(t*4+pos.Len()*0.1) * p.hover * 10 * hi

	size := (1 + hi*3.5*p.hover) * (1 + math.Sin(t*5+pos.Len()*0.2)*0.3*p.hover)
	return pos, hi, size
}

// Draw implements Effect.
func (p *Pyramids) Draw(dst *ebiten.Image) {
	glow := 1 + 0.5*(0.8+0.2*math.Sin(p.time*3))
	for li := range p.layers {
		layer := &p.layers[li]
		for i := range layer.particles {
			pt := &layer.particles[i]
			local, hi, sizeK := p.displace(pt, layer.spin)
			local.Y += layer.offsetY
			sx, sy, depth, ok := p.camera.Project(local)
			if !ok {
				continue
			}
			fd := p.cfg.FogDensity * depth
			k := glow * p.bright * (1 + hi*0.3) * math.Exp(-fd*fd)
			c := pt.Color.Scale(k)
			c = Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(0.9 * (1 + hi*0.5))}
			size := pt.Size * sizeK * 300 / depth
			p.batch.add(sx, sy, size, size, c)
		}
	}
	p.batch.flush(dst)
}

// Dispose implements Effect.
func (p *Pyramids) Dispose() {
	if p.batch != nil {
		p.batch.dispose()
		p.batch = nil
	}
	p.layers = [2]pyramidLayer{}
}
