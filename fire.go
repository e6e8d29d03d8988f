package backdrop

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
)

// FireGrid is a cellular-automaton fire. Row 0 is the bottom. Each step the
// two bottom rows are re-ignited at random and every other interior cell
// becomes a decayed average of itself and the three cells one and two rows
// below it. Values stay in [0, 1]; above the ignition rows they stay below 1.
type FireGrid struct {
	W, H  int
	Cells []float64
	// Decay is the divisor of the eight-term weighted sum. Values above 8
	// make the flame cool as it rises.
	Decay float64
	// IgniteChance is the per-column probability that a bottom cell burns.
	IgniteChance float64
}

// NewFireGrid creates a cold w x h grid with the stock decay and ignition
// chance.
func NewFireGrid(w, h int) *FireGrid {
	w, h = max(w, 3), max(h, 3)
	return &FireGrid{
		W:            w,
		H:            h,
		Cells:        make([]float64, w*h),
		Decay:        8.05,
		IgniteChance: 0.6,
	}
}

// At returns the value at (x, y), or 0 outside the grid.
func (g *FireGrid) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}
	return g.Cells[y*g.W+x]
}

// Step advances the simulation by one frame. Rows are updated bottom-up in
// place, so each row propagates from rows already stepped this frame.
func (g *FireGrid) Step(rng *rand.Rand) {
	w := g.W
	for x := 1; x < w-1; x++ {
		v := 0.0
		if rng.Float64() < g.IgniteChance {
			v = 1
		}
		g.Cells[x] = v
		g.Cells[w+x] = v
	}
	for y := 2; y < g.H; y++ {
		row := g.Cells[y*w : (y+1)*w]
		b1 := g.Cells[(y-1)*w : y*w]
		b2 := g.Cells[(y-2)*w : (y-1)*w]
		for x := 1; x < w-1; x++ {
			sum := 2*row[x] +
				b1[x-1] + b1[x] + b1[x+1] +
				b2[x-1] + b2[x] + b2[x+1]
			row[x] = sum / g.Decay
		}
	}
}

// Reset cools every cell.
func (g *FireGrid) Reset() {
	clear(g.Cells)
}

// firePalette maps a heat index to colour: black, blue, red, orange, yellow,
// then white. Components are authored on a 0-63 scale.
var firePalette = buildFirePalette()

func buildFirePalette() [256]Color {
	var p [256]Color
	set := func(i int, r, g, b float64) {
		p[i] = Color{r / 63, g / 63, b / 63, 1}
	}
	for i := 0; i < 16; i++ {
		f := float64(i)
		set(i, f, f, f/2)
		set(i+16, f+16, f+16, f+32)
		set(i+32, f+32, 31-f/2, 31-f/2)
		set(i+48, 23-f/2, 23-f/2, 31-f)
	}
	for i := 0; i < 32; i++ {
		f := float64(i)
		set(i+64, f/2+16, 16, 15)
		set(i+96, f+32, 16, 15-f/2)
		set(i+128, 63, 16+f/2, 0)
		set(i+160, 63, f+43, f)
		set(i+192, 63, 63, f+32)
		set(i+224, 63, 63, 63)
	}
	return p
}

// FireColor returns the palette colour for a cell value.
func FireColor(v float64) Color {
	idx := int(math.Floor(v * 255))
	return firePalette[max(min(idx, 255), 0)]
}

// Kage luminance-keyed fragment: dark vertex colours fade to transparent.
const fireShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	lum := dot(color.rgb, vec3(0.299, 0.587, 0.114))
	a := smoothstep(0.05, 0.25, lum)
	return vec4(color.rgb*a, a)
}
`

var fireShader = lazyShader{name: "fire", src: fireShaderSrc}

// FireConfig parameterizes a Fire effect.
type FireConfig struct {
	// Width and Height are the mesh size in cells.
	Width, Height int
	// Scale is the number of simulation cells per mesh cell along each axis.
	Scale        int
	Decay        float64
	IgniteChance float64
	Seed         uint64
}

// DefaultFireConfig returns a 20x20 mesh over a 400x400 simulation.
func DefaultFireConfig() FireConfig {
	return FireConfig{
		Width:        20,
		Height:       20,
		Scale:        20,
		Decay:        8.05,
		IgniteChance: 0.6,
		Seed:         1,
	}
}

// fireSamples are the grid offsets sampled by the left, bottom, right and
// top triangle of each mesh cell.
var fireSamples = [4]Vec2{{0.2, 0.5}, {0.5, 0.2}, {0.8, 0.5}, {0.5, 0.8}}

// Fire renders a FireGrid onto a tilted mesh of pyramidal cells: four
// triangles per cell meeting at a raised centre, each coloured from one
// sample of the simulation.
type Fire struct {
	cfg    FireConfig
	grid   *FireGrid
	rng    *rand.Rand
	camera *PerspectiveCamera
	shader *ebiten.Shader
	batch  triangleBatch
	op     ebiten.DrawTrianglesShaderOptions

	// Mesh corner and centre positions in world space, indexed by
	// (row*(Width+1) + col) and (row*Width + col) respectively.
	corners []Vec3
	centres []Vec3
}

// NewFire creates a fire effect.
func NewFire(cfg FireConfig) *Fire {
	return &Fire{
		cfg:    cfg,
		camera: NewPerspectiveCamera(75, 1, 1000, Vec3{0, 4, 12}),
	}
}

// Name implements Effect.
func (f *Fire) Name() string { return "fire" }

// Grid returns the simulation grid.
func (f *Fire) Grid() *FireGrid { return f.grid }

// Camera returns the effect camera.
func (f *Fire) Camera() *PerspectiveCamera { return f.camera }

// Mount implements Effect.
func (f *Fire) Mount(w, h int) error {
	shader, err := fireShader.get()
	if err != nil {
		return err
	}
	f.shader = shader

	cw, ch, scale := max(f.cfg.Width, 1), max(f.cfg.Height, 1), max(f.cfg.Scale, 1)
	f.grid = NewFireGrid(cw*scale, ch*scale)
	if f.cfg.Decay > 0 {
		f.grid.Decay = f.cfg.Decay
	}
	f.grid.IgniteChance = f.cfg.IgniteChance
	f.rng = rand.New(rand.NewPCG(f.cfg.Seed, f.cfg.Seed+1))
	f.buildMesh(cw, ch)

	f.camera.Target = Vec3{0, 1, 0}
	f.Resize(w, h)
	return nil
}

// buildMesh lays out the cell mesh centred on the origin and tilted about X.
func (f *Fire) buildMesh(cw, ch int) {
	centre := Vec3{float64(cw) / 2, float64(ch) / 2, 0.05}
	place := func(x, y, z float64) Vec3 {
		return Vec3{x, y, z}.Sub(centre).RotateX(0.2)
	}
	f.corners = make([]Vec3, (cw+1)*(ch+1))
	for y := 0; y <= ch; y++ {
		for x := 0; x <= cw; x++ {
			f.corners[y*(cw+1)+x] = place(float64(x), float64(y), 0)
		}
	}
	f.centres = make([]Vec3, cw*ch)
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			f.centres[y*cw+x] = place(float64(x)+0.5, float64(y)+0.5, 0.1)
		}
	}
}

// Resize implements Effect.
func (f *Fire) Resize(w, h int) {
	f.camera.SetViewport(w, h)
}

// Update implements Effect.
func (f *Fire) Update(fr *Frame) {
	f.grid.Step(f.rng)

	f.camera.Position.X = math.Sin(fr.Time*0.2) * 2
	f.camera.MarkDirty()

	f.buildTriangles()
}

func (f *Fire) sample(gx, gy float64) Color {
	scale := float64(max(f.cfg.Scale, 1))
	return FireColor(f.grid.At(int(gx*scale), int(gy*scale)))
}

func (f *Fire) buildTriangles() {
	f.batch.reset()
	cw, ch := max(f.cfg.Width, 1), max(f.cfg.Height, 1)
	var pa, pb, pc, pd, pe [2]float64
	project := func(p Vec3, out *[2]float64) bool {
		x, y, _, ok := f.camera.Project(p)
		out[0], out[1] = x, y
		return ok
	}
	tri := func(a, b, c [2]float64, col Color) {
		f.batch.addTriangle(vertex(a[0], a[1], col), vertex(b[0], b[1], col), vertex(c[0], c[1], col))
	}

	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			ok := project(f.corners[y*(cw+1)+x], &pa) &&
				project(f.corners[(y+1)*(cw+1)+x], &pb) &&
				project(f.centres[y*cw+x], &pc) &&
				project(f.corners[y*(cw+1)+x+1], &pd) &&
				project(f.corners[(y+1)*(cw+1)+x+1], &pe)
			if !ok {
				continue
			}
			fx, fy := float64(x), float64(y)
			s := fireSamples
			tri(pa, pc, pb, f.sample(fx+s[0].X, fy+s[0].Y))
			tri(pa, pd, pc, f.sample(fx+s[1].X, fy+s[1].Y))
			tri(pd, pe, pc, f.sample(fx+s[2].X, fy+s[2].Y))
			tri(pb, pc, pe, f.sample(fx+s[3].X, fy+s[3].Y))
		}
	}
}

// Draw implements Effect.
func (f *Fire) Draw(dst *ebiten.Image) {
	if f.shader == nil {
		return
	}
	f.batch.drawListShader(dst, f.shader, &f.op)
}

// Dispose implements Effect.
func (f *Fire) Dispose() {
	f.grid = nil
	f.corners = nil
	f.centres = nil
	f.batch = triangleBatch{}
	f.shader = nil
}
