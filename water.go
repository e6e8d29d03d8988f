package backdrop

import (
	"cmp"
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ojrac/opensimplex-go"
)

// maxWaterSegments keeps a full water mesh inside one uint16 draw call.
const maxWaterSegments = 127

// WaterConfig parameterizes a Water effect.
type WaterConfig struct {
	Size     float64
	Segments int

	BigElevation    float64
	BigFrequency    Vec2
	BigSpeed        float64
	SmallElevation  float64
	SmallFrequency  float64
	SmallSpeed      float64
	SmallIterations int

	DepthColor      Color
	SurfaceColor    Color
	ColorOffset     float64
	ColorMultiplier float64
	FogColor        Color
	FogNear         float64
	FogFar          float64
	Alpha           float64

	Seed int64
}

// DefaultWaterConfig returns a calm teal sea under grey fog.
func DefaultWaterConfig() WaterConfig {
	return WaterConfig{
		Size:            12,
		Segments:        96,
		BigElevation:    0.2,
		BigFrequency:    Vec2{4, 2},
		BigSpeed:        0.75,
		SmallElevation:  0.15,
		SmallFrequency:  3,
		SmallSpeed:      0.2,
		SmallIterations: 4,
		DepthColor:      MustHexColor("#1e4d40"),
		SurfaceColor:    MustHexColor("#4d9aaa"),
		ColorOffset:     0.08,
		ColorMultiplier: 5,
		FogColor:        MustHexColor("#8e99a2"),
		FogNear:         1,
		FogFar:          3,
		Alpha:           0.9,
		Seed:            1,
	}
}

type waterVertex struct {
	sx, sy float64
	depth  float64
	ok     bool
	color  Color
}

type waterQuad struct {
	tl    int
	depth float64
}

// Water is a tessellated sea surface. Heights combine two crossed sine
// swells, a ripple around the smoothed pointer and layered noise chop; the
// camera orbits gently with the pointer.
type Water struct {
	cfg    WaterConfig
	noise  opensimplex.Noise
	grid   *PlaneGrid
	camera *PerspectiveCamera

	mouse, mouseTarget Vec2
	time               float64

	verts []waterVertex
	quads []waterQuad
	batch triangleBatch
	op    ebiten.DrawTrianglesOptions
}

// NewWater creates a water effect.
func NewWater(cfg WaterConfig) *Water {
	return &Water{
		cfg:         cfg,
		camera:      NewPerspectiveCamera(75, 0.1, 100, Vec3{1.5, 1.2, 1.5}),
		mouse:       Vec2{0.5, 0.5},
		mouseTarget: Vec2{0.5, 0.5},
	}
}

// Name implements Effect.
func (w *Water) Name() string { return "water" }

// Camera returns the effect camera.
func (w *Water) Camera() *PerspectiveCamera { return w.camera }

// Mouse returns the smoothed pointer in [0, 1], Y up.
func (w *Water) Mouse() Vec2 { return w.mouse }

// Mount implements Effect.
func (w *Water) Mount(width, height int) error {
	segs := min(max(w.cfg.Segments, 1), maxWaterSegments)
	w.noise = opensimplex.New(w.cfg.Seed)
	w.grid = NewPlaneGrid(w.cfg.Size, segs)
	w.verts = make([]waterVertex, len(w.grid.Pos))
	w.quads = make([]waterQuad, 0, segs*segs)
	w.op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	w.Resize(width, height)
	return nil
}

// Resize implements Effect.
func (w *Water) Resize(width, height int) {
	w.camera.SetViewport(width, height)
}

// Elevation returns the surface height at (x, z) for time t with the current
// smoothed pointer.
func (w *Water) Elevation(x, z, t float64) float64 {
	c := &w.cfg
	e := math.Sin(x*c.BigFrequency.X+t*c.BigSpeed) *
		math.Sin(z*c.BigFrequency.Y+t*c.BigSpeed) *
		c.BigElevation

	d := math.Hypot(x-(w.mouse.X*6+3), z-(w.mouse.Y*6+3))
	e += (1 - smoothstep(0, 3, d)) * math.Sin(d*4-t*3) * 0.15

	for i := 1; i <= c.SmallIterations; i++ {
		fi := float64(i)
		n := w.noise.Eval3(x*c.SmallFrequency*fi, z*c.SmallFrequency*fi, t*c.SmallSpeed)
		e -= math.Abs(n * c.SmallElevation / fi)
	}
	return e
}

// Update implements Effect.
func (w *Water) Update(f *Frame) {
	w.time = f.Time
	if f.Pointer.Active() {
		n := f.Pointer.Normalized(f.Width, f.Height)
		w.mouseTarget = Vec2{clamp01(n.X), clamp01(1 - n.Y)}
	}
	w.mouse.X += (w.mouseTarget.X - w.mouse.X) * 0.05
	w.mouse.Y += (w.mouseTarget.Y - w.mouse.Y) * 0.05

	angle := w.mouse.X*0.5 - 0.25
	w.camera.LookAt(Vec3{
		X: math.Sin(angle)*2.5 + 0.5,
		Y: 1 + w.mouse.Y*0.3,
		Z: math.Cos(angle)*2.5 + 0.5,
	}, Vec3{})

	w.grid.SetAllHeights(func(rest Vec3) float64 {
		return w.Elevation(rest.X, rest.Z, w.time)
	})
	w.shade()
	w.buildQuads()
}

// shade projects every vertex and computes its colour.
func (w *Water) shade() {
	c := &w.cfg
	for i, p := range w.grid.Pos {
		v := &w.verts[i]
		v.sx, v.sy, v.depth, v.ok = w.camera.Project(p)

		elev := p.Y
		col := c.DepthColor.Lerp(c.SurfaceColor, (elev+c.ColorOffset)*c.ColorMultiplier)
		shimmer := math.Sin(p.X*10+w.time*2) * math.Sin(p.Z*10+w.time*1.5) * 0.05
		col = Color{col.R + shimmer, col.G + shimmer, col.B + shimmer, 1}
		col = col.Lerp(c.FogColor, smoothstep(c.FogNear, c.FogFar, v.depth)*0.3)
		v.color = Color{clamp01(col.R), clamp01(col.G), clamp01(col.B), c.Alpha}
	}
}

// buildQuads collects visible quads and sorts them back to front.
func (w *Water) buildQuads() {
	g := w.grid
	w.quads = w.quads[:0]
	for r := 0; r < g.Segments; r++ {
		for col := 0; col < g.Segments; col++ {
			tl := g.Index(col, r)
			a, b := &w.verts[tl], &w.verts[tl+1]
			cc, d := &w.verts[g.Index(col, r+1)], &w.verts[g.Index(col+1, r+1)]
			if !a.ok || !b.ok || !cc.ok || !d.ok {
				continue
			}
			w.quads = append(w.quads, waterQuad{tl: tl, depth: (a.depth + b.depth + cc.depth + d.depth) / 4})
		}
	}
	slices.SortFunc(w.quads, func(x, y waterQuad) int {
		return cmp.Compare(y.depth, x.depth)
	})

	w.batch.reset()
	stride := g.Segments + 1
	vx := func(i int) ebiten.Vertex {
		v := &w.verts[i]
		return vertex(v.sx, v.sy, v.color)
	}
	for _, q := range w.quads {
		w.batch.addQuad(vx(q.tl), vx(q.tl+1), vx(q.tl+stride), vx(q.tl+stride+1))
	}
}

// Draw implements Effect.
func (w *Water) Draw(dst *ebiten.Image) {
	dst.Fill(w.cfg.FogColor.toRGBA())
	w.batch.drawQuads(dst, ensureWhitePixel(), &w.op)
}

// Dispose implements Effect.
func (w *Water) Dispose() {
	w.grid = nil
	w.verts = nil
	w.quads = nil
	w.batch = triangleBatch{}
}
