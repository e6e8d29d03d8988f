package backdrop

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"
)

// warpStep is the fixed per-frame progress increment of each warp phase.
const warpStep = 0.025

// WarpState is the phase of a globe warp transition.
type WarpState uint8

const (
	// WarpIdle means no transition is running; the globe auto-rotates.
	WarpIdle WarpState = iota
	// WarpOut means points are flying toward and past the camera.
	WarpOut
	// WarpIn means points are returning to the globe.
	WarpIn
)

func (s WarpState) String() string {
	switch s {
	case WarpIdle:
		return "idle"
	case WarpOut:
		return "warping-out"
	case WarpIn:
		return "warping-in"
	default:
		return fmt.Sprintf("WarpState(%d)", uint8(s))
	}
}

// WarpMachine sequences idle → warping-out → warping-in → idle. Each phase
// advances a fixed warpStep per frame through a cubic ease-in-out, so a full
// transition takes about 80 frames. Amount is 0 at idle and peaks at 1 when
// warping-out hands over to warping-in.
type WarpMachine struct {
	state  WarpState
	amount float64
	tween  *FloatTween
}

// State returns the current phase.
func (m *WarpMachine) State() WarpState { return m.state }

// Amount returns the eased warp intensity in [0, 1].
func (m *WarpMachine) Amount() float64 { return m.amount }

// Busy reports whether a transition is in progress.
func (m *WarpMachine) Busy() bool { return m.state != WarpIdle }

// Start begins a transition. It returns false and changes nothing when one
// is already running.
func (m *WarpMachine) Start() bool {
	if m.Busy() {
		return false
	}
	m.state = WarpOut
	m.tween = TweenFloat(&m.amount, 0, 1, 1, ease.InOutCubic)
	return true
}

// Step advances the running phase by one frame. It returns true on the frame
// the machine returns to idle.
func (m *WarpMachine) Step() bool {
	if m.state == WarpIdle {
		return false
	}
	m.tween.Update(warpStep)
	if !m.tween.Done {
		return false
	}
	if m.state == WarpOut {
		m.state = WarpIn
		m.tween = TweenFloat(&m.amount, 1, 0, 1, ease.InOutCubic)
		return false
	}
	m.state = WarpIdle
	m.amount = 0
	m.tween = nil
	return true
}

// GlobeConfig parameterizes a Globe.
type GlobeConfig struct {
	Radius float64
	// Density is the number of samples per coastline segment; segments
	// spanning 15 degrees or more are treated as gaps.
	Density       int
	Fillers       int
	FillerSpacing float64
	CoastColor    Color
	FillerColor   Color
	CoastSize     float64
	FillerSize    float64
	BulgeRadius   float64
	BulgeStrength float64
	HoverColor    Color
	WarpColor     Color
	// PointScale converts point size to pixels at unit depth.
	PointScale      float64
	ShowCrosshair   bool
	ShowCoordinates bool
	Seed            uint64
	// Coastline overrides the built-in coastline table when non-nil.
	Coastline []LatLng
}

// DefaultGlobeConfig returns the stock globe look.
func DefaultGlobeConfig() GlobeConfig {
	return GlobeConfig{
		Radius:          2,
		Density:         4,
		Fillers:         500,
		FillerSpacing:   0.15,
		CoastColor:      MustHexColor("#3B82F6"),
		FillerColor:     MustHexColor("#1a1a1a"),
		CoastSize:       1.5,
		FillerSize:      0.8,
		BulgeRadius:     0.8,
		BulgeStrength:   0.3,
		HoverColor:      Color{1, 0.41, 0.71, 1},
		WarpColor:       Color{0.5, 0.8, 1, 1},
		PointScale:      300,
		ShowCrosshair:   true,
		ShowCoordinates: true,
		Seed:            1,
	}
}

// GlobePoint is one immutable point of the cloud, in the globe's local frame.
type GlobePoint struct {
	Base  Vec3
	Color Color
	Size  float64
	Coast bool
}

// GenerateGlobePoints builds the point cloud: every coastline vertex plus
// density-1 interpolated samples toward its successor when the two are
// closer than 15 degrees, followed by random filler points that are kept
// only when no earlier point lies within FillerSpacing.
func GenerateGlobePoints(coast []LatLng, cfg GlobeConfig, rng *rand.Rand) []GlobePoint {
	density := max(cfg.Density, 1)
	pts := make([]GlobePoint, 0, len(coast)*density+cfg.Fillers)
	coastPoint := func(lat, lng float64) GlobePoint {
		return GlobePoint{
			Base:  LatLngToVec3(lat, lng, cfg.Radius),
			Color: cfg.CoastColor,
			Size:  cfg.CoastSize,
			Coast: true,
		}
	}

	for i, c := range coast {
		pts = append(pts, coastPoint(c.Lat, c.Lng))
		if i == len(coast)-1 {
			break
		}
		next := coast[i+1]
		if math.Hypot(next.Lat-c.Lat, next.Lng-c.Lng) >= 15 {
			continue
		}
		for j := 1; j < density; j++ {
			t := float64(j) / float64(density)
			pts = append(pts, coastPoint(lerp(c.Lat, next.Lat, t), lerp(c.Lng, next.Lng, t)))
		}
	}

	for range cfg.Fillers {
		lat := (rng.Float64() - 0.5) * 160
		lng := (rng.Float64() - 0.5) * 360
		p := LatLngToVec3(lat, lng, cfg.Radius)
		if nearAny(pts, p, cfg.FillerSpacing) {
			continue
		}
		pts = append(pts, GlobePoint{Base: p, Color: cfg.FillerColor, Size: cfg.FillerSize})
	}
	return pts
}

func nearAny(pts []GlobePoint, p Vec3, d float64) bool {
	d2 := d * d
	for i := range pts {
		q := pts[i].Base.Sub(p)
		if q.Dot(q) < d2 {
			return true
		}
	}
	return false
}

// Globe is a rotating point-cloud earth. Hovering bulges the points under the
// pointer and reports the hovered coordinates; clicking while hovering runs
// a warp transition through the camera and back.
type Globe struct {
	cfg    GlobeConfig
	camera *PerspectiveCamera
	points []GlobePoint
	warp   WarpMachine
	batch  *pointBatch
	label  label

	time       float64
	rotation   float64
	targetRot  float64
	autoRotate bool

	hovering bool
	hitLocal Vec3
	coords   LatLng

	w, h int
}

// NewGlobe creates a globe effect.
func NewGlobe(cfg GlobeConfig) *Globe {
	return &Globe{
		cfg:        cfg,
		camera:     NewPerspectiveCamera(45, 0.1, 1000, Vec3{0, 0, 6}),
		autoRotate: true,
	}
}

// Name implements Effect.
func (g *Globe) Name() string { return "globe" }

// Mount implements Effect.
func (g *Globe) Mount(w, h int) error {
	coast := g.cfg.Coastline
	if coast == nil {
		var err error
		if coast, err = Coastline(); err != nil {
			return err
		}
	}
	rng := rand.New(rand.NewPCG(g.cfg.Seed, g.cfg.Seed^0x9e3779b97f4a7c15))
	g.points = GenerateGlobePoints(coast, g.cfg, rng)
	g.batch = newPointBatch(BlendAdd)
	g.Resize(w, h)
	return nil
}

// Resize implements Effect.
func (g *Globe) Resize(w, h int) {
	g.w, g.h = w, h
	g.camera.SetViewport(w, h)
}

// Camera returns the globe's camera.
func (g *Globe) Camera() *PerspectiveCamera { return g.camera }

// Points returns the generated point cloud.
func (g *Globe) Points() []GlobePoint { return g.points }

// Warp returns the warp state machine.
func (g *Globe) Warp() *WarpMachine { return &g.warp }

// Rotation returns the current Y rotation in radians.
func (g *Globe) Rotation() float64 { return g.rotation }

// Hovering reports whether the pointer ray hits the globe.
func (g *Globe) Hovering() bool { return g.hovering }

// Coordinates returns the hovered latitude and longitude, rounded to two
// decimals. ok is false while nothing is hovered.
func (g *Globe) Coordinates() (c LatLng, ok bool) {
	return g.coords, g.hovering
}

// Update implements Effect.
func (g *Globe) Update(f *Frame) {
	g.time = f.Time

	if g.autoRotate {
		g.targetRot += 0.002
	}
	g.rotation += (g.targetRot - g.rotation) * 0.05

	g.updateHover(f.Pointer)
	if f.Pointer.Clicked && g.hovering && g.warp.Start() {
		g.autoRotate = false
	}
	if g.warp.Step() {
		g.autoRotate = true
	}
}

// updateHover casts the pointer ray against the globe. The hit is stored in
// the globe's local frame so the bulge follows the surface as it rotates.
func (g *Globe) updateHover(p Pointer) {
	g.hovering = false
	if !p.Active() {
		return
	}
	ray := g.camera.RayFromScreen(p.X, p.Y)
	t, ok := ray.IntersectSphere(Vec3{}, g.cfg.Radius)
	if !ok {
		return
	}
	g.hovering = true
	g.hitLocal = ray.At(t).RotateY(-g.rotation)
	lat, lng := Vec3ToLatLng(g.hitLocal)
	g.coords = LatLng{Lat: math.Round(lat*100) / 100, Lng: math.Round(lng*100) / 100}
}

// displace returns the animated local-space position of p and its bulge.
func (g *Globe) displace(p *GlobePoint, warp float64) (Vec3, float64) {
	pos := p.Base
	var bulge float64
	if g.hovering {
		if d := pos.Dist(g.hitLocal); d < g.cfg.BulgeRadius {
			t := 1 - d/g.cfg.BulgeRadius
			bulge = t * t * g.cfg.BulgeStrength
			pos = pos.Add(pos.Normalize().Mul(bulge))
		}
	}

	pos = pos.Mul(1 + math.Sin(g.time*0.5)*0.01)

	if warp > 0 {
		toCamera := Vec3{0, 0, 6}.Sub(pos)
		dist := toCamera.Len()
		speed := 15 / (dist*0.5 + 0.5)
		pos = pos.Add(toCamera.Normalize().Mul(warp * speed))

		sx, sy := pos.X+0.001, pos.Y+0.001
		l := math.Hypot(sx, sy)
		spread := warp * warp * 8 * (1 - dist*0.1)
		pos.X += sx / l * spread
		pos.Y += sy / l * spread
	}
	return pos, bulge
}

// Draw implements Effect.
func (g *Globe) Draw(dst *ebiten.Image) {
	warp := g.warp.Amount()
	stretch := 1 + warp*2
	sizeScale := (1 + warp*3) * g.cfg.PointScale
	alpha := min(0.9+warp*0.5, 1)

	for i := range g.points {
		p := &g.points[i]
		local, bulge := g.displace(p, warp)
		sx, sy, depth, ok := g.camera.Project(local.RotateY(g.rotation))
		if !ok {
			continue
		}
		c := p.Color.Lerp(g.cfg.HoverColor, bulge*3).Lerp(g.cfg.WarpColor, warp*0.8)
		c.A = alpha
		size := p.Size * sizeScale / depth
		g.batch.add(sx, sy, size, size/stretch, c)
	}
	g.batch.flush(dst)

	if g.cfg.ShowCrosshair {
		g.drawCrosshair(dst)
	}
	if g.cfg.ShowCoordinates && g.hovering {
		g.drawCoordinates(dst)
	}
}

var crosshairColor = Color{0.8, 0.8, 0.8, 0.15}

func (g *Globe) drawCrosshair(dst *ebiten.Image) {
	segs := [2][2]Vec3{
		{{0, -3, 0}, {0, 3, 0}},
		{{-3, 0, 0}, {3, 0, 0}},
	}
	c := crosshairColor.toRGBA()
	for _, s := range segs {
		x0, y0, _, ok0 := g.camera.Project(s[0].RotateY(g.rotation))
		x1, y1, _, ok1 := g.camera.Project(s[1].RotateY(g.rotation))
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(dst, float32(x0), float32(y0), float32(x1), float32(y1), 1, c, true)
	}
}

var (
	captionBackground = Color{1, 1, 1, 0.8}
	captionText       = MustHexColor("#525252")
)

func (g *Globe) drawCoordinates(dst *ebiten.Image) {
	s := fmt.Sprintf("Lat: %.2f, Lng: %.2f", g.coords.Lat, g.coords.Lng)
	tw, th := measureLabel(s)
	cx := float64(g.w) / 2
	top := float64(g.h) - 32 - th - 16
	vector.DrawFilledRect(dst, float32(cx-tw/2-16), float32(top), float32(tw+32), float32(th+16), captionBackground.toRGBA(), true)
	g.label.draw(dst, s, cx, top+8, AlignCenter, captionText)
}

// Dispose implements Effect.
func (g *Globe) Dispose() {
	if g.batch != nil {
		g.batch.dispose()
		g.batch = nil
	}
	g.points = nil
	g.warp = WarpMachine{}
	g.hovering = false
}
