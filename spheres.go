package backdrop

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// sphereShaderSrc ray-traces one displaced sphere per draw and shades it
// with diffuse, specular, Fresnel iridescence, hover glow, a pulse and a
// subsurface term.
const sphereShaderSrc = `//kage:unit pixels
package main

var Resolution vec2
var CamPos vec3
var CamRight vec3
var CamUp vec3
var CamForward vec3
var TanHalf float
var Aspect float

var Center vec3
var Radius float
var BaseColor vec3
var Hover float
var Time float
var Rot vec2
var Light vec3

func intersect(ro vec3, rd vec3, c vec3, r float) float {
	oc := ro - c
	b := dot(oc, rd)
	q := dot(oc, oc) - r*r
	disc := b*b - q
	if disc < 0.0 {
		return -1.0
	}
	return -b - sqrt(disc)
}

func toLocal(p vec3) vec3 {
	sy := sin(-Rot.y)
	cy := cos(-Rot.y)
	q := vec3(p.x*cy+p.z*sy, p.y, -p.x*sy+p.z*cy)
	sx := sin(-Rot.x)
	cx := cos(-Rot.x)
	return vec3(q.x, q.y*cx-q.z*sx, q.y*sx+q.z*cx)
}

func wobble(n vec3) float {
	p := toLocal(n)
	return sin(p.x*3.0+Time*2.0) * cos(p.y*3.0+Time*1.5) * sin(p.z*3.0+Time*1.8) * 0.03
}

func iridescence(angle float) vec3 {
	c1 := vec3(0.15, 0.4, 0.9)
	c2 := vec3(0.3, 0.6, 1.0)
	c3 := vec3(0.1, 0.3, 0.7)
	c4 := vec3(0.5, 0.7, 0.95)
	seg := mod(angle+Time*0.3, 4.0)
	if seg < 1.0 {
		return mix(c1, c2, seg)
	} else if seg < 2.0 {
		return mix(c2, c3, seg-1.0)
	} else if seg < 3.0 {
		return mix(c3, c4, seg-2.0)
	}
	return mix(c4, c1, seg-3.0)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := dst.xy - imageDstOrigin()
	ndc := vec2(pos.x/Resolution.x*2.0-1.0, 1.0-pos.y/Resolution.y*2.0)
	rd := normalize(CamForward + CamRight*(ndc.x*TanHalf*Aspect) + CamUp*(ndc.y*TanHalf))

	t := intersect(CamPos, rd, Center, Radius)
	if t < 0.0 {
		discard()
	}
	n := normalize(CamPos + rd*t - Center)
	r := Radius * (1.0 + wobble(n)*(1.0+Hover*0.5))
	t = intersect(CamPos, rd, Center, r)
	if t < 0.0 {
		discard()
	}
	hit := CamPos + rd*t
	n = normalize(hit - Center)

	viewDir := normalize(CamPos - hit)
	lightDir := normalize(Light - hit)
	fresnel := pow(1.0-max(dot(viewDir, n), 0.0), 3.0)
	irid := iridescence(dot(viewDir, n) * 3.14159)

	diffuse := max(dot(n, lightDir), 0.0)*0.6 + 0.4
	hv := normalize(lightDir + viewDir)
	specular := pow(max(dot(n, hv), 0.0), 64.0)

	c := BaseColor * diffuse
	c = mix(c, irid, fresnel*0.7)
	c += vec3(specular * 0.8)
	c += irid * (Hover * 0.4)
	c += vec3(fresnel * Hover * 0.3)
	c *= sin(Time*3.0)*0.05 + 1.0
	sss := pow(max(dot(-lightDir, n), 0.0), 2.0) * 0.15
	c += BaseColor * sss

	c = clamp(c, vec3(0.0), vec3(1.0))
	return vec4(c*0.95, 0.95)
}
`

var sphereShader = lazyShader{name: "sphere", src: sphereShaderSrc}

// SphereData describes one selectable sphere.
type SphereData struct {
	ID          string
	Title       string
	Description string
	Color       Color
	Position    Vec3
}

// SpheresConfig parameterizes a Spheres effect.
type SpheresConfig struct {
	Items       []SphereData
	ShowTitles  bool
	TitleColor  Color
	HoverSmooth float64
}

// DefaultSpheresConfig returns four spheres in a row.
func DefaultSpheresConfig() SpheresConfig {
	items := make([]SphereData, 4)
	colors := []string{"#2563eb", "#7c3aed", "#0891b2", "#4f46e5"}
	for i := range items {
		items[i] = SphereData{
			ID:       fmt.Sprintf("sphere-%d", i+1),
			Title:    fmt.Sprintf("Sphere %d", i+1),
			Color:    MustHexColor(colors[i]),
			Position: Vec3{X: -4.5 + 3*float64(i)},
		}
	}
	return SpheresConfig{
		Items:       items,
		ShowTitles:  true,
		TitleColor:  Color{0.9, 0.93, 1, 1},
		HoverSmooth: 0.1,
	}
}

type sphereState struct {
	data   SphereData
	center Vec3
	hover  float64
	depth  float64
}

// Spheres renders labelled iridescent spheres that swell when hovered and
// report clicks through OnSelect.
type Spheres struct {
	// OnSelect is called with the sphere under the pointer when it is
	// clicked. May be nil.
	OnSelect func(SphereData)

	cfg     SpheresConfig
	camera  *PerspectiveCamera
	shader  *ebiten.Shader
	spheres []sphereState
	order   []int
	hovered string
	time    float64

	uniforms map[string]any
	op       ebiten.DrawRectShaderOptions
	label    label
}

// NewSpheres creates a sphere picker.
func NewSpheres(cfg SpheresConfig) *Spheres {
	return &Spheres{
		cfg:      cfg,
		camera:   NewPerspectiveCamera(60, 0.1, 1000, Vec3{0, 0, 8}),
		uniforms: make(map[string]any, 17),
	}
}

// Name implements Effect.
func (s *Spheres) Name() string { return "spheres" }

// Camera returns the effect camera.
func (s *Spheres) Camera() *PerspectiveCamera { return s.camera }

// Hovered returns the ID of the sphere under the pointer, or "".
func (s *Spheres) Hovered() string { return s.hovered }

// HoverAmount returns the smoothed hover intensity of the sphere with the
// given ID, in [0, 1].
func (s *Spheres) HoverAmount(id string) float64 {
	for i := range s.spheres {
		if s.spheres[i].data.ID == id {
			return s.spheres[i].hover
		}
	}
	return 0
}

// Mount implements Effect.
func (s *Spheres) Mount(w, h int) error {
	shader, err := sphereShader.get()
	if err != nil {
		return err
	}
	s.shader = shader
	s.initSpheres()
	s.Resize(w, h)
	return nil
}

func (s *Spheres) initSpheres() {
	s.spheres = make([]sphereState, len(s.cfg.Items))
	s.order = make([]int, len(s.cfg.Items))
	for i, d := range s.cfg.Items {
		s.spheres[i] = sphereState{data: d, center: d.Position}
		s.order[i] = i
	}
}

// Resize implements Effect.
func (s *Spheres) Resize(w, h int) {
	s.camera.SetViewport(w, h)
}

// Pick returns the index of the nearest sphere hit by the ray through the
// pixel (x, y), or -1.
func (s *Spheres) Pick(x, y float64) int {
	ray := s.camera.RayFromScreen(x, y)
	best, bestT := -1, math.Inf(1)
	for i := range s.spheres {
		if t, ok := ray.IntersectSphere(s.spheres[i].center, 1); ok && t < bestT {
			best, bestT = i, t
		}
	}
	return best
}

// Update implements Effect.
func (s *Spheres) Update(f *Frame) {
	s.time = f.Time
	for i := range s.spheres {
		sp := &s.spheres[i]
		base := sp.data.Position
		sp.center = Vec3{base.X, base.Y + math.Sin(s.time*1.5+base.X)*0.15, base.Z}
	}

	s.hovered = ""
	hit := -1
	if f.Pointer.Active() {
		hit = s.Pick(f.Pointer.X, f.Pointer.Y)
	}
	if hit >= 0 {
		s.hovered = s.spheres[hit].data.ID
		if f.Pointer.Clicked && s.OnSelect != nil {
			s.OnSelect(s.spheres[hit].data)
		}
	}

	k := s.cfg.HoverSmooth
	for i := range s.spheres {
		sp := &s.spheres[i]
		target := 0.0
		if i == hit {
			target = 1
		}
		sp.hover += (target - sp.hover) * k
		sp.depth = s.camera.ToView(sp.center).Z
	}
	slices.SortStableFunc(s.order, func(a, b int) int {
		return cmp.Compare(s.spheres[b].depth, s.spheres[a].depth)
	})
}

// Draw implements Effect.
func (s *Spheres) Draw(dst *ebiten.Image) {
	if s.shader == nil {
		return
	}
	cam := s.camera
	right, up, fwd := cam.basis()
	u := s.uniforms
	u["Resolution"] = []float32{float32(cam.Width), float32(cam.Height)}
	u["CamPos"] = vec3Uniform(cam.Position)
	u["CamRight"] = vec3Uniform(right)
	u["CamUp"] = vec3Uniform(up)
	u["CamForward"] = vec3Uniform(fwd)
	u["TanHalf"] = float32(cam.tanHalf)
	u["Aspect"] = float32(cam.Aspect)
	u["Time"] = float32(s.time)
	u["Rot"] = []float32{float32(math.Sin(s.time*0.3) * 0.1), float32(s.time * 0.2)}
	u["Light"] = vec3Uniform(Vec3{math.Sin(s.time*0.5) * 6, 5, math.Cos(s.time*0.5) * 6})

	for _, i := range s.order {
		sp := &s.spheres[i]
		sx, sy, depth, ok := cam.Project(sp.center)
		if !ok {
			continue
		}
		radius := 1 + sp.hover*0.15
		pr := radius * 1.35 * cam.PixelScale(depth)
		x0, y0 := max(sx-pr, 0), max(sy-pr, 0)
		x1, y1 := min(sx+pr, cam.Width), min(sy+pr, cam.Height)
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		u["Center"] = vec3Uniform(sp.center)
		u["Radius"] = float32(radius)
		u["BaseColor"] = []float32{float32(sp.data.Color.R), float32(sp.data.Color.G), float32(sp.data.Color.B)}
		u["Hover"] = float32(sp.hover)
		s.op.Uniforms = u
		s.op.GeoM.Reset()
		s.op.GeoM.Translate(math.Floor(x0), math.Floor(y0))
		dst.DrawRectShader(int(math.Ceil(x1-math.Floor(x0))), int(math.Ceil(y1-math.Floor(y0))), s.shader, &s.op)

		if s.cfg.ShowTitles && sp.data.ID == s.hovered {
			s.label.draw(dst, sp.data.Title, sx, sy+radius*cam.PixelScale(depth)+8, AlignCenter, s.cfg.TitleColor)
		}
	}
}

func vec3Uniform(v Vec3) []float32 {
	return []float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Dispose implements Effect.
func (s *Spheres) Dispose() {
	s.shader = nil
	s.spheres = nil
	s.order = nil
	s.hovered = ""
}
