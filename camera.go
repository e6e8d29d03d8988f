package backdrop

import "math"

// PerspectiveCamera projects world-space points onto a viewport of Width x
// Height pixels. It mirrors a conventional look-at camera: FOV is the vertical
// field of view in degrees, and Aspect is kept in sync with the viewport by
// SetViewport.
type PerspectiveCamera struct {
	FOV      float64
	Aspect   float64
	Near     float64
	Far      float64
	Position Vec3
	Target   Vec3
	Up       Vec3

	// Viewport size in pixels.
	Width, Height float64

	// Cached basis, rebuilt by update when dirty.
	right, up, forward Vec3
	tanHalf            float64
	dirty              bool
}

// NewPerspectiveCamera creates a camera at pos looking at the origin.
func NewPerspectiveCamera(fov, near, far float64, pos Vec3) *PerspectiveCamera {
	return &PerspectiveCamera{
		FOV:      fov,
		Aspect:   1,
		Near:     near,
		Far:      far,
		Position: pos,
		Up:       Vec3{0, 1, 0},
		Width:    1,
		Height:   1,
		dirty:    true,
	}
}

// SetViewport resizes the projection to w x h pixels and recomputes Aspect.
// Non-positive sizes are ignored.
func (c *PerspectiveCamera) SetViewport(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.Width = float64(w)
	c.Height = float64(h)
	c.Aspect = c.Width / c.Height
	c.dirty = true
}

// LookAt moves the camera to pos and points it at target.
func (c *PerspectiveCamera) LookAt(pos, target Vec3) {
	c.Position = pos
	c.Target = target
	c.dirty = true
}

// MarkDirty forces the view basis to be recomputed. Call after modifying
// exported fields directly.
func (c *PerspectiveCamera) MarkDirty() {
	c.dirty = true
}

func (c *PerspectiveCamera) update() {
	if !c.dirty {
		return
	}
	c.forward = c.Target.Sub(c.Position).Normalize()
	c.right = c.forward.Cross(c.Up).Normalize()
	c.up = c.right.Cross(c.forward)
	c.tanHalf = math.Tan(c.FOV * math.Pi / 360)
	c.dirty = false
}

// Forward returns the unit view direction.
func (c *PerspectiveCamera) Forward() Vec3 {
	c.update()
	return c.forward
}

// basis returns the camera's right, up and forward unit vectors.
func (c *PerspectiveCamera) basis() (right, up, forward Vec3) {
	c.update()
	return c.right, c.up, c.forward
}

// ToView returns p in camera space: x right, y up, z the distance along the
// view direction.
func (c *PerspectiveCamera) ToView(p Vec3) Vec3 {
	c.update()
	d := p.Sub(c.Position)
	return Vec3{d.Dot(c.right), d.Dot(c.up), d.Dot(c.forward)}
}

// Project maps a world point to screen pixels. depth is the view-space
// distance along the forward axis. ok is false when the point lies outside
// the near/far range.
func (c *PerspectiveCamera) Project(p Vec3) (sx, sy, depth float64, ok bool) {
	v := c.ToView(p)
	if v.Z <= c.Near || (c.Far > 0 && v.Z > c.Far) {
		return 0, 0, v.Z, false
	}
	ndcX := v.X / (v.Z * c.tanHalf * c.Aspect)
	ndcY := v.Y / (v.Z * c.tanHalf)
	sx = (ndcX + 1) * 0.5 * c.Width
	sy = (1 - ndcY) * 0.5 * c.Height
	return sx, sy, v.Z, true
}

// PixelScale returns how many screen pixels one world unit spans at the given
// view depth.
func (c *PerspectiveCamera) PixelScale(depth float64) float64 {
	c.update()
	if depth <= 0 {
		return 0
	}
	return c.Height * 0.5 / (depth * c.tanHalf)
}

// ScreenToNDC converts pixel coordinates to normalized device coordinates in
// [-1, 1] with Y up.
func (c *PerspectiveCamera) ScreenToNDC(x, y float64) (float64, float64) {
	return x/c.Width*2 - 1, -(y/c.Height*2 - 1)
}

// RayFromNDC returns the world-space ray through the given normalized device
// coordinates.
func (c *PerspectiveCamera) RayFromNDC(nx, ny float64) Ray {
	c.update()
	dir := c.forward.
		Add(c.right.Mul(nx * c.tanHalf * c.Aspect)).
		Add(c.up.Mul(ny * c.tanHalf)).
		Normalize()
	return Ray{Origin: c.Position, Dir: dir}
}

// RayFromScreen returns the world-space ray through the pixel (x, y).
func (c *PerspectiveCamera) RayFromScreen(x, y float64) Ray {
	nx, ny := c.ScreenToNDC(x, y)
	return c.RayFromNDC(nx, ny)
}
