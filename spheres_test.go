package backdrop

import "testing"

func newTestSpheres(w, h int) *Spheres {
	s := NewSpheres(DefaultSpheresConfig())
	s.initSpheres()
	s.Resize(w, h)
	return s
}

func TestSpheresPick(t *testing.T) {
	s := newTestSpheres(800, 600)
	for i, item := range s.cfg.Items {
		sx, sy, _, ok := s.Camera().Project(item.Position)
		if !ok {
			t.Fatalf("sphere %d is not in view", i)
		}
		if got := s.Pick(sx, sy); got != i {
			t.Errorf("Pick at sphere %d centre = %d", i, got)
		}
	}
	if got := s.Pick(0, 0); got != -1 {
		t.Errorf("Pick(0, 0) = %d, want -1", got)
	}
	if got := s.Pick(400, 590); got != -1 {
		t.Errorf("Pick below the row = %d, want -1", got)
	}
}

func TestSpheresPickAfterResize(t *testing.T) {
	s := newTestSpheres(800, 600)
	s.Resize(400, 600)
	if s.Camera().Aspect != 400.0/600.0 {
		t.Errorf("Aspect = %v, want %v", s.Camera().Aspect, 400.0/600.0)
	}
	// The middle spheres stay pickable in a narrow window.
	for _, i := range []int{1, 2} {
		sx, sy, _, ok := s.Camera().Project(s.cfg.Items[i].Position)
		if !ok {
			t.Fatalf("sphere %d out of view", i)
		}
		if got := s.Pick(sx, sy); got != i {
			t.Errorf("Pick at sphere %d = %d", i, got)
		}
	}
}

func TestSpheresHoverAndSelect(t *testing.T) {
	s := newTestSpheres(800, 600)
	var selected []string
	s.OnSelect = func(d SphereData) { selected = append(selected, d.ID) }

	target := s.cfg.Items[2]
	sx, sy, _, _ := s.Camera().Project(target.Position)
	p := Pointer{X: sx, Y: sy, Inside: true}

	s.Update(&Frame{Width: 800, Height: 600, Pointer: p})
	if s.Hovered() != target.ID {
		t.Fatalf("Hovered() = %q, want %q", s.Hovered(), target.ID)
	}
	if a := s.HoverAmount(target.ID); a <= 0 || a > 1 {
		t.Errorf("HoverAmount = %v, want in (0, 1]", a)
	}
	if len(selected) != 0 {
		t.Errorf("selected %v without a click", selected)
	}

	p.Clicked = true
	s.Update(&Frame{Width: 800, Height: 600, Pointer: p})
	if len(selected) != 1 || selected[0] != target.ID {
		t.Errorf("selected = %v, want [%s]", selected, target.ID)
	}

	// Hover eases toward 1 and back to 0 once the pointer leaves.
	p.Clicked = false
	for range 100 {
		s.Update(&Frame{Width: 800, Height: 600, Pointer: p})
	}
	if a := s.HoverAmount(target.ID); a < 0.99 {
		t.Errorf("HoverAmount after 100 frames = %v, want ~1", a)
	}
	for range 100 {
		s.Update(&Frame{Width: 800, Height: 600})
	}
	if s.Hovered() != "" {
		t.Errorf("Hovered() = %q after leave, want empty", s.Hovered())
	}
	if a := s.HoverAmount(target.ID); a > 0.01 {
		t.Errorf("HoverAmount after leave = %v, want ~0", a)
	}
	if a := s.HoverAmount("missing"); a != 0 {
		t.Errorf("HoverAmount(missing) = %v, want 0", a)
	}
}

func TestSpheresDrawOrder(t *testing.T) {
	cfg := DefaultSpheresConfig()
	cfg.Items[0].Position.Z = -5
	cfg.Items[3].Position.Z = 3
	s := NewSpheres(cfg)
	s.initSpheres()
	s.Resize(800, 600)
	s.Update(&Frame{Width: 800, Height: 600})

	// Far to near.
	if s.order[0] != 0 || s.order[len(s.order)-1] != 3 {
		t.Errorf("order = %v, want sphere 0 first and sphere 3 last", s.order)
	}
}
