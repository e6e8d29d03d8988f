package backdrop

import "testing"

func TestPointerActive(t *testing.T) {
	tests := []struct {
		p    Pointer
		want bool
	}{
		{Pointer{X: 10, Y: 10, Inside: true}, true},
		{Pointer{X: 10, Y: 10}, false},
		{Pointer{X: leftPosition, Y: leftPosition, Inside: true}, false},
		{Pointer{}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Active(); got != tt.want {
			t.Errorf("%+v.Active() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPointerNormalized(t *testing.T) {
	p := Pointer{X: 50, Y: 150}
	if got := p.Normalized(200, 300); got != (Vec2{0.25, 0.5}) {
		t.Errorf("Normalized = %v, want (0.25, 0.5)", got)
	}
	if got := p.Normalized(0, 300); got != (Vec2{}) {
		t.Errorf("Normalized on empty surface = %v, want zero", got)
	}
}

func TestPointerStateClick(t *testing.T) {
	var ps pointerState
	step := func(x, y float64, inside, down bool) Pointer {
		ps.begin()
		ps.apply(x, y, inside, down)
		return ps.cur
	}

	if p := step(5, 5, true, false); !p.Moved || p.Clicked {
		t.Errorf("hover = %+v, want moved without click", p)
	}
	if p := step(5, 5, true, true); p.Moved || !p.Down || p.Clicked {
		t.Errorf("press = %+v, want down, still, no click", p)
	}
	if p := step(5, 5, true, false); !p.Clicked || p.Down {
		t.Errorf("release = %+v, want clicked", p)
	}
	if p := step(5, 5, true, false); p.Clicked {
		t.Errorf("next frame = %+v, click should last one frame", p)
	}

	// Releasing outside the surface is not a click.
	step(5, 5, true, true)
	if p := step(0, 0, false, false); p.Clicked || p.X != leftPosition || p.Active() {
		t.Errorf("release outside = %+v, want parked without click", p)
	}
}

func TestInjectPathSamples(t *testing.T) {
	s := NewStage(&fakeEffect{}, StageOptions{})
	s.InjectPath(0, 0, 10, 20, 1)
	if len(s.injectQueue) != 2 {
		t.Fatalf("queue = %d events, want 2 (minimum)", len(s.injectQueue))
	}
	last := s.injectQueue[1]
	if last.x != 10 || last.y != 20 {
		t.Errorf("last sample = (%v, %v), want (10, 20)", last.x, last.y)
	}

	s.InjectClick(1, 2)
	if n := len(s.injectQueue); n != 4 {
		t.Errorf("queue = %d events, want 4", n)
	}
	if !s.injectQueue[2].pressed || s.injectQueue[3].pressed {
		t.Error("click should queue a press then a release")
	}
}
