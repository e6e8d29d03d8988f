package backdrop

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a, b := Vec3{1, 2, 3}, Vec3{4, 5, 6}
	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross = %v, want (0, 0, 1)", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(zero) = %v, want zero", got)
	}
	if got := (Vec3{0, 3, 4}).Normalize().Len(); math.Abs(got-1) > 1e-12 {
		t.Errorf("|Normalize| = %v, want 1", got)
	}
	if got := a.Lerp(b, 0.5); got != (Vec3{2.5, 3.5, 4.5}) {
		t.Errorf("Lerp = %v", got)
	}
}

func TestVec3Rotate(t *testing.T) {
	if got := (Vec3{1, 0, 0}).RotateY(math.Pi / 2); got.Dist(Vec3{0, 0, -1}) > 1e-12 {
		t.Errorf("RotateY(x, 90°) = %v, want (0, 0, -1)", got)
	}
	if got := (Vec3{0, 1, 0}).RotateX(math.Pi / 2); got.Dist(Vec3{0, 0, 1}) > 1e-12 {
		t.Errorf("RotateX(y, 90°) = %v, want (0, 0, 1)", got)
	}
}

func TestRayIntersectSphere(t *testing.T) {
	tests := []struct {
		name   string
		ray    Ray
		want   float64
		wantOK bool
	}{
		{"hit", Ray{Vec3{0, 0, 5}, Vec3{0, 0, -1}}, 4, true},
		{"miss", Ray{Vec3{0, 2, 5}, Vec3{0, 0, -1}}, 0, false},
		{"behind", Ray{Vec3{0, 0, 5}, Vec3{0, 0, 1}}, 0, false},
		{"inside", Ray{Vec3{}, Vec3{1, 0, 0}}, 1, true},
		{"graze", Ray{Vec3{0, 1, 5}, Vec3{0, 0, -1}}, 5, true},
	}
	for _, tt := range tests {
		got, ok := tt.ray.IntersectSphere(Vec3{}, 1)
		if ok != tt.wantOK || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: IntersectSphere = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
