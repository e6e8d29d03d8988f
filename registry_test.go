package backdrop

import (
	"errors"
	"slices"
	"testing"
)

func TestNames(t *testing.T) {
	want := []string{"fire", "glitch", "globe", "magnetic", "metaballs", "pyramids", "spheres", "water"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestNewEffect(t *testing.T) {
	opts := DefaultOptions()
	for _, name := range Names() {
		fx, err := NewEffect(name, opts)
		if err != nil {
			t.Errorf("NewEffect(%q): %v", name, err)
			continue
		}
		if fx.Name() != name {
			t.Errorf("NewEffect(%q).Name() = %q", name, fx.Name())
		}
	}

	_, err := NewEffect("lava", opts)
	if !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("NewEffect(lava) err = %v, want ErrUnknownEffect", err)
	}
}

func TestNewEffectUsesOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Metaballs.Speed = 0.5
	fx, err := NewEffect("metaballs", opts)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	fx.Update(&Frame{})
	if got := fx.(*Metaballs).Time(); got != 0.5 {
		t.Errorf("Time() = %v, want 0.5", got)
	}
}
