package backdrop

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownEffect is returned by NewEffect for a name that is not
// registered.
var ErrUnknownEffect = errors.New("backdrop: unknown effect")

// Options carries one config per effect. NewEffect reads only the field
// matching the requested name.
type Options struct {
	Fire      FireConfig
	Water     WaterConfig
	Magnetic  MagneticConfig
	Metaballs MetaballsConfig
	Globe     GlobeConfig
	Spheres   SpheresConfig
	Pyramids  PyramidsConfig
	Glitch    GlitchConfig
}

// DefaultOptions returns the stock config of every effect.
func DefaultOptions() Options {
	return Options{
		Fire:      DefaultFireConfig(),
		Water:     DefaultWaterConfig(),
		Magnetic:  DefaultMagneticConfig(),
		Metaballs: DefaultMetaballsConfig(),
		Globe:     DefaultGlobeConfig(),
		Spheres:   DefaultSpheresConfig(),
		Pyramids:  DefaultPyramidsConfig(),
		Glitch:    DefaultGlitchConfig(),
	}
}

var registry = map[string]func(Options) Effect{
	"fire":      func(o Options) Effect { return NewFire(o.Fire) },
	"water":     func(o Options) Effect { return NewWater(o.Water) },
	"magnetic":  func(o Options) Effect { return NewMagnetic(o.Magnetic) },
	"metaballs": func(o Options) Effect { return NewMetaballs(o.Metaballs) },
	"globe":     func(o Options) Effect { return NewGlobe(o.Globe) },
	"spheres":   func(o Options) Effect { return NewSpheres(o.Spheres) },
	"pyramids":  func(o Options) Effect { return NewPyramids(o.Pyramids) },
	"glitch":    func(o Options) Effect { return NewGlitch(o.Glitch) },
}

// Names returns the registered effect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// NewEffect constructs the effect registered under name.
func NewEffect(name string, opts Options) (Effect, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return ctor(opts), nil
}
