// Package config loads the backdrop YAML configuration and converts it into
// effect options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/backdrop"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "backdrop.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level configuration file.
type Config struct {
	// Effect is the effect shown by `backdrop run` without an argument.
	Effect        string `yaml:"effect"`
	Seed          uint64 `yaml:"seed"`
	Debug         bool   `yaml:"debug"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	Window WindowConfig `yaml:"window"`

	Fire      FireConfig      `yaml:"fire"`
	Water     WaterConfig     `yaml:"water"`
	Magnetic  MagneticConfig  `yaml:"magnetic"`
	Metaballs MetaballsConfig `yaml:"metaballs"`
	Globe     GlobeConfig     `yaml:"globe"`
	Spheres   SpheresConfig   `yaml:"spheres"`
	Pyramids  PyramidsConfig  `yaml:"pyramids"`
	Glitch    GlitchConfig    `yaml:"glitch"`
}

// WindowConfig configures the desktop window.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	ShowFPS   bool   `yaml:"show_fps"`
	TPS       int    `yaml:"tps"`
	// Background fills the window behind the effect. Empty means transparent.
	Background string `yaml:"background"`
}

// FireConfig configures the fire effect.
type FireConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Scale        int     `yaml:"scale"`
	Decay        float64 `yaml:"decay"`
	IgniteChance float64 `yaml:"ignite_chance"`
}

// WaterConfig configures the water effect.
type WaterConfig struct {
	Segments        int        `yaml:"segments"`
	BigElevation    float64    `yaml:"big_elevation"`
	BigFrequency    [2]float64 `yaml:"big_frequency,flow"`
	BigSpeed        float64    `yaml:"big_speed"`
	SmallElevation  float64    `yaml:"small_elevation"`
	SmallFrequency  float64    `yaml:"small_frequency"`
	SmallSpeed      float64    `yaml:"small_speed"`
	SmallIterations int        `yaml:"small_iterations"`
	DepthColor      string     `yaml:"depth_color"`
	SurfaceColor    string     `yaml:"surface_color"`
	FogColor        string     `yaml:"fog_color"`
	Alpha           float64    `yaml:"alpha"`
}

// MagneticConfig configures the magnetic effect.
type MagneticConfig struct {
	BloomThreshold float64 `yaml:"bloom_threshold"`
	BloomStrength  float64 `yaml:"bloom_strength"`
	BloomRadius    float64 `yaml:"bloom_radius"`
}

// MetaballsConfig configures the metaballs effect.
type MetaballsConfig struct {
	Speed      float64 `yaml:"speed"`
	Saturation float64 `yaml:"saturation"`
	Value      float64 `yaml:"value"`
}

// GlobeConfig configures the globe effect.
type GlobeConfig struct {
	Radius          float64 `yaml:"radius"`
	Density         int     `yaml:"density"`
	Fillers         int     `yaml:"fillers"`
	CoastColor      string  `yaml:"coast_color"`
	FillerColor     string  `yaml:"filler_color"`
	HoverColor      string  `yaml:"hover_color"`
	WarpColor       string  `yaml:"warp_color"`
	ShowCrosshair   bool    `yaml:"show_crosshair"`
	ShowCoordinates bool    `yaml:"show_coordinates"`
}

// SpheresConfig configures the spheres effect.
type SpheresConfig struct {
	ShowTitles bool         `yaml:"show_titles"`
	TitleColor string       `yaml:"title_color"`
	Items      []SphereItem `yaml:"items"`
}

// SphereItem is one selectable sphere.
type SphereItem struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description,omitempty"`
	Color       string     `yaml:"color"`
	Position    [3]float64 `yaml:"position,flow"`
}

// PyramidsConfig configures the pyramids effect.
type PyramidsConfig struct {
	Particles  int     `yaml:"particles"`
	BaseSize   float64 `yaml:"base_size"`
	Height     float64 `yaml:"height"`
	EdgeRatio  float64 `yaml:"edge_ratio"`
	OrbitSpeed float64 `yaml:"orbit_speed"`
}

// GlitchConfig configures the glitch effect.
type GlitchConfig struct {
	CellWidth      int     `yaml:"cell_width"`
	CellHeight     int     `yaml:"cell_height"`
	FPS            float64 `yaml:"fps"`
	MouseRadius    float64 `yaml:"mouse_radius"`
	HeatDecay      float64 `yaml:"heat_decay"`
	ScrollSpeed    float64 `yaml:"scroll_speed"`
	ScanlineChance float64 `yaml:"scanline_chance"`
	Background     string  `yaml:"background"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	o := backdrop.DefaultOptions()
	items := make([]SphereItem, len(o.Spheres.Items))
	for i, it := range o.Spheres.Items {
		items[i] = SphereItem{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			Color:       it.Color.Hex(),
			Position:    [3]float64{it.Position.X, it.Position.Y, it.Position.Z},
		}
	}
	return &Config{
		Effect:        "globe",
		Seed:          1,
		ScreenshotDir: "screenshots",
		Window: WindowConfig{
			Title:     "backdrop",
			Width:     1024,
			Height:    640,
			Resizable: true,
			TPS:       60,
		},
		Fire: FireConfig{
			Width:        o.Fire.Width,
			Height:       o.Fire.Height,
			Scale:        o.Fire.Scale,
			Decay:        o.Fire.Decay,
			IgniteChance: o.Fire.IgniteChance,
		},
		Water: WaterConfig{
			Segments:        o.Water.Segments,
			BigElevation:    o.Water.BigElevation,
			BigFrequency:    [2]float64{o.Water.BigFrequency.X, o.Water.BigFrequency.Y},
			BigSpeed:        o.Water.BigSpeed,
			SmallElevation:  o.Water.SmallElevation,
			SmallFrequency:  o.Water.SmallFrequency,
			SmallSpeed:      o.Water.SmallSpeed,
			SmallIterations: o.Water.SmallIterations,
			DepthColor:      o.Water.DepthColor.Hex(),
			SurfaceColor:    o.Water.SurfaceColor.Hex(),
			FogColor:        o.Water.FogColor.Hex(),
			Alpha:           o.Water.Alpha,
		},
		Magnetic: MagneticConfig{
			BloomThreshold: o.Magnetic.BloomThreshold,
			BloomStrength:  o.Magnetic.BloomStrength,
			BloomRadius:    o.Magnetic.BloomRadius,
		},
		Metaballs: MetaballsConfig{
			Speed:      o.Metaballs.Speed,
			Saturation: o.Metaballs.Saturation,
			Value:      o.Metaballs.Value,
		},
		Globe: GlobeConfig{
			Radius:          o.Globe.Radius,
			Density:         o.Globe.Density,
			Fillers:         o.Globe.Fillers,
			CoastColor:      o.Globe.CoastColor.Hex(),
			FillerColor:     o.Globe.FillerColor.Hex(),
			HoverColor:      o.Globe.HoverColor.Hex(),
			WarpColor:       o.Globe.WarpColor.Hex(),
			ShowCrosshair:   o.Globe.ShowCrosshair,
			ShowCoordinates: o.Globe.ShowCoordinates,
		},
		Spheres: SpheresConfig{
			ShowTitles: o.Spheres.ShowTitles,
			TitleColor: o.Spheres.TitleColor.Hex(),
			Items:      items,
		},
		Pyramids: PyramidsConfig{
			Particles:  o.Pyramids.Particles,
			BaseSize:   o.Pyramids.BaseSize,
			Height:     o.Pyramids.Height,
			EdgeRatio:  o.Pyramids.EdgeRatio,
			OrbitSpeed: o.Pyramids.OrbitSpeed,
		},
		Glitch: GlitchConfig{
			CellWidth:      o.Glitch.CellWidth,
			CellHeight:     o.Glitch.CellHeight,
			FPS:            o.Glitch.FPS,
			MouseRadius:    o.Glitch.MouseRadius,
			HeatDecay:      o.Glitch.HeatDecay,
			ScrollSpeed:    o.Glitch.ScrollSpeed,
			ScanlineChance: o.Glitch.ScanlineChance,
			Background:     o.Glitch.Background.Hex(),
		},
	}
}

// Load reads path over the defaults and validates the result. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks sizes, the effect name, colours and sphere IDs.
func (c *Config) Validate() error {
	if !slices.Contains(backdrop.Names(), c.Effect) {
		return invalid("unknown effect %q (valid: %v)", c.Effect, backdrop.Names())
	}
	positive := []struct {
		name string
		v    float64
	}{
		{"window.width", float64(c.Window.Width)},
		{"window.height", float64(c.Window.Height)},
		{"fire.width", float64(c.Fire.Width)},
		{"fire.height", float64(c.Fire.Height)},
		{"fire.scale", float64(c.Fire.Scale)},
		{"fire.decay", c.Fire.Decay},
		{"water.segments", float64(c.Water.Segments)},
		{"metaballs.speed", c.Metaballs.Speed},
		{"globe.radius", c.Globe.Radius},
		{"globe.density", float64(c.Globe.Density)},
		{"pyramids.particles", float64(c.Pyramids.Particles)},
		{"pyramids.base_size", c.Pyramids.BaseSize},
		{"pyramids.height", c.Pyramids.Height},
		{"glitch.cell_width", float64(c.Glitch.CellWidth)},
		{"glitch.cell_height", float64(c.Glitch.CellHeight)},
		{"glitch.fps", c.Glitch.FPS},
		{"glitch.mouse_radius", c.Glitch.MouseRadius},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return invalid("%s must be positive, got %v", p.name, p.v)
		}
	}
	if c.Window.TPS < 0 {
		return invalid("window.tps must not be negative, got %d", c.Window.TPS)
	}
	if d := c.Glitch.HeatDecay; d <= 0 || d >= 1 {
		return invalid("glitch.heat_decay must be in (0, 1), got %v", d)
	}
	if r := c.Pyramids.EdgeRatio; r < 0 || r > 1 {
		return invalid("pyramids.edge_ratio must be in [0, 1], got %v", r)
	}

	colors := []struct{ name, v string }{
		{"water.depth_color", c.Water.DepthColor},
		{"water.surface_color", c.Water.SurfaceColor},
		{"water.fog_color", c.Water.FogColor},
		{"globe.coast_color", c.Globe.CoastColor},
		{"globe.filler_color", c.Globe.FillerColor},
		{"globe.hover_color", c.Globe.HoverColor},
		{"globe.warp_color", c.Globe.WarpColor},
		{"spheres.title_color", c.Spheres.TitleColor},
		{"glitch.background", c.Glitch.Background},
	}
	if c.Window.Background != "" {
		colors = append(colors, struct{ name, v string }{"window.background", c.Window.Background})
	}
	for _, col := range colors {
		if _, err := colorful.Hex(col.v); err != nil {
			return invalid("%s: bad colour %q", col.name, col.v)
		}
	}

	seen := make(map[string]bool, len(c.Spheres.Items))
	for i, it := range c.Spheres.Items {
		if it.ID == "" {
			return invalid("spheres.items[%d]: empty id", i)
		}
		if seen[it.ID] {
			return invalid("spheres.items[%d]: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true
		if _, err := colorful.Hex(it.Color); err != nil {
			return invalid("spheres.items[%d]: bad colour %q", i, it.Color)
		}
	}
	return nil
}

// Options converts the file sections into effect options. Fields the file
// does not expose keep their library defaults. Colours must already have
// passed Validate.
func (c *Config) Options() (backdrop.Options, error) {
	o := backdrop.DefaultOptions()
	var err error
	color := func(s string) backdrop.Color {
		if err != nil {
			return backdrop.Color{}
		}
		var col backdrop.Color
		col, err = backdrop.ParseHexColor(s)
		return col
	}

	o.Fire.Width, o.Fire.Height, o.Fire.Scale = c.Fire.Width, c.Fire.Height, c.Fire.Scale
	o.Fire.Decay, o.Fire.IgniteChance = c.Fire.Decay, c.Fire.IgniteChance
	o.Fire.Seed = c.Seed

	w := &o.Water
	w.Segments = c.Water.Segments
	w.BigElevation = c.Water.BigElevation
	w.BigFrequency = backdrop.Vec2{X: c.Water.BigFrequency[0], Y: c.Water.BigFrequency[1]}
	w.BigSpeed = c.Water.BigSpeed
	w.SmallElevation = c.Water.SmallElevation
	w.SmallFrequency = c.Water.SmallFrequency
	w.SmallSpeed = c.Water.SmallSpeed
	w.SmallIterations = c.Water.SmallIterations
	w.DepthColor = color(c.Water.DepthColor)
	w.SurfaceColor = color(c.Water.SurfaceColor)
	w.FogColor = color(c.Water.FogColor)
	w.Alpha = c.Water.Alpha
	w.Seed = int64(c.Seed)

	o.Magnetic.BloomThreshold = c.Magnetic.BloomThreshold
	o.Magnetic.BloomStrength = c.Magnetic.BloomStrength
	o.Magnetic.BloomRadius = c.Magnetic.BloomRadius

	o.Metaballs.Speed = c.Metaballs.Speed
	o.Metaballs.Saturation = c.Metaballs.Saturation
	o.Metaballs.Value = c.Metaballs.Value

	g := &o.Globe
	g.Radius, g.Density, g.Fillers = c.Globe.Radius, c.Globe.Density, c.Globe.Fillers
	g.CoastColor = color(c.Globe.CoastColor)
	g.FillerColor = color(c.Globe.FillerColor)
	g.HoverColor = color(c.Globe.HoverColor)
	g.WarpColor = color(c.Globe.WarpColor)
	g.ShowCrosshair = c.Globe.ShowCrosshair
	g.ShowCoordinates = c.Globe.ShowCoordinates
	g.Seed = c.Seed

	o.Spheres.ShowTitles = c.Spheres.ShowTitles
	o.Spheres.TitleColor = color(c.Spheres.TitleColor)
	o.Spheres.Items = make([]backdrop.SphereData, len(c.Spheres.Items))
	for i, it := range c.Spheres.Items {
		o.Spheres.Items[i] = backdrop.SphereData{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			Color:       color(it.Color),
			Position:    backdrop.Vec3{X: it.Position[0], Y: it.Position[1], Z: it.Position[2]},
		}
	}

	p := &o.Pyramids
	p.Particles, p.BaseSize, p.Height = c.Pyramids.Particles, c.Pyramids.BaseSize, c.Pyramids.Height
	p.EdgeRatio, p.OrbitSpeed = c.Pyramids.EdgeRatio, c.Pyramids.OrbitSpeed
	p.Seed = c.Seed

	gl := &o.Glitch
	gl.CellWidth, gl.CellHeight = c.Glitch.CellWidth, c.Glitch.CellHeight
	gl.FPS = c.Glitch.FPS
	gl.MouseRadius = c.Glitch.MouseRadius
	gl.HeatDecay = c.Glitch.HeatDecay
	gl.ScrollSpeed = c.Glitch.ScrollSpeed
	gl.ScanlineChance = c.Glitch.ScanlineChance
	gl.Background = color(c.Glitch.Background)
	gl.Seed = c.Seed

	if err != nil {
		return backdrop.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return o, nil
}

// RunConfig returns the window settings for backdrop.Run.
func (c *Config) RunConfig() backdrop.RunConfig {
	rc := backdrop.RunConfig{
		Title:         c.Window.Title,
		Width:         c.Window.Width,
		Height:        c.Window.Height,
		Resizable:     c.Window.Resizable,
		ShowFPS:       c.Window.ShowFPS,
		Debug:         c.Debug,
		TPS:           c.Window.TPS,
		ScreenshotDir: c.ScreenshotDir,
	}
	if c.Window.Background != "" {
		if col, err := backdrop.ParseHexColor(c.Window.Background); err == nil {
			rc.ClearColor = col
		}
	}
	return rc
}
