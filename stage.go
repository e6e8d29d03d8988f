package backdrop

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// ErrSurfaceUnavailable is returned from Effect.Mount when the GPU resources
// an effect needs (shaders, render targets) cannot be created. The Stage
// logs it and renders nothing for the rest of its life.
var ErrSurfaceUnavailable = errors.New("backdrop: rendering surface unavailable")

// Effect is a self-contained procedural animation. A Stage drives it through
// Mount, then one Update per scheduled frame and one Draw per presented frame,
// Resize whenever the surface size changes, and finally Dispose.
type Effect interface {
	// Name is a short identifier used in logs.
	Name() string
	// Mount allocates buffers and GPU resources for a w x h surface.
	Mount(w, h int) error
	// Resize reallocates size-dependent state and aspect-dependent projection.
	Resize(w, h int)
	// Update advances the simulation by one frame.
	Update(f *Frame)
	// Draw renders the current state into dst.
	Draw(dst *ebiten.Image)
	// Dispose releases every resource acquired since Mount. It must tolerate
	// a Mount that failed halfway.
	Dispose()
}

// Frame is the per-frame context passed to Effect.Update.
type Frame struct {
	// Index counts frames since mount, starting at 1.
	Index uint64
	// Time is the accumulated seconds since mount.
	Time float64
	// Delta is the seconds elapsed since the previous frame.
	Delta float64
	// Width and Height are the surface size in pixels.
	Width, Height int
	Pointer       Pointer
}

// StageOptions configures a Stage. The zero value is usable.
type StageOptions struct {
	// Scheduler supplies frame callbacks. Defaults to a TickScheduler ticked
	// from Stage.Update.
	Scheduler FrameScheduler
	// Logger receives lifecycle and failure logs. Defaults to zap.NewNop().
	Logger *zap.Logger
	// Debug enables periodic per-frame timing logs at debug level.
	Debug bool
	// ShowFPS draws an FPS/TPS readout in the top-left corner.
	ShowFPS bool
	// ClearColor fills the surface before the effect draws, if non-zero alpha.
	ClearColor Color
	// ScreenshotDir is where Screenshot writes PNGs. Defaults to "screenshots".
	ScreenshotDir string
}

// Stage hosts one Effect and implements ebiten.Game. It owns the mount →
// frame loop → resize → unmount lifecycle: frames are requested from the
// scheduler only while mounted, and Unmount cancels the outstanding request
// and disposes the effect.
type Stage struct {
	// ReadDeviceInput controls whether real mouse/touch input is polled.
	// Defaults to true; tests turn it off and use the Inject methods.
	ReadDeviceInput bool
	// ClearColor fills the surface before the effect draws, if non-zero alpha.
	ClearColor Color
	// ScreenshotDir is where Screenshot writes PNGs.
	ScreenshotDir string

	id     string
	effect Effect
	sched  FrameScheduler
	log    *zap.Logger

	width, height int
	mounted       bool
	failed        bool
	frameID       FrameID
	framePending  bool
	frame         Frame
	dt            float64

	pointer         pointerState
	injectQueue     []syntheticPointerEvent
	testRunner      *TestRunner
	screenshotQueue []string

	debug   bool
	stats   debugStats
	showFPS bool
	fps     *fpsOverlay
}

// NewStage creates a stage for effect. Panics if effect is nil.
func NewStage(effect Effect, opts StageOptions) *Stage {
	if effect == nil {
		panic("backdrop: NewStage called with nil effect")
	}
	s := &Stage{
		ReadDeviceInput: true,
		ClearColor:      opts.ClearColor,
		ScreenshotDir:   opts.ScreenshotDir,
		id:              uuid.NewString(),
		effect:          effect,
		sched:           opts.Scheduler,
		debug:           opts.Debug,
		showFPS:         opts.ShowFPS,
	}
	if s.sched == nil {
		s.sched = NewTickScheduler()
	}
	if s.ScreenshotDir == "" {
		s.ScreenshotDir = "screenshots"
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	s.log = lg.With(zap.String("effect", effect.Name()), zap.String("stage", s.id))
	s.pointer.cur = Pointer{X: leftPosition, Y: leftPosition}
	return s
}

// ID returns the stage's unique instance identifier.
func (s *Stage) ID() string { return s.id }

// Effect returns the hosted effect.
func (s *Stage) Effect() Effect { return s.effect }

// Size returns the current surface size in pixels.
func (s *Stage) Size() (int, int) { return s.width, s.height }

// Mounted reports whether the stage is between Mount and Unmount.
func (s *Stage) Mounted() bool { return s.mounted }

// Failed reports whether the effect failed to mount. A failed stage stays
// blank and never retries.
func (s *Stage) Failed() bool { return s.failed }

// Mount sizes the surface to w x h, mounts the effect and requests the first
// frame. If the effect cannot acquire its rendering surface the error is
// logged and returned, and the stage renders nothing until Unmount. Calling
// Mount on a mounted stage is a no-op.
func (s *Stage) Mount(w, h int) error {
	if s.mounted {
		return nil
	}
	s.width, s.height = max(w, 1), max(h, 1)
	s.mounted = true
	s.failed = false
	s.frame = Frame{Width: s.width, Height: s.height}
	if s.showFPS && s.fps == nil {
		s.fps = newFPSOverlay()
	}

	if err := s.effect.Mount(s.width, s.height); err != nil {
		s.failed = true
		s.log.Error("effect mount failed, rendering disabled", zap.Error(err))
		return err
	}
	s.log.Debug("mounted", zap.Int("width", s.width), zap.Int("height", s.height))
	s.requestFrame()
	return nil
}

// Unmount cancels the pending frame request and disposes the effect. It is
// idempotent.
func (s *Stage) Unmount() {
	if !s.mounted {
		return
	}
	s.mounted = false
	if s.framePending {
		s.sched.CancelFrame(s.frameID)
		s.framePending = false
	}
	s.effect.Dispose()
	s.injectQueue = s.injectQueue[:0]
	s.screenshotQueue = s.screenshotQueue[:0]
	if s.fps != nil {
		s.fps.dispose()
		s.fps = nil
	}
	s.log.Debug("unmounted", zap.Uint64("frames", s.frame.Index))
}

// Resize applies a new surface size. Identical sizes are coalesced; a
// failed or unmounted stage only records the size.
func (s *Stage) Resize(w, h int) {
	if w <= 0 || h <= 0 || (w == s.width && h == s.height) {
		return
	}
	s.width, s.height = w, h
	s.frame.Width, s.frame.Height = w, h
	if !s.mounted || s.failed {
		return
	}
	s.effect.Resize(w, h)
	s.log.Debug("resized", zap.Int("width", w), zap.Int("height", h))
}

func (s *Stage) requestFrame() {
	s.frameID = s.sched.RequestFrame(s.onFrame)
	s.framePending = true
}

// onFrame is the recurring frame callback. It re-arms itself only while the
// stage stays mounted.
func (s *Stage) onFrame() {
	s.framePending = false
	if !s.mounted || s.failed {
		return
	}
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.frame.Index++
	s.frame.Delta = s.dt
	s.frame.Time += s.dt
	s.frame.Pointer = s.pointer.cur
	s.effect.Update(&s.frame)

	if s.debug {
		s.stats.updateTime += time.Since(t0)
	}
	if s.mounted {
		s.requestFrame()
	}
}

// Update implements ebiten.Game. It advances the test runner, reads input and
// ticks the scheduler, which runs the frame callback. Returns
// ebiten.Termination once an attached test script with ExitWhenDone finishes.
func (s *Stage) Update() error {
	s.dt = 1 / float64(tps())
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	s.processInput()
	s.sched.Tick()
	if s.fps != nil {
		s.fps.update(s.dt)
	}
	if s.testRunner != nil && s.testRunner.ExitWhenDone && s.testRunner.Done() && len(s.screenshotQueue) == 0 {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (s *Stage) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	if s.mounted && !s.failed {
		var t0 time.Time
		if s.debug {
			t0 = time.Now()
		}
		s.effect.Draw(screen)
		if s.debug {
			s.stats.drawTime += time.Since(t0)
			s.stats.frames++
			s.debugLog()
		}
	}
	if s.fps != nil {
		s.fps.draw(screen)
	}
	s.flushScreenshots(screen)
}

// Layout implements ebiten.Game and doubles as the resize observer.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	s.Resize(outsideWidth, outsideHeight)
	return max(outsideWidth, 1), max(outsideHeight, 1)
}

func tps() int {
	if t := ebiten.TPS(); t > 0 {
		return t
	}
	return ebiten.DefaultTPS
}
