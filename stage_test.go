package backdrop

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeEffect records every lifecycle call.
type fakeEffect struct {
	mountErr error

	mounts, resizes, updates, draws, disposes int
	w, h                                      int
	last                                      Frame
}

func (e *fakeEffect) Name() string { return "fake" }

func (e *fakeEffect) Mount(w, h int) error {
	e.mounts++
	e.w, e.h = w, h
	return e.mountErr
}

func (e *fakeEffect) Resize(w, h int) {
	e.resizes++
	e.w, e.h = w, h
}

func (e *fakeEffect) Update(f *Frame) {
	e.updates++
	e.last = *f
}

func (e *fakeEffect) Draw(*ebiten.Image) { e.draws++ }
func (e *fakeEffect) Dispose()           { e.disposes++ }

// countingScheduler wraps a TickScheduler and counts requests and
// cancellations.
type countingScheduler struct {
	TickScheduler
	requests, cancels int
}

func (s *countingScheduler) RequestFrame(cb FrameCallback) FrameID {
	s.requests++
	return s.TickScheduler.RequestFrame(cb)
}

func (s *countingScheduler) CancelFrame(id FrameID) {
	s.cancels++
	s.TickScheduler.CancelFrame(id)
}

func newTestStage(fx Effect, opts StageOptions) (*Stage, *countingScheduler) {
	sched := &countingScheduler{}
	opts.Scheduler = sched
	s := NewStage(fx, opts)
	s.ReadDeviceInput = false
	return s, sched
}

func TestStageMountRequestsFrame(t *testing.T) {
	fx := &fakeEffect{}
	s, sched := newTestStage(fx, StageOptions{})

	if err := s.Mount(320, 200); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !s.Mounted() {
		t.Fatal("Mounted() = false after Mount")
	}
	if fx.mounts != 1 || fx.w != 320 || fx.h != 200 {
		t.Errorf("effect mounted %d times at %dx%d, want once at 320x200", fx.mounts, fx.w, fx.h)
	}
	if sched.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", sched.Pending())
	}

	// Mounting again is a no-op.
	if err := s.Mount(10, 10); err != nil {
		t.Fatalf("second Mount: %v", err)
	}
	if fx.mounts != 1 {
		t.Errorf("mounts = %d, want 1", fx.mounts)
	}
	s.Unmount()
}

func TestStageFrameLoop(t *testing.T) {
	fx := &fakeEffect{}
	s, sched := newTestStage(fx, StageOptions{})
	if err := s.Mount(100, 100); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer s.Unmount()

	for range 5 {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if fx.updates != 5 {
		t.Errorf("updates = %d, want 5", fx.updates)
	}
	if fx.last.Index != 5 {
		t.Errorf("Frame.Index = %d, want 5", fx.last.Index)
	}
	if fx.last.Delta <= 0 || fx.last.Time < fx.last.Delta*4.99 {
		t.Errorf("Frame timing = (time %v, delta %v), want 5 accumulated deltas", fx.last.Time, fx.last.Delta)
	}
	if sched.Pending() != 1 {
		t.Errorf("Pending() = %d, want exactly one outstanding request", sched.Pending())
	}
	if sched.requests != 6 {
		t.Errorf("requests = %d, want 6", sched.requests)
	}
}

func TestStageUnmountCancelsOnce(t *testing.T) {
	fx := &fakeEffect{}
	s, sched := newTestStage(fx, StageOptions{})
	if err := s.Mount(100, 100); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	s.Unmount()
	s.Unmount()

	if sched.cancels != 1 {
		t.Errorf("cancels = %d, want 1", sched.cancels)
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sched.Pending())
	}
	if fx.disposes != 1 {
		t.Errorf("disposes = %d, want 1", fx.disposes)
	}

	// No further frames run after unmount.
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fx.updates != 0 {
		t.Errorf("updates = %d after unmount, want 0", fx.updates)
	}
}

func TestStageResizeCoalesces(t *testing.T) {
	fx := &fakeEffect{}
	s, _ := newTestStage(fx, StageOptions{})
	if err := s.Mount(100, 80); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer s.Unmount()

	s.Resize(100, 80)
	s.Resize(0, 50)
	s.Resize(40, -1)
	if fx.resizes != 0 {
		t.Errorf("resizes = %d, want 0 for same or invalid sizes", fx.resizes)
	}

	s.Resize(200, 80)
	if fx.resizes != 1 || fx.w != 200 {
		t.Errorf("resizes = %d width = %d, want 1 and 200", fx.resizes, fx.w)
	}

	w, h := s.Layout(300, 150)
	if w != 300 || h != 150 {
		t.Errorf("Layout = %dx%d, want 300x150", w, h)
	}
	if fx.resizes != 2 {
		t.Errorf("resizes = %d after Layout, want 2", fx.resizes)
	}
	s.Layout(300, 150)
	if fx.resizes != 2 {
		t.Errorf("resizes = %d after identical Layout, want 2", fx.resizes)
	}

	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fx.last.Width != 300 || fx.last.Height != 150 {
		t.Errorf("Frame size = %dx%d, want 300x150", fx.last.Width, fx.last.Height)
	}
}

func TestStageFailedMountStaysBlank(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	fx := &fakeEffect{mountErr: ErrSurfaceUnavailable}
	s, sched := newTestStage(fx, StageOptions{Logger: zap.New(core)})

	err := s.Mount(64, 64)
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Mount error = %v, want ErrSurfaceUnavailable", err)
	}
	if !s.Failed() {
		t.Error("Failed() = false, want true")
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 for a failed stage", sched.Pending())
	}
	if logs.Len() != 1 {
		t.Errorf("error logs = %d, want 1", logs.Len())
	}

	screen := ebiten.NewImage(16, 16)
	defer screen.Deallocate()
	s.Draw(screen)
	s.Resize(128, 128)
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fx.draws != 0 || fx.updates != 0 || fx.resizes != 0 {
		t.Errorf("failed effect got draws=%d updates=%d resizes=%d, want none", fx.draws, fx.updates, fx.resizes)
	}

	// Dispose still runs so a half-mounted effect can clean up.
	s.Unmount()
	if fx.disposes != 1 {
		t.Errorf("disposes = %d, want 1", fx.disposes)
	}
}

func TestStagePointerReachesEffect(t *testing.T) {
	fx := &fakeEffect{}
	s, _ := newTestStage(fx, StageOptions{})
	if err := s.Mount(200, 200); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer s.Unmount()

	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fx.last.Pointer.Active() {
		t.Error("pointer active before any input")
	}

	s.InjectMove(40, 60)
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p := fx.last.Pointer
	if !p.Active() || p.X != 40 || p.Y != 60 || !p.Moved {
		t.Errorf("pointer = %+v, want active at (40, 60) and moved", p)
	}

	s.InjectClick(40, 60)
	for range 2 {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if !fx.last.Pointer.Clicked {
		t.Error("Clicked = false on the release frame")
	}

	s.InjectLeave()
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fx.last.Pointer.Active() {
		t.Error("pointer still active after leave")
	}
}

func TestStageDrawsEffect(t *testing.T) {
	fx := &fakeEffect{}
	s, _ := newTestStage(fx, StageOptions{ClearColor: RGB(10, 20, 30), ShowFPS: true, Debug: true})
	if err := s.Mount(32, 32); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	screen := ebiten.NewImage(32, 32)
	defer screen.Deallocate()

	s.Draw(screen)
	if fx.draws != 1 {
		t.Errorf("draws = %d, want 1", fx.draws)
	}
	s.Unmount()
	s.Draw(screen)
	if fx.draws != 1 {
		t.Errorf("draws = %d after unmount, want 1", fx.draws)
	}
}

func TestNewStageDefaults(t *testing.T) {
	s := NewStage(&fakeEffect{}, StageOptions{})
	if s.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want %q", s.ScreenshotDir, "screenshots")
	}
	if s.ID() == "" || s.ID() == NewStage(&fakeEffect{}, StageOptions{}).ID() {
		t.Error("stage IDs should be unique and non-empty")
	}
	if !s.ReadDeviceInput {
		t.Error("ReadDeviceInput defaults to false")
	}

	defer func() {
		if recover() == nil {
			t.Error("NewStage(nil) did not panic")
		}
	}()
	NewStage(nil, StageOptions{})
}

func TestEveryEffectMountsAndUnmounts(t *testing.T) {
	opts := DefaultOptions()
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			fx, err := NewEffect(name, opts)
			if err != nil {
				t.Fatalf("NewEffect: %v", err)
			}
			s, sched := newTestStage(fx, StageOptions{})
			if err := s.Mount(64, 48); err != nil {
				t.Fatalf("Mount: %v", err)
			}
			if s.Failed() {
				t.Fatal("Failed() = true after a successful Mount")
			}

			screen := ebiten.NewImage(64, 48)
			defer screen.Deallocate()
			s.InjectMove(32, 24)
			for range 3 {
				if err := s.Update(); err != nil {
					t.Fatalf("Update: %v", err)
				}
				s.Draw(screen)
			}
			s.Resize(80, 60)
			if err := s.Update(); err != nil {
				t.Fatalf("Update after resize: %v", err)
			}
			s.Draw(screen)

			s.Unmount()
			s.Unmount()
			if sched.cancels != 1 {
				t.Errorf("cancels = %d, want 1", sched.cancels)
			}
			if sched.Pending() != 0 {
				t.Errorf("Pending() = %d, want 0", sched.Pending())
			}
		})
	}
}
