package backdrop

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	Resizable     bool
	ShowFPS       bool
	// Debug logs averaged frame timings at debug level.
	Debug bool
	// TPS sets the update rate. Zero keeps Ebitengine's default of 60.
	TPS        int
	Logger     *zap.Logger
	ClearColor Color
	// ScreenshotDir is where test-script screenshots are written.
	ScreenshotDir string
	// Script is an optional JSON test script. The window closes once it
	// finishes.
	Script []byte
}

// Run opens a window, mounts effect on a new Stage and blocks until the
// window closes. The effect is unmounted before Run returns.
func Run(effect Effect, cfg RunConfig) error {
	stage, err := newRunStage(effect, cfg)
	if err != nil {
		return err
	}
	defer stage.Unmount()
	return RunStage(stage, cfg)
}

func newRunStage(effect Effect, cfg RunConfig) (*Stage, error) {
	stage := NewStage(effect, StageOptions{
		Logger:        cfg.Logger,
		Debug:         cfg.Debug,
		ShowFPS:       cfg.ShowFPS,
		ClearColor:    cfg.ClearColor,
		ScreenshotDir: cfg.ScreenshotDir,
	})
	if len(cfg.Script) > 0 {
		runner, err := LoadTestScript(cfg.Script)
		if err != nil {
			return nil, err
		}
		runner.ExitWhenDone = true
		stage.SetTestRunner(runner)
	}
	return stage, nil
}

// RunStage runs an already constructed game, which may wrap one or more
// stages, in a window described by cfg. A Stage passed directly is mounted
// at the window size first. A mount failure leaves the window blank rather
// than aborting.
func RunStage(game ebiten.Game, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 600
	}
	title := cfg.Title
	if title == "" {
		title = "backdrop"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if s, ok := game.(*Stage); ok && !s.Mounted() {
		_ = s.Mount(w, h)
	}
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
