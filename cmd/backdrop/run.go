package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phanxgames/backdrop"
	"github.com/phanxgames/backdrop/internal/config"
)

type runFlags struct {
	width, height int
	script        string
	watch         bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [effect]",
		Short: "Show an effect in a window",
		Long: `Show an effect in a window. Without an argument the effect named in the
config file is shown.

With --watch, saving the config file replaces the running effect with one
built from the new settings. Invalid edits are logged and ignored.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: backdrop.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runWindow(cmd.Context(), name, f)
		},
	}
	cmd.Flags().IntVar(&f.width, "width", 0, "Window width (overrides config)")
	cmd.Flags().IntVar(&f.height, "height", 0, "Window height (overrides config)")
	cmd.Flags().StringVar(&f.script, "script", "", "JSON test script to play; the window closes when it ends")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Reload the effect when the config file changes")
	return cmd
}

func runWindow(ctx context.Context, name string, f runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rc := cfg.RunConfig()
	if f.width > 0 {
		rc.Width = f.width
	}
	if f.height > 0 {
		rc.Height = f.height
	}

	var runner *backdrop.TestRunner
	if f.script != "" {
		data, err := os.ReadFile(f.script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		if runner, err = backdrop.LoadTestScript(data); err != nil {
			return err
		}
		runner.ExitWhenDone = true
	}

	sw, err := newSwapper(cfg, name, logger, runner)
	if err != nil {
		return err
	}
	defer sw.Unmount()

	if f.watch {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		reloads, err := config.Watch(ctx, configPath, config.DefaultDebounce, logger)
		if err != nil {
			return err
		}
		sw.reloads = reloads
		logger.Info("watching config", zap.String("path", configPath))
	}

	if err := sw.Mount(rc.Width, rc.Height); err != nil {
		logger.Warn("effect disabled", zap.Error(err))
	}
	return backdrop.RunStage(sw, rc)
}

// buildEffect constructs the effect named by override, or by cfg.Effect
// when override is empty.
func buildEffect(cfg *config.Config, override string) (backdrop.Effect, error) {
	name := override
	if name == "" {
		name = cfg.Effect
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return backdrop.NewEffect(name, opts)
}

func stageOptions(cfg *config.Config, log *zap.Logger) backdrop.StageOptions {
	rc := cfg.RunConfig()
	return backdrop.StageOptions{
		Logger:        log,
		Debug:         rc.Debug,
		ShowFPS:       rc.ShowFPS,
		ClearColor:    rc.ClearColor,
		ScreenshotDir: rc.ScreenshotDir,
	}
}

// swapper is an ebiten.Game that hosts one Stage and replaces it whenever a
// new config arrives on reloads. The old stage is unmounted before the new
// one is mounted at the same size.
type swapper struct {
	stage    *backdrop.Stage
	override string
	log      *zap.Logger
	runner   *backdrop.TestRunner
	reloads  <-chan *config.Config
	swaps    int
}

func newSwapper(cfg *config.Config, override string, log *zap.Logger, runner *backdrop.TestRunner) (*swapper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fx, err := buildEffect(cfg, override)
	if err != nil {
		return nil, err
	}
	sw := &swapper{override: override, log: log, runner: runner}
	sw.stage = sw.newStage(fx, cfg)
	return sw, nil
}

func (sw *swapper) newStage(fx backdrop.Effect, cfg *config.Config) *backdrop.Stage {
	st := backdrop.NewStage(fx, stageOptions(cfg, sw.log))
	if sw.runner != nil {
		st.SetTestRunner(sw.runner)
	}
	return st
}

// Mount mounts the current stage.
func (sw *swapper) Mount(w, h int) error { return sw.stage.Mount(w, h) }

// Unmount unmounts the current stage.
func (sw *swapper) Unmount() { sw.stage.Unmount() }

// apply swaps in an effect built from cfg. Configs that cannot be turned
// into an effect are logged and the current stage keeps running.
func (sw *swapper) apply(cfg *config.Config) {
	fx, err := buildEffect(cfg, sw.override)
	if err != nil {
		sw.log.Warn("reload skipped", zap.Error(err))
		return
	}
	w, h := sw.stage.Size()
	mounted := sw.stage.Mounted()
	sw.stage.Unmount()
	sw.stage = sw.newStage(fx, cfg)
	sw.swaps++
	sw.log.Info("effect swapped", zap.String("effect", fx.Name()), zap.Int("swaps", sw.swaps))
	if mounted {
		_ = sw.stage.Mount(w, h)
	}
}

// poll applies at most one pending reload without blocking.
func (sw *swapper) poll() {
	select {
	case cfg, ok := <-sw.reloads:
		if !ok {
			sw.reloads = nil
			return
		}
		sw.apply(cfg)
	default:
	}
}

func (sw *swapper) Update() error {
	sw.poll()
	return sw.stage.Update()
}

func (sw *swapper) Draw(screen *ebiten.Image) { sw.stage.Draw(screen) }

func (sw *swapper) Layout(outsideWidth, outsideHeight int) (int, int) {
	return sw.stage.Layout(outsideWidth, outsideHeight)
}
