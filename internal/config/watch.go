package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads path whenever it changes and sends each valid result on the
// returned channel. Rapid saves are coalesced into one reload; files that
// fail to load are logged and skipped. Removing the file reloads the
// defaults. The directory is watched rather than the file so editors that
// save by rename keep working. The channel is closed once ctx is cancelled
// and the watcher has shut down.
func Watch(ctx context.Context, path string, debounce time.Duration, log *zap.Logger) (<-chan *Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}

	out := make(chan *Config, 1)
	w := &watcher{path: abs, debounce: debounce, log: log.With(zap.String("config", abs)), fsw: fsw, out: out}
	go w.run(ctx)
	return out, nil
}

type watcher struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
	fsw      *fsnotify.Watcher
	out      chan *Config
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.out)
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug("config changed", zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("config reload rejected", zap.Error(err))
				continue
			}
			w.log.Info("config reloaded", zap.String("effect", cfg.Effect))
			select {
			case w.out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}
}
