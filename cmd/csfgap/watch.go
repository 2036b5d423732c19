package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/csfgap/internal/metrics"
)

const watchOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// watchAnalyze runs the analysis, then re-runs it whenever the assessment or
// a custom taxonomy file changes, until ctx is cancelled. Bursts of events
// within the debounce window trigger a single run. Failed runs are logged and
// do not stop the watch.
func (a *app) watchAnalyze(ctx context.Context, r *analyzeRun) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()

	targets := []string{r.path}
	if a.cfg.TaxonomyPath != "" {
		targets = append(targets, a.cfg.TaxonomyPath)
	}
	files, err := watchTargets(fsw, targets)
	if err != nil {
		return exitError(exitInput, "watch: %v", err)
	}

	rec := metrics.NewRecorder()
	if a.cfg.MetricsAddr != "" {
		stop := a.serveMetrics(a.cfg.MetricsAddr, rec)
		defer stop()
	}

	run := func() {
		rep, err := a.runAnalyze(r)
		if rep != nil {
			rec.Observe(rep.Summary, rep.Impact, float64(r.now().Unix()))
		} else {
			rec.ObserveFailure()
		}
		if err != nil {
			a.log.Warn("analysis failed", zap.Error(err), zap.Int("exit_code", exitCode(err)))
		}
	}
	run()

	debounce := time.Duration(a.cfg.WatchDebounceMs) * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	a.log.Info("watching for changes", zap.Strings("files", targets), zap.Duration("debounce", debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !files[abs] || ev.Op&watchOps == 0 {
				continue
			}
			a.log.Debug("file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			run()
		}
	}
}

// watchTargets watches the parent directory of each file, so that editors
// replacing a file by rename are still seen, and returns the absolute file
// paths to react to.
func watchTargets(fsw *fsnotify.Watcher, paths []string) (map[string]bool, error) {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return files, nil
}

// serveMetrics exposes rec on addr under /metrics and returns a func that
// shuts the server down.
func (a *app) serveMetrics(addr string, rec *metrics.Recorder) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
