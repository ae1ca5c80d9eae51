package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/logging"
)

// DefaultDebounce collapses bursts of file events into one regeneration.
const DefaultDebounce = 300 * time.Millisecond

// watcher re-runs a job whenever one of its paths changes.
type watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger
}

// newWatcher watches every existing path; missing ones are skipped so a
// docs search path that does not exist yet is not an error.
func newWatcher(paths []string, debounce time.Duration, log *zap.SugaredLogger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	w := &watcher{fs: fw, debounce: debounce, log: logging.OrNop(log)}

	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			w.log.Debugw("not watching missing path", logging.FieldPath, p)
			continue
		}
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "watch %s", p)
		}
		w.log.Debugw("watching", logging.FieldPath, p)
	}
	return w, nil
}

// run calls job once per debounced burst of changes until ctx is done. A
// failing job is logged and the watch continues.
func (w *watcher) run(ctx context.Context, job func() error) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debugw("change detected", logging.FieldPath, ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watch error", "error", err)

		case <-timer.C:
			if err := job(); err != nil {
				w.log.Warnw("regeneration failed", "error", err)
			}
		}
	}
}

// relevant drops chmod-only events and editor scratch files.
func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return !strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".swp") &&
		!strings.HasPrefix(base, ".#")
}
