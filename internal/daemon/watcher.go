package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watcher calls onChange, debounced, after the watched file is written,
// created or renamed into place. The parent directory is watched so that
// atomic replacements are seen.
type watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	log      logrus.FieldLogger

	fs   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

func newWatcher(path string, debounce time.Duration, onChange func(), log logrus.FieldLogger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch manifest directory %s: %w", dir, err)
	}
	return &watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		fs:       fw,
		done:     make(chan struct{}),
	}, nil
}

func (w *watcher) start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

func (w *watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.log.WithField("op", event.Op.String()).Debug("manifest changed")
				w.trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("manifest watcher error")
		}
	}
}

func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *watcher) stop() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
