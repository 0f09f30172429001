package config

import (
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches a single config file for changes and calls onReload
// with the freshly parsed Document whenever its content actually
// changes. fsnotify delivers more than one WRITE event for a single
// logical save (common with editors that write-then-rename); the
// content hash debounce means onReload only fires once per distinct
// version of the file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	lastHash uint64
	onReload func(*Document)

	stop chan struct{}
	done chan struct{}
}

// NewWatcher starts watching path's parent directory (fsnotify does not
// reliably track a path recreated by rename) and calls onReload once for
// every distinct content change it observes.
func NewWatcher(path string, onReload func(*Document)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		onReload: onReload,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if data, err := os.ReadFile(path); err == nil {
		w.lastHash = xxhash.Sum64(data)
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.maybeReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithField("path", w.path).WithError(err).Warn("logpp: config watcher error")

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) maybeReload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		logrus.WithField("path", w.path).WithError(err).Warn("logpp: config reload: failed to read file")
		return
	}

	hash := xxhash.Sum64(data)
	if hash == w.lastHash {
		return
	}
	w.lastHash = hash

	doc, err := Parse(data)
	if err != nil {
		logrus.WithField("path", w.path).WithError(err).Warn("logpp: config reload: parse failed, keeping previous configuration")
		return
	}

	logrus.WithField("path", w.path).Info("logpp: configuration changed, reloading")
	w.onReload(doc)
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify.Watcher. Idempotent.
func (w *Watcher) Close() error {
	select {
	case <-w.stop:
		return nil
	default:
		close(w.stop)
	}
	<-w.done
	return w.watcher.Close()
}
