package bridge

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external modifications of one Markdown file after a
// debounce. Editors and git produce bursts of writes, renames and chmods
// for a single logical change; only the settled state matters here.
type Watcher struct {
	path     string
	debounce time.Duration
	fw       *fsnotify.Watcher
	events   chan string
	done     chan struct{}
	once     sync.Once
}

// NewWatcher starts watching path. The parent directory is watched rather
// than the file itself so atomic-rename saves keep being seen.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		debounce: debounce,
		fw:       fw,
		events:   make(chan string, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Events emits the watched path once per settled burst of changes.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and its goroutine. Pending debounced events are
// dropped. Closing more than once is harmless.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
	})
	return err
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- w.path:
			default:
				// The consumer is behind; one pending notification is
				// enough, updates re-read the whole file anyway.
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}
