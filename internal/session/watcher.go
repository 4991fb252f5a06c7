package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"doggodiary/internal/observability"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 150 * time.Millisecond

// Synchronizer reconciles the store when another process mutates the
// session file. The store's own writes also pass through here; Reload
// is idempotent, so the extra pass is harmless.
type Synchronizer struct {
	store   *Store
	watcher *fsnotify.Watcher
	log     *observability.Logger
	started bool
	done    chan struct{}
}

// NewSynchronizer watches the directory of the store's session file.
// Watching the directory rather than the file survives the atomic
// rename the store uses when persisting.
func NewSynchronizer(store *Store) (*Synchronizer, error) {
	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &Synchronizer{
		store:   store,
		watcher: watcher,
		log:     observability.Component("session-sync"),
		done:    make(chan struct{}),
	}, nil
}

// Start runs the watch loop until ctx is done or Close is called.
// Start may be called at most once.
func (s *Synchronizer) Start(ctx context.Context) {
	s.started = true
	go s.loop(ctx)
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.store.Path()) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts: an atomic persist shows up as
			// create+rename.
			timer.Reset(watchDebounce)
			timerC = timer.C
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("session file watch error", "error", err)
		case <-timerC:
			timerC = nil
			if err := s.store.Reload(ctx); err != nil {
				s.log.Warn("session reload after file change failed", "error", err)
			}
		}
	}
}

// Close stops the watch loop and releases the watcher. Safe to call
// even when Start never ran.
func (s *Synchronizer) Close() error {
	err := s.watcher.Close()
	if s.started {
		<-s.done
	}
	return err
}
