package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/repovault/internal/store"
)

// rescanInterval bounds how stale the missing flags can get when
// filesystem events are dropped or a path's parent directory cannot
// be watched.
const rescanInterval = 30 * time.Second

// Watcher observes the registered working-copy paths and updates each
// repository's missing flag through the store.
type Watcher struct {
	store  *store.Store
	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	watched map[string]struct{} // parent directories under watch
}

// New creates a new Watcher instance.
func New(st *store.Store) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Watcher{
		store:   st,
		stopCh:  make(chan struct{}),
		watched: make(map[string]struct{}),
	}, nil
}

// Start reconciles once immediately, then begins watching for
// filesystem events with a periodic full reconciliation as backstop.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.Reconcile(); err != nil {
		fmt.Fprintf(os.Stderr, "watcher: initial reconciliation: %v\n", err)
	}

	w.wg.Add(1)
	go w.run()

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.Reconcile(); err != nil {
				fmt.Fprintf(os.Stderr, "watcher: reconciliation error: %v\n", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: filesystem watch error: %v\n", err)
		case <-ticker.C:
			if err := w.Reconcile(); err != nil {
				fmt.Fprintf(os.Stderr, "watcher: reconciliation error: %v\n", err)
			}
		case <-w.stopCh:
			return
		}
	}
}

// Stop halts the watcher and releases the filesystem watches.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// Reconcile compares every registered working copy against the
// filesystem and updates missing flags that no longer match. It also
// refreshes the watch set so repositories registered after Start are
// picked up.
func (w *Watcher) Reconcile() error {
	repos, err := w.store.ListRepositories()
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	for _, repo := range repos {
		w.watchParent(repo.Path)

		missing := !pathExists(repo.Path)
		if missing == repo.Missing {
			continue
		}
		if _, err := w.store.UpdateMissing(repo, missing); err != nil {
			return fmt.Errorf("failed to update missing flag for %s: %w", repo.Path, err)
		}
	}
	return nil
}

// watchParent adds the parent directory of path to the fsnotify watch
// set. Watching the parent rather than the path itself means removal
// and re-creation of the working copy are both observed.
func (w *Watcher) watchParent(path string) {
	parent := filepath.Dir(path)

	w.mu.Lock()
	_, seen := w.watched[parent]
	if !seen {
		w.watched[parent] = struct{}{}
	}
	w.mu.Unlock()
	if seen || w.fsw == nil {
		return
	}

	if err := w.fsw.Add(parent); err != nil {
		// The periodic reconciliation still covers this path.
		fmt.Fprintf(os.Stderr, "watcher: cannot watch %s: %v\n", parent, err)
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
