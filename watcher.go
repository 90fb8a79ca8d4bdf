package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const refreshDelay = 300 * time.Millisecond

// FileChangeMsg is sent when a markdown file in the vault changes
type FileChangeMsg struct {
	Path    string
	Deleted bool
}

// Watcher watches every vault directory that the scan would visit
type Watcher struct {
	watcher *fsnotify.Watcher
	vault   *Vault
	log     zerolog.Logger
}

func NewWatcher(vault *Vault, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{watcher: fw, vault: vault, log: log}
	if err := w.addTree(vault.Root); err != nil {
		_ = fw.Close()
		return nil, err
	}

	return w, nil
}

// addTree registers dir and its subdirectories, with the same skip rules as
// scanVault
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		if path != w.vault.Root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if rel, relErr := filepath.Rel(w.vault.Root, path); relErr == nil && rel != "." {
			if excluded(filepath.ToSlash(rel)+"/", w.vault.Exclude) {
				return filepath.SkipDir
			}
		}

		if err := w.watcher.Add(path); err != nil {
			w.log.Warn().Err(err).Str("dir", path).Msg("cannot watch directory")
		}
		return nil
	})
}

// next blocks until a markdown file changes. New directories are added to the
// watch list on the way. ok is false once the watcher is closed.
func (w *Watcher) next(ctx context.Context) (FileChangeMsg, bool) {
	for {
		select {
		case <-ctx.Done():
			return FileChangeMsg{}, false

		case event, ok := <-w.watcher.Events:
			if !ok {
				return FileChangeMsg{}, false
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
					continue
				}
			}

			if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
				continue
			}

			deleted := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
			return FileChangeMsg{Path: event.Name, Deleted: deleted}, true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return FileChangeMsg{}, false
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// WatchCmd waits for the next change as a Bubble Tea command
func (w *Watcher) WatchCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := w.next(context.Background())
		if !ok {
			return nil
		}
		return msg
	}
}

// Run invalidates changed files and calls refresh once changes settle, until
// ctx is done
func (w *Watcher) Run(ctx context.Context, refresh func()) {
	debouncer := NewDebouncer(refreshDelay)
	defer debouncer.Stop()

	for {
		msg, ok := w.next(ctx)
		if !ok {
			return
		}

		w.log.Debug().Str("file", msg.Path).Bool("deleted", msg.Deleted).Msg("file changed")
		w.vault.Invalidate(msg.Path)
		debouncer.Trigger(refresh)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Debouncer coalesces bursts of calls into a single call after the delay
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{duration: d}
}

// Trigger starts or resets the timer; only the last fn runs
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, fn)
}

// Stop cancels a pending call
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
