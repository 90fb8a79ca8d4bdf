package main

import (
	"os"
	"sync"
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

type cacheEntry struct {
	modTime time.Time
	tasks   []*tasks.Task
}

// TaskCache keeps the parsed tasks of each note keyed by path, valid for as
// long as the note's mtime does not change. Tasks are never mutated, so
// cached slices are shared between loads.
type TaskCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewTaskCache() *TaskCache {
	return &TaskCache{entries: make(map[string]cacheEntry)}
}

// Tasks returns the tasks of the note at path, calling parse only when the
// note is new or its mtime moved. The mtime is read before parsing, so a
// write racing the parse is picked up on the next call. The bool reports a
// cache hit.
func (c *TaskCache) Tasks(path string, parse func(string) ([]*tasks.Task, error)) ([]*tasks.Task, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Invalidate(path)
		return nil, false, err
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()

	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.tasks, true, nil
	}

	parsed, err := parse(path)
	if err != nil {
		c.Invalidate(path)
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: info.ModTime(), tasks: parsed}
	c.mu.Unlock()

	return parsed, false, nil
}

// Retain drops every note not in paths, such as notes deleted or newly
// excluded since the last scan
func (c *TaskCache) Retain(paths []string) {
	keep := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		keep[p] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.entries {
		if _, ok := keep[p]; !ok {
			delete(c.entries, p)
		}
	}
}

// Invalidate forgets one note
func (c *TaskCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Len returns the number of cached notes
func (c *TaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
