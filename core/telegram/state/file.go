package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type snapshotEntry[T any] struct {
	Key   int64 `yaml:"key"`
	Value T     `yaml:"value"`
}

type snapshot[T any] struct {
	Entries []snapshotEntry[T] `yaml:"entries"`
}

// File is a Store that keeps every value in memory and rewrites a YAML snapshot
// on each change. Values survive restarts.
type File[T any] struct {
	path string

	mu     sync.Mutex
	values map[int64]T
}

// OpenFile loads the snapshot at path. A missing file starts an empty store.
func OpenFile[T any](path string) (*File[T], error) {
	f := &File[T]{path: path, values: make(map[int64]T)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	var snap snapshot[T]
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	for _, e := range snap.Entries {
		f.values[e.Key] = e.Value
	}
	return f, nil
}

func (f *File[T]) Get(_ context.Context, key int64) (T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *File[T]) Put(_ context.Context, key int64, value T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flushLocked()
}

func (f *File[T]) Delete(_ context.Context, key int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flushLocked()
}

func (f *File[T]) flushLocked() error {
	snap := snapshot[T]{Entries: make([]snapshotEntry[T], 0, len(f.values))}
	for k, v := range f.values {
		snap.Entries = append(snap.Entries, snapshotEntry[T]{Key: k, Value: v})
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
