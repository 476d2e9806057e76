package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// Option configures a snapshot collection.
type Option func(*collectOptions)

type collectOptions struct {
	walk        bool
	description string
	filter      Filter
}

// WithWalk controls whether the collector recurses into subdirectories.
// Recursion is on by default; disabled, only the root's immediate children
// are recorded.
func WithWalk(walk bool) Option {
	return func(o *collectOptions) {
		o.walk = walk
	}
}

// WithDescription sets the free-text description stored in the snapshot header.
func WithDescription(description string) Option {
	return func(o *collectOptions) {
		o.description = description
	}
}

// WithFilter sets the inclusion filter evaluated on every visited path.
// A false result excludes the entry from the snapshot but never prunes the
// traversal itself: children of an excluded directory are still visited.
func WithFilter(filter Filter) Option {
	return func(o *collectOptions) {
		o.filter = filter
	}
}

// CreateSnapshot collects the metadata of every entry under dirPath into a
// new snapshot store at dbPath. The snapshot is committed as a single unit
// once the walk completes; readers never observe a partial snapshot.
//
// Filesystem failures during the walk (permission denied, entries that vanish
// between listing and stat) propagate to the caller and roll the snapshot
// back; the collector performs no retries.
func CreateSnapshot(dirPath, dbPath string, opts ...Option) (*Store, error) {
	options := collectOptions{walk: true}
	for _, opt := range opts {
		opt(&options)
	}

	if dbPath != InMemory {
		if _, err := os.Stat(dbPath); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, dbPath)
		}
	}

	info, err := os.Stat(dirPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dirPath)
	}

	store, err := Create(dbPath, dirPath, options.description)
	if err != nil {
		return nil, err
	}

	if err := store.collect(dirPath, options); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// CreateSnapshotInMemory collects dirPath into a transient in-memory store.
func CreateSnapshotInMemory(dirPath string, opts ...Option) (*Store, error) {
	return CreateSnapshot(dirPath, InMemory, opts...)
}

// collect runs the traversal inside one transaction so the snapshot body
// becomes visible atomically.
func (s *Store) collect(dirPath string, options collectOptions) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() // Will be a no-op if transaction is committed

	if err := s.walkDir(tx, dirPath, options); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// walkDir records every immediate child of dir, then descends top-down. Note
// that subdirectories are collected for descent before the filter runs:
// filtering is a recording-time concern, not a traversal-pruning one.
func (s *Store) walkDir(tx execer, dir string, options collectOptions) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
		}

		if options.filter != nil && !options.filter(path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		rec := NewRecord(path, info, entry.IsDir(), entry.Type().IsRegular())
		if err := insertRecord(tx, rec); err != nil {
			return err
		}
	}

	if !options.walk {
		return nil
	}

	for _, subdir := range subdirs {
		if err := s.walkDir(tx, subdir, options); err != nil {
			return err
		}
	}
	return nil
}
