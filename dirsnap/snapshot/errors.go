package snapshot

import "errors"

// Common error types used across the snapshot and diff packages
var (
	ErrSnapshotExists = errors.New("snapshot database already exists")
	ErrNotSnapshot    = errors.New("not a snapshot database")
	ErrNotDirectory   = errors.New("not an existing directory")
)
