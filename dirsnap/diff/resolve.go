package diff

import (
	"fmt"
	"os"

	"github.com/mtreilly/dirsnap/dirsnap/snapshot"
)

// ResolveBaseline opens the baseline side of a diff. Only a snapshot database
// is a valid baseline; a directory is rejected.
func ResolveBaseline(path string) (*snapshot.Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", snapshot.ErrNotSnapshot, path)
	}
	return snapshot.Open(path)
}

// Resolve opens the second side of a diff. An existing directory is collected
// transiently into an in-memory store using the given recursion flag; a
// snapshot database is loaded as-is. Anything else is a validation error.
func Resolve(path string, walk bool) (*snapshot.Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return snapshot.CreateSnapshotInMemory(path, snapshot.WithWalk(walk))
	}
	if snapshot.IsSnapshotFile(path) {
		return snapshot.Open(path)
	}
	return nil, fmt.Errorf("%w: %s is not a directory or a snapshot database", snapshot.ErrNotSnapshot, path)
}
