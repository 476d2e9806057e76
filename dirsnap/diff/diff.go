package diff

import (
	"fmt"

	"github.com/mtreilly/dirsnap/dirsnap/snapshot"
)

// Compare decides whether two records for the same path are equal for diff
// purposes. Callers may substitute their own policy (a size-only compare,
// for example) via WithCompare.
type Compare func(a, b snapshot.Record) bool

// DefaultCompare reports records equal iff every captured attribute matches.
func DefaultCompare(a, b snapshot.Record) bool {
	return a.IsDir == b.IsDir &&
		a.IsFile == b.IsFile &&
		a.Mode == b.Mode &&
		a.UID == b.UID &&
		a.GID == b.GID &&
		a.Size == b.Size &&
		a.MTime == b.MTime
}

// Differ reconciles a baseline snapshot A against a snapshot B into a Delta.
// Both inputs are snapshot stores; resolving a live directory or a snapshot
// file into a store happens at the boundary, see Resolve.
type Differ struct {
	a, b    *snapshot.Store
	filter  snapshot.Filter
	compare Compare
}

// Option configures a Differ.
type Option func(*Differ)

// WithFilter sets the inclusion filter applied to both snapshots at diff
// time, independently of any filtering done at collection time. Excluded
// paths appear in no bucket.
func WithFilter(filter snapshot.Filter) Option {
	return func(d *Differ) {
		d.filter = filter
	}
}

// WithCompare replaces the default per-record comparison predicate.
func WithCompare(compare Compare) Option {
	return func(d *Differ) {
		d.compare = compare
	}
}

// New creates a Differ over two snapshot stores.
func New(a, b *snapshot.Store, opts ...Option) *Differ {
	d := &Differ{a: a, b: b, compare: DefaultCompare}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff classifies every path present in either snapshot into exactly one of
// the four Delta buckets. Classification of a path depends only on the two
// records for it (or their absence) and the comparison predicate, never on
// iteration order.
func (d *Differ) Diff() (*Delta, error) {
	delta := &Delta{
		Added:     []string{},
		Removed:   []string{},
		Modified:  []string{},
		Identical: []string{},
	}

	recordsB, err := d.b.Records()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot B: %w", err)
	}

	seen := make(map[string]struct{}, len(recordsB))
	for _, recB := range recordsB {
		if d.filter != nil && !d.filter(recB.Path) {
			continue
		}
		seen[recB.Path] = struct{}{}

		recA, err := d.a.Record(recB.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot A: %w", err)
		}

		switch {
		case recA == nil:
			delta.Added = append(delta.Added, recB.Path)
		case d.compare(*recA, recB):
			delta.Identical = append(delta.Identical, recB.Path)
		default:
			delta.Modified = append(delta.Modified, recB.Path)
		}
	}

	recordsA, err := d.a.Records()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot A: %w", err)
	}
	for _, recA := range recordsA {
		if d.filter != nil && !d.filter(recA.Path) {
			continue
		}
		if _, ok := seen[recA.Path]; !ok {
			delta.Removed = append(delta.Removed, recA.Path)
		}
	}

	return delta, nil
}
