package diff

import (
	"fmt"
	"io"
)

// Report writes a plain-text rendering of the diff: a header naming the two
// snapshots, then the added, removed and modified sections. Identical paths
// are listed only when includeIdentical is set.
func (d *Differ) Report(w io.Writer, includeIdentical bool) error {
	delta, err := d.Diff()
	if err != nil {
		return err
	}

	infoA, err := d.a.Info()
	if err != nil {
		return err
	}
	infoB, err := d.b.Info()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "diff '%s' %s (%s) vs %s (%s)\n",
		infoA.Directory, infoA.DateTime, infoA.Description, infoB.DateTime, infoB.Description)

	writeSection(w, "Added", delta.Added)
	writeSection(w, "Removed", delta.Removed)
	writeSection(w, "Modified", delta.Modified)
	if includeIdentical {
		writeSection(w, "Identical", delta.Identical)
	}

	return nil
}

func writeSection(w io.Writer, name string, paths []string) {
	fmt.Fprintf(w, "%s:\n", name)
	for _, path := range paths {
		fmt.Fprintf(w, "    %s\n", path)
	}
	if len(paths) > 0 {
		fmt.Fprintln(w)
	}
}
