package diff

// Delta is the four-way classification produced by a diff. The buckets are
// disjoint: every path present in either snapshot after filtering lands in
// exactly one of them. Order within a bucket is unspecified.
type Delta struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Identical []string `json:"identical"`
}

// AsMap converts the delta to a flat mapping of the four named path lists.
func (d *Delta) AsMap() map[string][]string {
	return map[string][]string{
		"added":     d.Added,
		"removed":   d.Removed,
		"modified":  d.Modified,
		"identical": d.Identical,
	}
}
