package stagedit

// Overlay is an immutable snapshot of staged field edits: a sparse mapping
// from field path to the value the user has explicitly set since the last
// clear. Absence of a path means "display the view's current value".
//
// Every mutation returns a new snapshot sharing nothing with the old one,
// so a consumer holding an Overlay (most importantly a submit in flight)
// is never affected by later edits or reconciliation sweeps. Two snapshots
// can be compared cheaply by key set without deep-diffing values.
type Overlay struct {
	entries map[string]any
}

// Set returns a snapshot with path staged to value.
func (o Overlay) Set(path string, value any) Overlay {
	next := o.clone(1)
	next.entries[path] = value
	return next
}

// Delete returns a snapshot without path. Returns o unchanged if the path
// was not staged.
func (o Overlay) Delete(path string) Overlay {
	if _, ok := o.entries[path]; !ok {
		return o
	}
	next := o.clone(0)
	delete(next.entries, path)
	return next
}

// DeleteFunc returns a snapshot without the entries matching the predicate,
// along with the number of entries removed.
func (o Overlay) DeleteFunc(match func(path string, value any) bool) (Overlay, int) {
	removed := 0
	for path, v := range o.entries {
		if match(path, v) {
			removed++
		}
	}
	if removed == 0 {
		return o, 0
	}
	next := Overlay{entries: make(map[string]any, len(o.entries)-removed)}
	for path, v := range o.entries {
		if !match(path, v) {
			next.entries[path] = v
		}
	}
	return next, removed
}

// Clear returns an empty snapshot.
func (o Overlay) Clear() Overlay {
	return Overlay{}
}

// Get returns the staged value for path and whether one is staged.
func (o Overlay) Get(path string) (any, bool) {
	v, ok := o.entries[path]
	return v, ok
}

// Has reports whether path is staged.
func (o Overlay) Has(path string) bool {
	_, ok := o.entries[path]
	return ok
}

// Len returns the number of staged entries.
func (o Overlay) Len() int {
	return len(o.entries)
}

// Paths returns the staged field paths in unspecified order.
func (o Overlay) Paths() []string {
	paths := make([]string, 0, len(o.entries))
	for path := range o.entries {
		paths = append(paths, path)
	}
	return paths
}

// Map returns a copy of the staged entries.
func (o Overlay) Map() map[string]any {
	m := make(map[string]any, len(o.entries))
	for path, v := range o.entries {
		m[path] = v
	}
	return m
}

// OverlayOf builds a snapshot from a path→value map. Used when restoring
// exported state.
func OverlayOf(entries map[string]any) Overlay {
	o := Overlay{entries: make(map[string]any, len(entries))}
	for path, v := range entries {
		o.entries[path] = v
	}
	return o
}

func (o Overlay) clone(extra int) Overlay {
	next := Overlay{entries: make(map[string]any, len(o.entries)+extra)}
	for path, v := range o.entries {
		next.entries[path] = v
	}
	return next
}
