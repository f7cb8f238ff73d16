package stagedit

import "strings"

// A field path is either a bare field name ("email") or a single-level
// dotted path into an embedded structure ("address.street1"). Paths with
// more than one dot are not defined by the entity model; the codec treats
// everything after the first dot as one sub-field name.

// splitPath splits a field path into its root and optional sub-field.
// The second return is "" for bare names.
func splitPath(path string) (root, sub string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

// GetPath reads the value at path from root. The second return reports
// whether the full path resolved; absent or nil intermediates yield
// (nil, false) rather than panicking.
func GetPath(root map[string]any, path string) (any, bool) {
	if root == nil {
		return nil, false
	}
	head, sub := splitPath(path)
	v, ok := root[head]
	if !ok {
		return nil, false
	}
	if sub == "" {
		return v, true
	}
	nested, ok := v.(map[string]any)
	if !ok || nested == nil {
		return nil, false
	}
	v, ok = nested[sub]
	return v, ok
}

// SetPath writes value at path into root, creating the intermediate map
// for a dotted path when it is absent or not a map.
func SetPath(root map[string]any, path string, value any) {
	head, sub := splitPath(path)
	if sub == "" {
		root[head] = value
		return
	}
	nested, ok := root[head].(map[string]any)
	if !ok || nested == nil {
		nested = make(map[string]any)
		root[head] = nested
	}
	nested[sub] = value
}

// Group partitions flat path→value entries by path root. Bare names map
// directly to their value; dotted paths are written into a nested map under
// their root. The result is the commit planner's unit of work: one entry
// per root field.
func Group(entries map[string]any) map[string]any {
	grouped := make(map[string]any, len(entries))
	for path, v := range entries {
		SetPath(grouped, path, v)
	}
	return grouped
}

// Flatten is the inverse of Group: nested maps become dotted paths.
func Flatten(grouped map[string]any) map[string]any {
	flat := make(map[string]any, len(grouped))
	for root, v := range grouped {
		if nested, ok := v.(map[string]any); ok {
			for sub, sv := range nested {
				flat[root+"."+sub] = sv
			}
			continue
		}
		flat[root] = v
	}
	return flat
}

// MatchesRoot reports whether any entry key equals root or descends into it.
func MatchesRoot(entries map[string]any, root string) bool {
	if _, ok := entries[root]; ok {
		return true
	}
	prefix := root + "."
	for path := range entries {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
