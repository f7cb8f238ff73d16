package stagedit

import "reflect"

// fieldDirty reports whether a staged value differs from the view's current
// value at path. A path the view cannot resolve counts as dirty whenever
// anything non-nil is staged.
func fieldDirty(view View, path string, staged any) bool {
	current, ok := viewField(view, path)
	if !ok {
		return staged != nil
	}
	return !valueEqual(staged, current)
}

// overlayDirty reports whether any overlay entry differs from its view
// counterpart. This is the edit-mode aggregate dirtiness.
func overlayDirty(view View, ov Overlay) bool {
	for path, staged := range ov.entries {
		if fieldDirty(view, path, staged) {
			return true
		}
	}
	return false
}

// overlayStagedNonEmpty reports whether any overlay entry holds a value
// other than nil or the empty string. This is the create-mode aggregate:
// blank inputs in a fresh form do not count as edits.
func overlayStagedNonEmpty(ov Overlay) bool {
	for _, v := range ov.entries {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return true
	}
	return false
}

// valueEqual compares a staged value against a view value. Numeric values
// compare by magnitude across int/uint/float kinds, since the state codec
// and backend round-trip numbers through different Go types. Everything
// else (strings, bools, nil, nested maps) compares structurally.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
