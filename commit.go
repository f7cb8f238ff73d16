package stagedit

import (
	"sort"

	"github.com/rs/zerolog"
)

// fieldEdit is one planned mutation on a root field: either a scalar write
// or a whole-structure replacement of an embedded struct.
type fieldEdit struct {
	root   string
	value  any
	merged bool
}

// planEdits turns an overlay snapshot into the mutations one submit will
// issue, grouped by root field and ordered deterministically.
//
// Embedded-struct edits (dotted paths) merge onto a shallow copy of the
// view's current nested value and replace the root wholesale, so sub-fields
// the user never touched survive. Scalar edits that match the live view
// value are dropped: the remote state already holds them and re-writing
// would only risk clobbering a concurrent change. Empty strings normalize
// to nil throughout.
func planEdits(view View, ov Overlay) []fieldEdit {
	grouped := Group(ov.Map())

	roots := make([]string, 0, len(grouped))
	for root := range grouped {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	edits := make([]fieldEdit, 0, len(roots))
	for _, root := range roots {
		v := grouped[root]

		if sub, ok := v.(map[string]any); ok {
			edits = append(edits, fieldEdit{
				root:   root,
				value:  mergeEmbedded(view, root, sub),
				merged: true,
			})
			continue
		}

		if current, ok := viewField(view, root); ok && valueEqual(v, current) {
			continue
		}
		edits = append(edits, fieldEdit{root: root, value: normalizeEmpty(v)})
	}
	return edits
}

// mergeEmbedded overlays edited sub-fields onto a shallow copy of the
// view's current nested object (or an empty one when creating / absent).
func mergeEmbedded(view View, root string, edited map[string]any) map[string]any {
	merged := make(map[string]any, len(edited))
	if current, ok := viewField(view, root); ok {
		if existing, ok := current.(map[string]any); ok {
			for k, v := range existing {
				merged[k] = v
			}
		}
	}
	for k, v := range edited {
		merged[k] = normalizeEmpty(v)
	}
	return merged
}

// applyEdits records the planned mutations against an open transaction's
// handle. Each writer is capability-probed: Replace is preferred, Set is
// the fallback, and a field with neither is dropped with a diagnostic while
// the rest of the commit proceeds. A writer that errors aborts the submit.
func applyEdits(handle MutationHandle, edits []fieldEdit, logger zerolog.Logger) error {
	for _, e := range edits {
		w, ok := handle.Field(e.root)
		if !ok {
			logger.Warn().Str("field", e.root).Msg("no writer for field, edit dropped")
			continue
		}
		switch writer := w.(type) {
		case FieldReplacer:
			if err := writer.Replace(e.value); err != nil {
				return err
			}
		case FieldSetter:
			if err := writer.Set(e.value); err != nil {
				return err
			}
		default:
			logger.Warn().Str("field", e.root).Err(ErrUnsupportedField).
				Msg("edit dropped")
		}
	}
	return nil
}

// createValues builds the value mapping for a create submit: the grouped
// overlay with empty strings normalized to nil, merged on top of the
// caller-supplied defaults (defaults never override a staged value).
func createValues(ov Overlay, defaults map[string]any) map[string]any {
	values := make(map[string]any, ov.Len()+len(defaults))
	for root, v := range Group(ov.Map()) {
		if sub, ok := v.(map[string]any); ok {
			normalized := make(map[string]any, len(sub))
			for k, sv := range sub {
				normalized[k] = normalizeEmpty(sv)
			}
			values[root] = normalized
			continue
		}
		values[root] = normalizeEmpty(v)
	}
	for root, v := range defaults {
		if _, staged := values[root]; !staged {
			values[root] = v
		}
	}
	return values
}

func normalizeEmpty(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
