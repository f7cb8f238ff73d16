package stagedit

// reconcile prunes overlay entries the view has caught up to: any staged
// value now equal to the corresponding view value no longer needs separate
// tracking. One order-independent pass; all matching entries are removed
// together. Reconciliation never adds entries.
//
// Returns the (possibly unchanged) snapshot and the number of entries
// pruned. Callers must notify dependents even when nothing was pruned,
// because untouched fields reflect the new view state automatically.
func reconcile(view View, ov Overlay) (Overlay, int) {
	if view == nil {
		return ov, 0
	}
	return ov.DeleteFunc(func(path string, staged any) bool {
		current, ok := viewField(view, path)
		return ok && valueEqual(staged, current)
	})
}
