package stagedit

import "context"

// Backend is the entry point into the external entity/transaction system.
// It begins transactions; everything else is reached through View and Model.
type Backend interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction is an atomic unit of work. Field mutations accumulate against
// it (via MutationHandle writers) and Commit either applies them all or
// fails as a whole. There is no cancellation of an in-flight commit.
type Transaction interface {
	Commit(ctx context.Context) error
}

// View is an externally-owned, live record. The engine borrows it for the
// lifetime of a form session, reads it through Field, and writes it only
// through the transactional mutation handle.
//
// Field is the typed named-field accessor: it returns the current value for
// a root field name (embedded roots surface as map[string]any) and false
// for an unknown or absent field. Implementations must tolerate arbitrary
// names without panicking.
type View interface {
	// ID returns the record's stable identity in deterministic string form.
	ID() string

	Field(name string) (any, bool)

	// Edit returns a handle for staging field mutations against tx.
	Edit(tx Transaction) (MutationHandle, error)

	// Subscribe registers fn to be invoked after every externally-visible
	// change, at least once per change, with no ordering guarantee relative
	// to other subscribers. The returned guard releases the registration.
	Subscribe(fn func()) Subscription
}

// Subscription is the guard for a view-change registration. Release is
// idempotent on the engine's side: the session calls it exactly once per
// acquisition, on identity change or teardown.
type Subscription interface {
	Release()
}

// MutationHandle exposes per-field writers for an open transaction.
// Field returns false for a field the record does not carry.
//
// The returned writer is capability-probed: the planner prefers
// FieldReplacer, falls back to FieldSetter, and drops the edit with a
// diagnostic when the writer satisfies neither.
type MutationHandle interface {
	Field(name string) (any, bool)
}

// FieldReplacer is the whole-value replacement capability of a field writer.
type FieldReplacer interface {
	Replace(value any) error
}

// FieldSetter is the plain assignment capability of a field writer.
type FieldSetter interface {
	Set(value any) error
}

// Model creates new records. Create registers the construction against the
// open transaction and returns the new record's view; the record becomes
// durable only when the transaction commits.
type Model interface {
	Create(ctx context.Context, tx Transaction, values map[string]any) (View, error)
}

// viewField reads the (possibly dotted) path from a view. A nil view or any
// absent intermediate yields (nil, false).
func viewField(view View, path string) (any, bool) {
	if view == nil {
		return nil, false
	}
	root, sub := splitPath(path)
	v, ok := view.Field(root)
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
