// Package stagedit provides a staged-edit engine for forms bound to live,
// remotely-mutable records. A session stages the fields a user has touched
// in a sparse overlay, reconciles them against a view that can change
// underneath the user, and commits only the changed fields inside one
// atomic transaction.
//
// # Core Concepts
//
// A View is an externally-owned record: stable identity, named fields
// (including one level of embedded structure), a transactional mutation
// handle, and change notifications. The engine never owns a view; it
// borrows one per session, keyed by identity.
//
// The Overlay is the set of staged edits. It is minimal by construction:
// setting a field back to the view's current value removes its entry, and
// every view-change notification runs a reconciliation sweep that prunes
// entries the remote state has caught up to. A field is dirty when its
// staged value differs from the view's; untouched fields always display
// the live view value.
//
//	session := stagedit.NewSession(stagedit.Config{
//	    Backend: backend,
//	    View:    contact,
//	    Trigger: stagedit.TriggerField,
//	})
//	defer session.Close()
//
//	session.SetField("email", "b@x.com")
//	session.SetField("address.street1", "2 Main St")
//	if session.HasDirtyFields() {
//	    err := session.Submit(ctx)
//	}
//
// # Commit Semantics
//
// Submit groups the overlay by root field. Dotted paths into an embedded
// struct merge onto a shallow copy of the view's current nested value and
// replace the root wholesale, so untouched sub-fields survive. Scalars
// that match the live view are skipped; empty strings normalize to nil.
// Each field writer is capability-probed - Replace preferred, Set as
// fallback, neither means the edit is dropped with a diagnostic. All
// writes land against exactly one transaction; its commit is the single
// point of atomicity.
//
// A session without a view is in create mode: Submit merges caller
// defaults underneath the staged values, calls Model.Create inside the
// transaction, binds the returned view, and stays in the editing state so
// the user can keep working on the just-created record.
//
// # Activation
//
// Read-write sessions move between StateViewOnly and StateEditing under a
// trigger policy: explicit calls only (TriggerManual), clicks on a bound
// field (TriggerField), or clicks anywhere in the form (TriggerForm).
// Leaving the editing state - explicitly, or when focus exits the form
// with nothing dirty - clears the overlay and the save error. Read-only
// sessions never activate; create sessions never deactivate.
//
// # Concurrency
//
// Scheduling is event-driven, but a view notification can arrive at any
// moment, including while a submit awaits its commit. Overlay snapshots
// are immutable: the submit works on the snapshot captured at submit time,
// and reconciliation only swaps in new snapshots, so neither corrupts the
// other. A re-entrant submit is gated by the in-flight flag; deactivation
// and rebind requests during an in-flight submit are deferred until it
// settles.
//
// # Error Model
//
// Misconfiguration (no view and no model) and missing dependencies panic:
// they are programmer errors and should fail loudly at startup. A rejected
// commit is recovered locally - the overlay is preserved for retry and the
// wrapped ErrCommitFailed lands in the save-error slot, which auto-clears
// on the next field edit. An unsupported field writer is a logged
// diagnostic, never a failure.
//
// # Binding Widgets
//
// Rendering is out of scope; FieldAttrs and FormAttrs build the
// templ.Attributes a widget needs (name, display value, dirty marker,
// read-only state, focus restoration), and RenderSaveErrorOOB surfaces a
// commit failure next to the form. ExportState and RestoreState round-trip
// uncommitted edits through the client, signed or encrypted.
package stagedit
