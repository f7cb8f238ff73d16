package stagedit

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Config carries a session's external collaborators and fixed behavior.
// There is no package-level state: every session is configured explicitly,
// so independent sessions with different backends can coexist in one
// process.
type Config struct {
	// Backend begins transactions. Required before the first Submit.
	Backend Backend

	// View is the record under edit. Nil puts the session in create mode,
	// which requires Model.
	View View

	// Model creates new records in create mode.
	Model Model

	// Mode fixes activation behavior for a bound view. Ignored in create
	// mode (a session without a view is always ModeCreate).
	Mode Mode

	// Trigger selects which interactions activate an inactive session.
	Trigger TriggerPolicy

	// Defaults are merged underneath staged values on create. Never
	// override a staged value.
	Defaults map[string]any

	// RefocusOnActivate re-focuses the field that triggered activation on
	// the next render (surfaced through Session.AutofocusField).
	RefocusOnActivate bool

	// Logger receives non-fatal diagnostics (dropped edits, subscription
	// lifecycle). Nil disables logging.
	Logger *zerolog.Logger

	// OnSaved fires after a successful edit-mode submit.
	OnSaved func()

	// OnCreated fires after a successful create-mode submit with the new
	// record's view, which the session has already bound.
	OnCreated func(View)

	// OnError fires when a submit's commit is rejected, after the failure
	// lands in the save-error slot. Centralized reporting; the session
	// recovers locally either way.
	OnError func(error)
}

// Session is one form instance's staged-edit engine. It owns the overlay
// snapshot, the bound view reference, the activation state machine, the
// save-error slot, and the in-flight submit flag.
//
// A session is safe for use from the host's event callbacks, including a
// view-change notification arriving while a submit awaits its commit: the
// submit operates on the overlay snapshot captured at submit time, and
// reconciliation only swaps in new snapshots.
type Session struct {
	mu      sync.Mutex
	backend Backend
	model   Model
	view    View
	sub     Subscription

	defaults map[string]any
	refocus  bool
	logger   zerolog.Logger

	ov          Overlay
	act         activation
	saveErr     error
	submitting  bool
	closed      bool
	activatedBy string

	// Deactivation or rebind requested while a submit is in flight is
	// deferred until the submit settles, so the pending commit's overlay
	// is neither double-applied nor silently orphaned.
	pendingDeactivate bool
	pendingBind       View
	hasPendingBind    bool

	listeners    map[int]func()
	nextListener int

	onSaved   func()
	onCreated func(View)
	onError   func(error)
}

// NewSession creates a session from cfg. Panics with ErrInvalidConfig when
// neither a view nor a model is supplied; everything else is validated
// lazily at the call that needs it.
func NewSession(cfg Config) *Session {
	if cfg.View == nil && cfg.Model == nil {
		panic(ErrInvalidConfig)
	}

	mode := cfg.Mode
	if cfg.View == nil {
		mode = ModeCreate
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	s := &Session{
		backend:   cfg.Backend,
		model:     cfg.Model,
		view:      cfg.View,
		defaults:  cfg.Defaults,
		refocus:   cfg.RefocusOnActivate,
		logger:    logger,
		act:       newActivation(mode, cfg.Trigger),
		listeners: make(map[int]func()),
		onSaved:   cfg.OnSaved,
		onCreated: cfg.OnCreated,
		onError:   cfg.OnError,
	}
	if cfg.View != nil {
		s.sub = cfg.View.Subscribe(s.handleViewChanged)
	}
	return s
}

// View returns the bound view, or nil in create mode.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// IsNew reports whether the session is in create mode (no bound view).
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view == nil
}

// Mode returns the session's current activation mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.act.mode
}

// Editing reports whether the session is in the editing state.
func (s *Session) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.act.state == StateEditing
}

// IsSubmitting reports whether a submit is in flight.
func (s *Session) IsSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// SaveError returns the last commit failure, or nil. It auto-clears on the
// next field edit and on ClearSaveError.
func (s *Session) SaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// ClearSaveError discards the save-error slot.
func (s *Session) ClearSaveError() {
	s.mu.Lock()
	changed := s.saveErr != nil
	s.saveErr = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Overlay returns the current overlay snapshot.
func (s *Session) Overlay() Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov
}

// Field returns the display value for path: the staged value when one
// exists, otherwise the view's current value, otherwise nil.
func (s *Session) Field(path string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ov.Get(path); ok {
		return v
	}
	v, _ := viewField(s.view, path)
	return v
}

// FieldDirty reports whether path is staged with a value that differs from
// the view (edit mode) or is non-empty (create mode).
func (s *Session) FieldDirty(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged, ok := s.ov.Get(path)
	if !ok {
		return false
	}
	if s.view == nil {
		if staged == nil {
			return false
		}
		str, isStr := staged.(string)
		return !isStr || str != ""
	}
	return fieldDirty(s.view, path, staged)
}

// HasDirtyFields reports aggregate dirtiness: any staged entry differing
// from its view counterpart (edit mode), or any non-empty staged value
// (create mode).
func (s *Session) HasDirtyFields() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	if s.view == nil {
		return overlayStagedNonEmpty(s.ov)
	}
	return overlayDirty(s.view, s.ov)
}

// SetField stages a user edit. Setting a field back to the view's current
// value removes its overlay entry instead of staging a no-op, keeping the
// overlay minimal. Any edit clears a stale save error.
func (s *Session) SetField(path string, value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if current, ok := viewField(s.view, path); ok && valueEqual(value, current) {
		s.ov = s.ov.Delete(path)
	} else {
		s.ov = s.ov.Set(path, value)
	}
	s.saveErr = nil
	s.mu.Unlock()
	s.notify()
}

// Activate handles an explicit activation request.
func (s *Session) Activate() {
	s.transition(func() bool {
		s.activatedBy = ""
		return s.act.activate()
	})
}

// ActivateFromField handles a click on the field at path while inactive.
// Under RefocusOnActivate the field is remembered so the next render can
// restore focus to it.
func (s *Session) ActivateFromField(path string) {
	s.transition(func() bool {
		if !s.act.fieldClick() {
			return false
		}
		if s.refocus {
			s.activatedBy = path
		}
		return true
	})
}

// ActivateFromForm handles a click anywhere inside the form while inactive.
func (s *Session) ActivateFromForm() {
	s.transition(func() bool {
		s.activatedBy = ""
		return s.act.formClick()
	})
}

// AutofocusField returns the path of the field that should regain focus on
// the next render, or "" when none should.
func (s *Session) AutofocusField() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.act.state != StateEditing {
		return ""
	}
	return s.activatedBy
}

// Deactivate handles an explicit deactivation request. The transition out
// of editing clears the overlay and save error. While a submit is in
// flight the whole deactivation is deferred until the submit settles, so
// the pending commit's overlay is neither double-applied nor orphaned.
func (s *Session) Deactivate() {
	s.transition(func() bool {
		if s.submitting {
			s.pendingDeactivate = true
			return false
		}
		if !s.act.deactivate() {
			return false
		}
		s.clearOnExitLocked()
		return true
	})
}

// FocusLost handles the bound element losing focus. insideForm is true
// when focus moved to another element inside the form, which never
// deactivates. Deactivation also requires that no field is dirty.
func (s *Session) FocusLost(insideForm bool) {
	s.transition(func() bool {
		if s.submitting {
			return false
		}
		if !s.act.focusOut(insideForm, s.dirtyLocked()) {
			return false
		}
		s.clearOnExitLocked()
		return true
	})
}

func (s *Session) transition(fn func() bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Session) clearOnExitLocked() {
	s.activatedBy = ""
	s.ov = s.ov.Clear()
	s.saveErr = nil
}

// Bind swaps the bound view. On an identity change the old subscription is
// released, the overlay and save error are cleared, and a subscription on
// the new view is established. A create session binding its first view
// stays in the editing state. While a submit is in flight the rebind is
// deferred until it settles.
func (s *Session) Bind(view View) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if view != nil && s.view != nil && view.ID() == s.view.ID() {
		// Same identity: refresh the reference, keep staged edits.
		s.releaseLocked()
		s.view = view
		s.sub = view.Subscribe(s.handleViewChanged)
		s.mu.Unlock()
		s.notify()
		return
	}
	if s.submitting {
		s.pendingBind = view
		s.hasPendingBind = true
		s.mu.Unlock()
		return
	}
	s.bindLocked(view)
	s.mu.Unlock()
	s.notify()
}

// bindLocked performs an identity change: release, clear, resubscribe.
func (s *Session) bindLocked(view View) {
	s.releaseLocked()
	wasCreate := s.view == nil
	s.view = view
	s.ov = s.ov.Clear()
	s.saveErr = nil
	s.activatedBy = ""
	if view != nil {
		s.sub = view.Subscribe(s.handleViewChanged)
		if wasCreate {
			s.act.enterEditMode()
		}
		s.logger.Debug().Str("view", view.ID()).Msg("session bound")
	}
}

func (s *Session) releaseLocked() {
	if s.sub != nil {
		s.sub.Release()
		s.sub = nil
	}
}

// Close tears the session down, releasing the view subscription exactly
// once. Further operations are no-ops; Submit returns ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.releaseLocked()
	s.listeners = map[int]func(){}
	s.mu.Unlock()
}

// OnChange registers fn to fire after overlay changes, activation-state
// changes, reconciliation sweeps, and submit lifecycle edges. The returned
// function removes the registration.
func (s *Session) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// handleViewChanged is the view-subscription callback: one reconciliation
// sweep, then notify dependents whether or not anything was pruned, since
// untouched fields now display new view values.
func (s *Session) handleViewChanged() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var pruned int
	s.ov, pruned = reconcile(s.view, s.ov)
	if pruned > 0 {
		s.logger.Debug().Int("pruned", pruned).Msg("reconciled overlay")
	}
	s.mu.Unlock()
	s.notify()
}

// Submit commits the staged edits inside one transaction. A submit with
// nothing dirty is a no-op. A re-entrant submit while one is in flight is
// a no-op. On success the submitted entries are cleared from the overlay
// (edits staged during the commit survive); on failure the overlay is
// preserved and the wrapped error lands in the save-error slot, where it
// is also returned.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.backend == nil {
		s.mu.Unlock()
		panic(ErrNotInitialized)
	}
	if s.submitting {
		s.mu.Unlock()
		return nil
	}

	view := s.view
	snapshot := s.ov
	creating := view == nil
	if creating && s.model == nil {
		s.mu.Unlock()
		panic(ErrNotInitialized)
	}

	dirty := s.dirtyLocked()
	if !dirty {
		s.mu.Unlock()
		return nil
	}

	s.submitting = true
	s.mu.Unlock()
	s.notify()

	created, err := s.runSubmit(ctx, view, snapshot, creating)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.saveErr = fmt.Errorf("%w: %v", ErrCommitFailed, err)
		s.logger.Warn().Err(err).Msg("submit failed")
	} else {
		s.ov, _ = s.ov.DeleteFunc(func(path string, v any) bool {
			submitted, ok := snapshot.Get(path)
			return ok && valueEqual(v, submitted)
		})
		if creating && created != nil {
			s.bindLocked(created)
		}
	}
	if s.pendingDeactivate {
		s.pendingDeactivate = false
		if s.act.deactivate() {
			s.clearOnExitLocked()
		}
	}
	if s.hasPendingBind {
		pending := s.pendingBind
		s.pendingBind = nil
		s.hasPendingBind = false
		s.bindLocked(pending)
	}
	onSaved, onCreated, onError := s.onSaved, s.onCreated, s.onError
	s.mu.Unlock()
	s.notify()

	if err != nil {
		saveErr := s.SaveError()
		if onError != nil {
			onError(saveErr)
		}
		return saveErr
	}
	if creating {
		if onCreated != nil {
			onCreated(created)
		}
	} else if onSaved != nil {
		onSaved()
	}
	return nil
}

func (s *Session) runSubmit(ctx context.Context, view View, snapshot Overlay, creating bool) (View, error) {
	tx, err := s.backend.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if creating {
		values := createValues(snapshot, s.defaults)
		created, err := s.model.Create(ctx, tx, values)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return created, nil
	}

	handle, err := view.Edit(tx)
	if err != nil {
		return nil, err
	}
	if err := applyEdits(handle, planEdits(view, snapshot), s.logger); err != nil {
		return nil, err
	}
	return nil, tx.Commit(ctx)
}
