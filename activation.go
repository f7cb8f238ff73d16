package stagedit

// Mode fixes how a session may enter and leave the editing state.
type Mode int

const (
	// ModeReadWrite starts in StateViewOnly and transitions according to
	// the session's trigger policy.
	ModeReadWrite Mode = iota

	// ModeReadOnly is permanently StateViewOnly; activation requests are
	// no-ops.
	ModeReadOnly

	// ModeCreate (write-only) is permanently StateEditing; deactivation
	// requests are no-ops. A create session that binds its first view
	// becomes ModeReadWrite but keeps StateEditing, so the user can keep
	// editing the just-created record without re-activating.
	ModeCreate
)

// TriggerPolicy selects which interactions activate an inactive read-write
// session.
type TriggerPolicy int

const (
	// TriggerManual activates only on an explicit Activate call.
	TriggerManual TriggerPolicy = iota

	// TriggerField activates on a click on any bound field.
	TriggerField

	// TriggerForm activates on a click anywhere inside the form.
	TriggerForm
)

// State is the activation state of a session.
type State int

const (
	StateViewOnly State = iota
	StateEditing
)

// activation is the editing-state machine. It is pure: transition methods
// report whether a transition happened and the session applies the side
// effects (overlay and save-error clearing on every Editing→ViewOnly edge).
type activation struct {
	mode   Mode
	policy TriggerPolicy
	state  State
}

func newActivation(mode Mode, policy TriggerPolicy) activation {
	a := activation{mode: mode, policy: policy}
	if mode == ModeCreate {
		a.state = StateEditing
	}
	return a
}

// activate handles an explicit activation request.
func (a *activation) activate() bool {
	return a.enter()
}

// fieldClick handles a click on a bound field while inactive. A field click
// is also a click inside the form, so it activates under both the field and
// form policies.
func (a *activation) fieldClick() bool {
	if a.policy != TriggerField && a.policy != TriggerForm {
		return false
	}
	return a.enter()
}

// formClick handles a click anywhere inside the form while inactive.
func (a *activation) formClick() bool {
	if a.policy != TriggerForm {
		return false
	}
	return a.enter()
}

// deactivate handles an explicit deactivation request. Reports true on the
// Editing→ViewOnly edge, which obligates the caller to clear the overlay
// and save-error slot.
func (a *activation) deactivate() bool {
	return a.exit()
}

// focusOut handles the bound element losing focus. The transition fires
// only when focus left the form entirely and no field is dirty; focus moves
// between elements inside the form never deactivate.
func (a *activation) focusOut(insideForm, dirty bool) bool {
	if insideForm || dirty {
		return false
	}
	return a.exit()
}

// enterEditMode converts a create-mode machine into read-write after its
// first view binds. The state is left untouched: a create session is in
// StateEditing and stays there.
func (a *activation) enterEditMode() {
	if a.mode == ModeCreate {
		a.mode = ModeReadWrite
	}
}

func (a *activation) enter() bool {
	if a.mode != ModeReadWrite || a.state == StateEditing {
		return false
	}
	a.state = StateEditing
	return true
}

func (a *activation) exit() bool {
	if a.mode != ModeReadWrite || a.state == StateViewOnly {
		return false
	}
	a.state = StateViewOnly
	return true
}
