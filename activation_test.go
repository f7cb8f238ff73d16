package stagedit

import "testing"

func TestActivationInitialState(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want State
	}{
		{"read-write starts view-only", ModeReadWrite, StateViewOnly},
		{"read-only starts view-only", ModeReadOnly, StateViewOnly},
		{"create starts editing", ModeCreate, StateEditing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newActivation(tt.mode, TriggerManual)
			if a.state != tt.want {
				t.Errorf("state = %v, want %v", a.state, tt.want)
			}
		})
	}
}

func TestActivationReadOnlyIsPermanent(t *testing.T) {
	a := newActivation(ModeReadOnly, TriggerForm)

	if a.activate() || a.fieldClick() || a.formClick() {
		t.Error("read-only machine activated")
	}
	if a.state != StateViewOnly {
		t.Errorf("state = %v, want StateViewOnly", a.state)
	}
}

func TestActivationCreateNeverDeactivates(t *testing.T) {
	a := newActivation(ModeCreate, TriggerManual)

	if a.deactivate() || a.focusOut(false, false) {
		t.Error("create machine deactivated")
	}
	if a.state != StateEditing {
		t.Errorf("state = %v, want StateEditing", a.state)
	}
}

func TestActivationTriggers(t *testing.T) {
	tests := []struct {
		name   string
		policy TriggerPolicy
		event  func(*activation) bool
		want   bool
	}{
		{"explicit always works", TriggerManual, (*activation).activate, true},
		{"field click under manual", TriggerManual, (*activation).fieldClick, false},
		{"form click under manual", TriggerManual, (*activation).formClick, false},
		{"field click under field policy", TriggerField, (*activation).fieldClick, true},
		{"form click under field policy", TriggerField, (*activation).formClick, false},
		{"field click under form policy", TriggerForm, (*activation).fieldClick, true},
		{"form click under form policy", TriggerForm, (*activation).formClick, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newActivation(ModeReadWrite, tt.policy)
			if got := tt.event(&a); got != tt.want {
				t.Errorf("transition = %v, want %v", got, tt.want)
			}
			wantState := StateViewOnly
			if tt.want {
				wantState = StateEditing
			}
			if a.state != wantState {
				t.Errorf("state = %v, want %v", a.state, wantState)
			}
		})
	}
}

func TestActivationAlreadyEditingIsNoTransition(t *testing.T) {
	a := newActivation(ModeReadWrite, TriggerField)
	if !a.activate() {
		t.Fatal("first activation should transition")
	}
	if a.activate() || a.fieldClick() {
		t.Error("activation while editing reported a transition")
	}
}

func TestActivationFocusOut(t *testing.T) {
	tests := []struct {
		name       string
		insideForm bool
		dirty      bool
		want       bool
	}{
		{"focus left form, clean", false, false, true},
		{"focus left form, dirty", false, true, false},
		{"focus inside form, clean", true, false, false},
		{"focus inside form, dirty", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newActivation(ModeReadWrite, TriggerManual)
			a.activate()
			if got := a.focusOut(tt.insideForm, tt.dirty); got != tt.want {
				t.Errorf("focusOut(%v, %v) = %v, want %v", tt.insideForm, tt.dirty, got, tt.want)
			}
		})
	}
}

func TestActivationCreateBecomesEditKeepsEditing(t *testing.T) {
	a := newActivation(ModeCreate, TriggerManual)
	a.enterEditMode()

	if a.mode != ModeReadWrite {
		t.Errorf("mode = %v, want ModeReadWrite", a.mode)
	}
	if a.state != StateEditing {
		t.Errorf("state = %v, want StateEditing after create→edit", a.state)
	}
	// Now a regular read-write machine: deactivation works.
	if !a.deactivate() {
		t.Error("deactivation should transition after create→edit")
	}
}

func TestActivationEnterEditModeOnlyFromCreate(t *testing.T) {
	a := newActivation(ModeReadOnly, TriggerManual)
	a.enterEditMode()
	if a.mode != ModeReadOnly {
		t.Errorf("mode = %v, want ModeReadOnly untouched", a.mode)
	}
}
