package stagedit

import (
	"fmt"

	"github.com/a-h/templ"
)

// Widget binding helpers. Field-rendering widgets stay out of the engine;
// these builders give them the attributes they need to reflect session
// state and to report the interactions that drive activation.

// FieldAttrs builds the input attributes for the field at path: its name,
// display value (staged over view), a dirty marker, read-only state while
// the session is inactive, and focus restoration for the field that
// triggered activation.
func (s *Session) FieldAttrs(path string) templ.Attributes {
	attrs := templ.Attributes{
		"name": path,
	}
	if v := s.Field(path); v != nil {
		attrs["value"] = fmt.Sprint(v)
	}
	if s.FieldDirty(path) {
		attrs["data-dirty"] = "true"
	}
	if !s.Editing() {
		attrs["readonly"] = true
	}
	if s.AutofocusField() == path {
		attrs["autofocus"] = true
	}
	return attrs
}

// FormAttrs builds the form element's attributes: activation trigger policy
// and the session flags the host's scripting reads to decide which events
// to forward (clicks for activation, focus-out for deactivation).
func (s *Session) FormAttrs() templ.Attributes {
	attrs := templ.Attributes{
		"data-edit-trigger": triggerName(s.triggerPolicy()),
	}
	if s.Editing() {
		attrs["data-editing"] = "true"
	}
	if s.IsSubmitting() {
		attrs["data-submitting"] = "true"
	}
	if s.HasDirtyFields() {
		attrs["data-dirty"] = "true"
	}
	return attrs
}

func (s *Session) triggerPolicy() TriggerPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.act.policy
}

func triggerName(p TriggerPolicy) string {
	switch p {
	case TriggerField:
		return "field"
	case TriggerForm:
		return "form"
	default:
		return "manual"
	}
}
