package stagedit

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestPlanEditsScalar(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{"name": "Alice", "email": "a@x.com"})

	edits := planEdits(view, Overlay{}.Set("email", "b@x.com"))

	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	if edits[0].root != "email" || edits[0].value != "b@x.com" || edits[0].merged {
		t.Errorf("edit = %+v, want scalar email=b@x.com", edits[0])
	}
}

func TestPlanEditsSkipsNoOpScalar(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{"name": "Alice"})

	edits := planEdits(view, Overlay{}.Set("name", "Alice"))
	if len(edits) != 0 {
		t.Errorf("stale write planned: %+v", edits)
	}
}

func TestPlanEditsNormalizesEmptyString(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{"email": "a@x.com"})

	edits := planEdits(view, Overlay{}.Set("email", ""))
	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	if edits[0].value != nil {
		t.Errorf("value = %v, want nil", edits[0].value)
	}
}

func TestPlanEditsEmbeddedMerge(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{
		"address": map[string]any{"street1": "1 Main", "city": "X"},
	})

	edits := planEdits(view, Overlay{}.Set("address.street1", "2 Main"))

	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	if edits[0].root != "address" || !edits[0].merged {
		t.Fatalf("edit = %+v, want merged address replacement", edits[0])
	}
	want := map[string]any{"street1": "2 Main", "city": "X"}
	if diff := cmp.Diff(want, edits[0].value); diff != "" {
		t.Errorf("merged value mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanEditsEmbeddedAbsentRoot(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{"name": "Alice"})

	edits := planEdits(view, Overlay{}.Set("address.city", "X").Set("address.zip", ""))

	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	want := map[string]any{"city": "X", "zip": nil}
	if diff := cmp.Diff(want, edits[0].value); diff != "" {
		t.Errorf("merged value mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanEditsDeterministicOrder(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{})

	ov := Overlay{}.Set("zeta", 1).Set("alpha", 2).Set("mid.sub", 3)
	edits := planEdits(view, ov)

	var roots []string
	for _, e := range edits {
		roots = append(roots, e.root)
	}
	want := []string{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, roots); diff != "" {
		t.Errorf("root order mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEditsCapabilities(t *testing.T) {
	st := NewMemStore()
	st.SetOnly["email"] = true
	st.Unwritable["legacy"] = true
	view := st.Put(map[string]any{"name": "Alice", "email": "a@x.com", "legacy": "x"})

	edits := []fieldEdit{
		{root: "email", value: "b@x.com"},
		{root: "legacy", value: "y"},
		{root: "name", value: "Bob"},
	}

	tx, _ := st.Begin(context.Background())
	handle, _ := view.Edit(tx)
	if err := applyEdits(handle, edits, zerolog.Nop()); err != nil {
		t.Fatalf("applyEdits: %v", err)
	}

	mtx := tx.(*MemTx)
	want := []FieldWrite{
		{Field: "email", Op: "set", Value: "b@x.com"},
		{Field: "name", Op: "replace", Value: "Bob"},
	}
	if diff := cmp.Diff(want, mtx.Writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateValues(t *testing.T) {
	ov := Overlay{}.
		Set("name", "Carl").
		Set("email", "").
		Set("address.city", "X")

	defaults := map[string]any{
		"name": "Anonymous", // staged value wins
		"kind": "person",    // absent root filled in
	}

	want := map[string]any{
		"name":    "Carl",
		"email":   nil,
		"kind":    "person",
		"address": map[string]any{"city": "X"},
	}
	if diff := cmp.Diff(want, createValues(ov, defaults)); diff != "" {
		t.Errorf("createValues mismatch (-want +got):\n%s", diff)
	}
}
