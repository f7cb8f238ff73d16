package stagedit

import "testing"

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, "a", false},
		{"int vs int64", 1, int64(1), true},
		{"int vs float", 2, 2.0, true},
		{"uint vs int", uint8(3), 3, true},
		{"different numbers", 1, 2, false},
		{"bools", true, true, true},
		{"number vs string", 1, "1", false},
		{"equal maps", map[string]any{"a": 1}, map[string]any{"a": 1}, true},
		{"different maps", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("valueEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFieldDirty(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{
		"name":    "Alice",
		"address": map[string]any{"city": "X"},
	})

	tests := []struct {
		name   string
		path   string
		staged any
		want   bool
	}{
		{"differs", "name", "Bob", true},
		{"matches view", "name", "Alice", false},
		{"nested differs", "address.city", "Y", true},
		{"nested matches", "address.city", "X", false},
		{"unknown field staged non-nil", "nick", "Al", true},
		{"unknown field staged nil", "nick", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fieldDirty(view, tt.path, tt.staged); got != tt.want {
				t.Errorf("fieldDirty(%q, %v) = %v, want %v", tt.path, tt.staged, got, tt.want)
			}
		})
	}
}

func TestOverlayDirtyAggregate(t *testing.T) {
	st := NewMemStore()
	view := st.Put(map[string]any{"name": "Alice", "email": "a@x.com"})

	if overlayDirty(view, Overlay{}) {
		t.Error("empty overlay reported dirty")
	}
	if overlayDirty(view, Overlay{}.Set("name", "Alice")) {
		t.Error("overlay matching the view reported dirty")
	}
	if !overlayDirty(view, Overlay{}.Set("name", "Alice").Set("email", "b@x.com")) {
		t.Error("overlay with one differing entry reported clean")
	}
}

func TestOverlayStagedNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		ov   Overlay
		want bool
	}{
		{"empty overlay", Overlay{}, false},
		{"only empty strings", Overlay{}.Set("name", "").Set("email", ""), false},
		{"only nils", Overlay{}.Set("name", nil), false},
		{"one real value", Overlay{}.Set("name", "").Set("email", "a@x.com"), true},
		{"false is a value", Overlay{}.Set("done", false), true},
		{"zero is a value", Overlay{}.Set("count", 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlayStagedNonEmpty(tt.ov); got != tt.want {
				t.Errorf("overlayStagedNonEmpty = %v, want %v", got, tt.want)
			}
		})
	}
}
