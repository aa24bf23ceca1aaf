package navigate

import (
	"strings"
	"testing"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    SpaceSelector
		wantErr bool
	}{
		{"next", SpaceSelector{Kind: Next}, false},
		{"Prev", SpaceSelector{Kind: Prev}, false},
		{"recent", SpaceSelector{Kind: Recent}, false},
		{"extra", SpaceSelector{Kind: Extra}, false},
		{"1", SpaceSelector{Kind: Literal, Index: 1}, false},
		{"10", SpaceSelector{Kind: Literal, Index: 10}, false},
		{"0", SpaceSelector{}, true},
		{"11", SpaceSelector{}, true},
		{"-3", SpaceSelector{}, true},
		{"sideways", SpaceSelector{}, true},
		{"", SpaceSelector{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSelector(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSelector(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSelector(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

// canonicalSnap builds a post-restore snapshot with the given display
// count and focused label.
func canonicalSnap(displays int, focused string) *yabai.Snapshot {
	labels := map[int][]string{
		1: {"reserved", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"},
		2: {"reserved", "s2", "s4", "s6", "s8", "s10", "s1", "s3", "s5", "s7", "s9"},
		3: {"reserved", "s2", "s4", "s6", "s8", "s10", "s1", "s3", "s5", "s7", "s9", "s11"},
	}[displays]

	snap := &yabai.Snapshot{}
	for i := 0; i < displays; i++ {
		snap.Displays = append(snap.Displays, yabai.Display{Index: i + 1})
	}
	for i, label := range labels {
		snap.Spaces = append(snap.Spaces, yabai.Space{
			Index:    i + 1,
			Label:    label,
			HasFocus: label == focused,
		})
	}
	return snap
}

func TestResolveNextPrev(t *testing.T) {
	tests := []struct {
		name     string
		displays int
		focused  string
		sel      SpaceSelector
		want     int
	}{
		{"next single display", 1, "s3", SpaceSelector{Kind: Next}, 4},
		{"next wraps single display", 1, "s10", SpaceSelector{Kind: Next}, 1},
		{"next paired stride", 2, "s4", SpaceSelector{Kind: Next}, 6},
		{"next wraps from s9", 2, "s9", SpaceSelector{Kind: Next}, 1},
		{"next wraps from s10", 2, "s10", SpaceSelector{Kind: Next}, 2},
		{"next at edge stays in range", 2, "s8", SpaceSelector{Kind: Next}, 10},
		{"next three displays", 3, "s1", SpaceSelector{Kind: Next}, 3},
		{"prev single display", 1, "s5", SpaceSelector{Kind: Prev}, 4},
		{"prev wraps single display", 1, "s1", SpaceSelector{Kind: Prev}, 10},
		{"prev paired stride", 2, "s5", SpaceSelector{Kind: Prev}, 3},
		{"prev wraps odd half", 2, "s1", SpaceSelector{Kind: Prev}, 9},
		{"prev wraps even half", 2, "s2", SpaceSelector{Kind: Prev}, 10},
		{"prev wraps odd half three displays", 3, "s1", SpaceSelector{Kind: Prev}, 9},
		{"prev wraps even half three displays", 3, "s2", SpaceSelector{Kind: Prev}, 10},
		{"literal ignores focus", 2, "s7", SpaceSelector{Kind: Literal, Index: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := canonicalSnap(tt.displays, tt.focused)
			got, err := Resolve(tt.sel, snap, nil)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveNextWithoutLabeledFocus(t *testing.T) {
	snap := canonicalSnap(2, "reserved")
	if _, err := Resolve(SpaceSelector{Kind: Next}, snap, nil); err == nil {
		t.Fatal("next from an unlabeled space should fail")
	}
}

func TestResolveRecent(t *testing.T) {
	st := state.NewStoreAt(t.TempDir())
	snap := canonicalSnap(2, "s2")

	if _, err := Resolve(SpaceSelector{Kind: Recent}, snap, st); err == nil {
		t.Fatal("recent without a cursor should fail")
	}

	if err := st.SaveCursor(state.Cursor{Recent: 5}); err != nil {
		t.Fatal(err)
	}
	got, err := Resolve(SpaceSelector{Kind: Recent}, snap, st)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != 5 {
		t.Errorf("Resolve = %d, want 5", got)
	}

	if err := st.SaveCursor(state.Cursor{Recent: 99}); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(SpaceSelector{Kind: Recent}, snap, st); err == nil {
		t.Fatal("an out-of-range cursor should fail")
	}
}

func TestResolveExtra(t *testing.T) {
	_, err := Resolve(SpaceSelector{Kind: Extra}, canonicalSnap(2, "s1"), nil)
	if err == nil || !strings.Contains(err.Error(), "displays") {
		t.Fatalf("extra with two displays: error = %v", err)
	}

	got, err := Resolve(SpaceSelector{Kind: Extra}, canonicalSnap(3, "s1"), nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != config.NumSpaces+1 {
		t.Errorf("Resolve = %d, want %d", got, config.NumSpaces+1)
	}
}
