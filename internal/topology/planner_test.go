package topology_test

import (
	"errors"
	"testing"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/testutil"
	"github.com/Gaurav-Gosain/yabaictl/internal/topology"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// canonicalLabelOrder is the expected label sequence by OS index for each
// display count, N = 10.
var canonicalLabelOrder = map[int][]string{
	1: {"reserved", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"},
	2: {"reserved", "s2", "s4", "s6", "s8", "s10", "s1", "s3", "s5", "s7", "s9"},
	3: {"reserved", "s2", "s4", "s6", "s8", "s10", "s1", "s3", "s5", "s7", "s9", "s11"},
}

// canonicalDisplayOf returns the expected display for each OS index.
func canonicalDisplayOf(index, displays int) int {
	if displays == 1 {
		return 1
	}
	if displays == 3 && index == config.NumSpaces+2 {
		return 3
	}
	if index <= config.NumSpaces/2+1 {
		return 1
	}
	return 2
}

func checkCanonical(t *testing.T, snap *yabai.Snapshot, displays int) {
	t.Helper()
	want := canonicalLabelOrder[displays]
	if len(snap.Spaces) != len(want) {
		t.Fatalf("space count = %d, want %d", len(snap.Spaces), len(want))
	}
	seen := make(map[string]int)
	for i, sp := range snap.Spaces {
		if sp.Index != i+1 {
			t.Errorf("space at position %d has index %d", i, sp.Index)
		}
		if sp.Label != want[i] {
			t.Errorf("index %d label = %q, want %q", i+1, sp.Label, want[i])
		}
		if got := canonicalDisplayOf(i+1, displays); sp.Display != got {
			t.Errorf("index %d display = %d, want %d", i+1, sp.Display, got)
		}
		seen[sp.Label]++
	}
	for label, n := range seen {
		if n != 1 {
			t.Errorf("label %q appears %d times", label, n)
		}
	}
}

func newHarness(t *testing.T, d *testutil.Daemon) (*yabai.Client, *state.Store) {
	t.Helper()
	d.Start(t)
	return yabai.NewClient(d.SocketPath), state.NewStoreAt(t.TempDir())
}

func TestRestoreColdScrambled(t *testing.T) {
	d := testutil.NewDaemon(2)
	d.AddSpace(1, "reserved")
	d.AddSpace(1, "s7")
	d.AddSpace(1, "")
	for _, label := range []string{"s1", "s2", "oops", "s4", "", "s10", "s3", "s9", "s5", "s6"} {
		d.AddSpace(2, label)
	}
	c, st := newHarness(t, d)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, snap, 2)

	if _, err := st.LoadSnapshot(); err != nil {
		t.Errorf("restore should persist the snapshot: %v", err)
	}
}

func TestRestoreIdempotent(t *testing.T) {
	d := testutil.NewDaemon(2)
	d.AddSpace(1, "")
	d.AddSpace(1, "s3")
	for _, label := range []string{"s1", "", "s2"} {
		d.AddSpace(2, label)
	}
	c, st := newHarness(t, d)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("first Restore failed: %v", err)
	}
	first, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, first, 2)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("second Restore failed: %v", err)
	}
	second, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, second, 2)

	for i := range first.Spaces {
		if first.Spaces[i].Label != second.Spaces[i].Label || first.Spaces[i].Display != second.Spaces[i].Display {
			t.Errorf("index %d changed between restores: %+v -> %+v", i+1, first.Spaces[i], second.Spaces[i])
		}
	}
}

func TestRestoreSingleDisplay(t *testing.T) {
	d := testutil.NewDaemon(1)
	for _, label := range []string{"", "s5", "junk", "s1"} {
		d.AddSpace(1, label)
	}
	c, st := newHarness(t, d)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, snap, 1)

	// A single display settles every space into the stacked layout.
	settled := 0
	for _, msg := range d.SentCommands() {
		if len(msg) == 3 && msg[0] == "space" && msg[1] == "--layout" {
			if msg[2] != "stack" {
				t.Errorf("settle pass sent layout %q, want stack", msg[2])
			}
			settled++
		}
	}
	if settled != 4 {
		t.Errorf("settle pass touched %d spaces, want 4", settled)
	}
}

func TestRestoreThreeDisplays(t *testing.T) {
	d := testutil.NewDaemon(3)
	d.AddSpace(1, "s9")
	d.AddSpace(1, "")
	d.AddSpace(2, "s2")
	d.AddSpace(2, "s1")
	d.AddSpace(3, "extra")
	c, st := newHarness(t, d)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, snap, 3)
}

func TestRestoreTooManyDisplays(t *testing.T) {
	d := testutil.NewDaemon(4)
	d.AddSpace(1, "reserved")
	c, st := newHarness(t, d)

	err := topology.Restore(c, st)
	var derr *yabai.UnsupportedDisplayCountError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *UnsupportedDisplayCountError", err)
	}
	if derr.Displays != 4 {
		t.Errorf("Displays = %d, want 4", derr.Displays)
	}
}

// TestRestoreAfterDisplayCountChange reconciles a snapshot persisted on a
// two-display arrangement onto a single display: labels survive the
// re-interleaving, so windows still find their workspaces.
func TestRestoreAfterDisplayCountChange(t *testing.T) {
	d := testutil.NewDaemon(1)
	d.AddSpace(1, "reserved")
	for _, label := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"} {
		d.AddSpace(1, label)
	}
	w := d.AddWindow(d.SpaceByLabel("s8"), "editor")
	c, st := newHarness(t, d)

	// The previous run saw two displays, with the window living on s3.
	prev := &yabai.Snapshot{
		Displays: []yabai.Display{{Index: 1}, {Index: 2}},
		Spaces:   []yabai.Space{{Index: 8, Label: "s3", Display: 2, Windows: []int64{w}}},
	}
	if err := st.SaveSnapshot(prev); err != nil {
		t.Fatal(err)
	}

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, snap, 1)
	if !snap.WindowInSpace("s3", w) {
		t.Error("the window should follow its label across the display change")
	}
}

// TestRestoreReconciliation drives the full cross-run flow: a restore
// persists the snapshot, the OS scrambles windows behind the daemon's
// back, and the next restore puts every surviving window back on the
// workspace label it lived on. Covers the reserved-space remap, vanished
// windows, and the daemon's dropped-move bug in one pass.
func TestRestoreReconciliation(t *testing.T) {
	d := testutil.NewDaemon(2)
	d.AddSpace(1, "reserved")
	for _, label := range []string{"s2", "s4", "s6", "s8", "s10"} {
		d.AddSpace(1, label)
	}
	for _, label := range []string{"s1", "s3", "s5", "s7", "s9"} {
		d.AddSpace(2, label)
	}
	edit := d.AddWindow(d.SpaceByLabel("s3"), "editor")
	mail := d.AddWindow(d.SpaceByLabel("s10"), "mail")
	stray := d.AddWindow(d.SpaceByLabel("reserved"), "stray")
	gone := d.AddWindow(d.SpaceByLabel("s5"), "doomed")
	c, st := newHarness(t, d)

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("first Restore failed: %v", err)
	}

	d.MoveWindow(edit, d.SpaceByLabel("s8"))
	d.MoveWindow(mail, d.SpaceByLabel("s1"))
	d.DeleteWindow(gone)
	d.DropWindowMoves = 1

	if err := topology.Restore(c, st); err != nil {
		t.Fatalf("second Restore failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	checkCanonical(t, snap, 2)

	if !snap.WindowInSpace("s3", edit) {
		t.Error("editor window should be back on s3")
	}
	if !snap.WindowInSpace("s10", mail) {
		t.Error("mail window should be back on s10")
	}
	if !snap.WindowInSpace("s1", stray) {
		t.Error("window from the reserved space should land on s1")
	}
}
