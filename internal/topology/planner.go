// Package topology drives the daemon from an arbitrary live state to the
// canonical labeled workspace layout: one reserved space, N labeled
// workspaces split across the attached displays, and windows returned to
// the spaces whose labels they lived on.
package topology

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// maxRedistributeMoves bounds the space-move loop; the daemon renumbers
// after every move, so the loop re-queries instead of trusting indices.
const maxRedistributeMoves = 64

// Restore converges the daemon onto the canonical topology: settle, fix
// the space count and distribution, relabel, then reconcile windows
// against the previously persisted snapshot. The reconciliation runs
// twice; the daemon occasionally no-ops a space move right after a
// display_added signal, and the second pass catches what the first lost.
func Restore(c *yabai.Client, st *state.Store) error {
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	displays := snap.DisplayCount()
	if displays > config.MaxDisplays {
		return &yabai.UnsupportedDisplayCountError{Displays: displays}
	}

	if err := settle(c, snap); err != nil {
		return err
	}
	if err := redistribute(c, displays); err != nil {
		return err
	}
	if err := convergeCount(c, displays); err != nil {
		return err
	}
	if err := redistribute(c, displays); err != nil {
		return err
	}

	snap, err = c.Snapshot()
	if err != nil {
		return err
	}
	if err := labelSpaces(c, snap); err != nil {
		return err
	}

	prev, err := st.LoadSnapshot()
	switch {
	case errors.Is(err, state.ErrSidecarMissing):
		log.Debug("no prior snapshot, skipping window reconciliation")
	case err != nil:
		return err
	default:
		for pass := 1; pass <= 2; pass++ {
			cur, err := c.Snapshot()
			if err != nil {
				return err
			}
			log.Debug("reconciling windows", "pass", pass)
			if err := Reconcile(c, cur, prev); err != nil {
				return err
			}
		}
	}

	final, err := c.Snapshot()
	if err != nil {
		return err
	}
	return st.SaveSnapshot(final)
}

// settle focuses every space once, with a pause, and sets the layout.
// After a daemon reload the window membership of non-visible spaces is
// stale until the space has been focused; the layout message doubles as
// the per-space touch. The originally focused space is restored at the end.
func settle(c *yabai.Client, snap *yabai.Snapshot) error {
	layout := "stack"
	if snap.DisplayCount() > 1 {
		layout = "bsp"
	}
	orig := snap.FocusedSpace()
	for i := range snap.Spaces {
		if err := focusSpaceIndex(c, snap.Spaces[i].Index); err != nil {
			return err
		}
		time.Sleep(config.SettleDelay)
		if _, err := c.Send("space", "--layout", layout); err != nil {
			return fmt.Errorf("failed to set layout on space %d: %w", snap.Spaces[i].Index, err)
		}
	}
	if orig != nil {
		return focusSpaceIndex(c, orig.Index)
	}
	return nil
}

// focusSpaceIndex focuses the space at the given OS index, treating the
// already-focused refusal as success.
func focusSpaceIndex(c *yabai.Client, index int) error {
	_, err := c.Send("space", "--focus", strconv.Itoa(index))
	if err != nil && !yabai.IsAlreadyFocused(err) {
		return fmt.Errorf("failed to focus space %d: %w", index, err)
	}
	return nil
}

// displayForPosition returns the display that should host the space at the
// given OS index: everything on display 1 for a single display, the first
// N/2+1 spaces on display 1 and the rest on display 2 otherwise, with the
// N+2-th space alone on display 3 when present.
func displayForPosition(index, displays int) int {
	if displays <= 1 {
		return 1
	}
	if displays >= 3 && index == config.NumSpaces+2 {
		return 3
	}
	if index <= config.NumSpaces/2+1 {
		return 1
	}
	return 2
}

// redistribute moves spaces until every OS index sits on its canonical
// display. Each move renumbers the spaces, so the loop re-queries and
// fixes the first mismatch per iteration.
func redistribute(c *yabai.Client, displays int) error {
	if displays <= 1 {
		return nil
	}
	for moves := 0; moves < maxRedistributeMoves; moves++ {
		snap, err := c.Snapshot()
		if err != nil {
			return err
		}
		moved := false
		for i := range snap.Spaces {
			sp := &snap.Spaces[i]
			want := displayForPosition(sp.Index, displays)
			if sp.Display == want {
				continue
			}
			_, err := c.Send("space", strconv.Itoa(sp.Index), "--display", strconv.Itoa(want))
			if err != nil && !yabai.IsAlreadyOnDisplay(err) {
				return fmt.Errorf("failed to move space %d to display %d: %w", sp.Index, want, err)
			}
			moved = true
			break
		}
		if !moved {
			return nil
		}
	}
	return fmt.Errorf("space distribution did not converge after %d moves", maxRedistributeMoves)
}

// convergeCount creates or destroys spaces until exactly the canonical
// count exists. Destroys always target the space just past the target
// count; the daemon renumbers after each one.
func convergeCount(c *yabai.Client, displays int) error {
	target := config.TargetSpaceCount(displays)
	for {
		snap, err := c.Snapshot()
		if err != nil {
			return err
		}
		n := len(snap.Spaces)
		switch {
		case n < target:
			if _, err := c.Send("space", "--create"); err != nil {
				return fmt.Errorf("failed to create space: %w", err)
			}
		case n > target:
			if _, err := c.Send("space", strconv.Itoa(target+1), "--destroy"); err != nil {
				return fmt.Errorf("failed to destroy space %d: %w", target+1, err)
			}
		default:
			return nil
		}
	}
}

// labelForPosition returns the workspace label for the i-th non-reserved
// space (i starting at 1). A single display labels in OS order. With two
// or three displays the labels interleave so that the pairs (s1,s2),
// (s3,s4), ... straddle the primary and secondary display; the space past
// sN is the isolated third-display workspace.
func labelForPosition(i, displays int) string {
	if displays <= 1 {
		return yabai.Label(i)
	}
	half := config.NumSpaces / 2
	switch {
	case i <= half:
		return yabai.Label(2 * i)
	case i <= config.NumSpaces:
		return yabai.Label((i-half)*2 - 1)
	default:
		return yabai.Label(config.NumSpaces + 1)
	}
}

// labelSpaces stamps the reserved label on OS index 1 and the scheme
// labels on everything after it.
func labelSpaces(c *yabai.Client, snap *yabai.Snapshot) error {
	displays := snap.DisplayCount()
	if _, err := c.Send("space", "1", "--label", config.ReservedLabel); err != nil {
		return fmt.Errorf("failed to label the reserved space: %w", err)
	}
	for i := 1; i < len(snap.Spaces); i++ {
		label := labelForPosition(i, displays)
		if _, err := c.Send("space", strconv.Itoa(i+1), "--label", label); err != nil {
			return fmt.Errorf("failed to label space %d as %s: %w", i+1, label, err)
		}
	}
	return nil
}
