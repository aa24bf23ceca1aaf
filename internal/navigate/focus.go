package navigate

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/topology"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// FocusSpace resolves the selector and focuses the target workspace. With
// two or more displays the pair partner is focused first, so both halves
// of the composite desktop come to the front together. On success the
// cursor remembers the workspace that was focused before the switch.
func FocusSpace(c *yabai.Client, st *state.Store, sel SpaceSelector) error {
	snap, err := restoreIfNecessary(c, st)
	if err != nil {
		return err
	}

	target, err := Resolve(sel, snap, st)
	if err != nil {
		return err
	}

	prev := 0
	if focused := snap.FocusedSpace(); focused != nil {
		if idx, ok := focused.LabelIndex(); ok {
			prev = idx
		}
	}

	if err := focusLabelIndex(c, snap, target); err != nil {
		return err
	}

	if prev > 0 {
		if err := st.SaveCursor(state.Cursor{Recent: prev}); err != nil {
			return err
		}
	} else {
		log.Debug("previous space had no workspace label, cursor unchanged")
	}

	final, err := c.Snapshot()
	if err != nil {
		return err
	}
	return st.SaveSnapshot(final)
}

// focusLabelIndex focuses the workspace with the given label index,
// bringing its pair partner along on multi-display arrangements.
func focusLabelIndex(c *yabai.Client, snap *yabai.Snapshot, target int) error {
	if snap.DisplayCount() >= 2 {
		partner := pairPartner(target)
		if sp := snap.SpaceByLabelIndex(partner); sp != nil && !sp.HasFocus && !sp.IsVisible {
			if err := focusLabel(c, yabai.Label(partner)); err != nil {
				return err
			}
		}
	}
	return focusLabel(c, yabai.Label(target))
}

// pairPartner returns the other half of a composite desktop pair: the
// even label for an odd one, the odd label for an even one.
func pairPartner(label int) int {
	if label%2 == 0 {
		return label - 1
	}
	return label + 1
}

// focusLabel focuses a space by label, treating the already-focused
// refusal as success.
func focusLabel(c *yabai.Client, label string) error {
	_, err := c.Send("space", "--focus", label)
	if err != nil && !yabai.IsAlreadyFocused(err) {
		return fmt.Errorf("failed to focus %s: %w", label, err)
	}
	return nil
}

// restoreIfNecessary runs the full restore when the snapshot contains a
// space only a restore can fold back in, then returns a fresh snapshot.
// Every navigation entry point goes through this, which is what heals the
// topology lazily after the OS spawns a fullscreen desktop.
func restoreIfNecessary(c *yabai.Client, st *state.Store) (*yabai.Snapshot, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	if !snap.NeedsRestore() {
		return snap, nil
	}
	log.Debug("unlabeled fullscreen space present, restoring first")
	if err := topology.Restore(c, st); err != nil {
		return nil, err
	}
	return c.Snapshot()
}
