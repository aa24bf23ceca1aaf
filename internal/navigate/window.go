package navigate

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// Window performs a directional window operation, falling through to the
// pair-partner space when the daemon finds nothing in that direction on
// the current display. Vertical directions never cross displays; their
// errors surface unchanged.
func Window(c *yabai.Client, st *state.Store, op yabai.WindowOp, dir yabai.Direction) error {
	snap, err := restoreIfNecessary(c, st)
	if err != nil {
		return err
	}

	_, err = c.Send("window", string(op), string(dir))
	if err != nil {
		if dir == yabai.North || dir == yabai.South {
			return err
		}
		if !yabai.IsNoDirectionalTarget(err, dir) {
			return err
		}
		if err := crossDisplay(c, snap, op, dir, err); err != nil {
			return err
		}
	}

	final, err := c.Snapshot()
	if err != nil {
		return err
	}
	return st.SaveSnapshot(final)
}

// crossDisplay handles an east/west operation that ran off the edge of
// the current display. The target is the pair partner of the focused
// workspace; without one (single display, or no partner space) the
// operation wraps within the focused space instead. nativeErr is the
// daemon error that triggered the fallback, surfaced again when there is
// nothing to fall back to.
func crossDisplay(c *yabai.Client, snap *yabai.Snapshot, op yabai.WindowOp, dir yabai.Direction, nativeErr error) error {
	focused := snap.FocusedSpace()
	if focused == nil {
		return nativeErr
	}

	var neighbor *yabai.Space
	if snap.DisplayCount() >= 2 {
		if idx, ok := focused.LabelIndex(); ok {
			neighbor = snap.SpaceByLabelIndex(pairPartner(idx))
		}
	}

	if neighbor == nil {
		// Wrap within the focused space: the eastmost window's east
		// neighbor is the first window, and vice versa.
		id := edgeWindow(focused, dir)
		if id == 0 {
			return nativeErr
		}
		if _, err := c.Send("window", string(op), strconv.FormatInt(id, 10)); err != nil {
			return fmt.Errorf("failed to wrap %s %s: %w", opName(op), dir, err)
		}
		return nil
	}

	if op == yabai.OpFocus {
		id := edgeWindow(neighbor, dir)
		if id == 0 || !snap.WindowInSpace(neighbor.Label, id) {
			// The daemon's first/last bookkeeping for non-visible
			// spaces goes stale; stay on the focused space's edge.
			log.Debug("neighbor edge window is stale", "space", neighbor.Label, "window", id)
			id = edgeWindow(focused, dir)
		}
		if id == 0 {
			return nativeErr
		}
		if _, err := c.Send("window", "--focus", strconv.FormatInt(id, 10)); err != nil {
			return fmt.Errorf("failed to focus window %d: %w", id, err)
		}
		return nil
	}

	if len(neighbor.Windows) == 0 {
		// Nothing to swap or warp against; send the window over instead.
		if _, err := c.Send("window", "--space", neighbor.Label); err != nil {
			return fmt.Errorf("failed to send window to %s: %w", neighbor.Label, err)
		}
	} else {
		id := edgeWindow(neighbor, dir)
		if _, err := c.Send("window", string(op), strconv.FormatInt(id, 10)); err != nil {
			return fmt.Errorf("failed to %s with window %d: %w", opName(op), id, err)
		}
	}
	return focusLabel(c, neighbor.Label)
}

// edgeWindow returns the window on the entering edge of a space for a
// horizontal traversal: the first window when coming in from the west,
// the last when coming in from the east.
func edgeWindow(sp *yabai.Space, dir yabai.Direction) int64 {
	if dir == yabai.East {
		return sp.FirstWindow
	}
	return sp.LastWindow
}

func opName(op yabai.WindowOp) string {
	switch op {
	case yabai.OpSwap:
		return "swap"
	case yabai.OpWarp:
		return "warp"
	default:
		return "focus"
	}
}
