// Package navigate maps logical workspace selectors to labels and
// implements the focus and directional window operations over them,
// including the cross-display fallbacks.
package navigate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// SelectorKind discriminates the space selector variants.
type SelectorKind int

// Space selector variants.
const (
	// Literal selects a workspace by label index.
	Literal SelectorKind = iota
	// Next pages forward by one composite desktop.
	Next
	// Prev pages backward by one composite desktop.
	Prev
	// Recent toggles to the workspace focused before the last switch.
	Recent
	// Extra selects the isolated third-display workspace.
	Extra
)

// SpaceSelector is a parsed focus-space argument. Index is only
// meaningful for the Literal kind.
type SpaceSelector struct {
	Kind  SelectorKind
	Index int
}

func (s SpaceSelector) String() string {
	switch s.Kind {
	case Next:
		return "next"
	case Prev:
		return "prev"
	case Recent:
		return "recent"
	case Extra:
		return "extra"
	default:
		return strconv.Itoa(s.Index)
	}
}

// ParseSelector maps a CLI argument to a selector. Integers are bounded
// to the labeled workspace range here, before any daemon I/O.
func ParseSelector(arg string) (SpaceSelector, error) {
	switch strings.ToLower(arg) {
	case "next":
		return SpaceSelector{Kind: Next}, nil
	case "prev":
		return SpaceSelector{Kind: Prev}, nil
	case "recent":
		return SpaceSelector{Kind: Recent}, nil
	case "extra":
		return SpaceSelector{Kind: Extra}, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return SpaceSelector{}, fmt.Errorf("invalid space selector %q (want next, prev, recent, extra or 1..%d)", arg, config.NumSpaces)
	}
	if n < 1 || n > config.NumSpaces {
		return SpaceSelector{}, fmt.Errorf("space %d out of range 1..%d", n, config.NumSpaces)
	}
	return SpaceSelector{Kind: Literal, Index: n}, nil
}

// Resolve computes the target label index for the selector against the
// current snapshot. Next and Prev page by the composite-desktop stride:
// two labels when two or more displays show a pair in unison, one label on
// a single display. Displays beyond the second host a single isolated
// space that does not participate in paging.
func Resolve(sel SpaceSelector, snap *yabai.Snapshot, st *state.Store) (int, error) {
	displays := snap.DisplayCount()
	step := displays
	if step > 2 {
		step = 2
	}

	switch sel.Kind {
	case Literal:
		return sel.Index, nil

	case Extra:
		if displays < config.MaxDisplays {
			return 0, fmt.Errorf("the extra workspace needs %d displays, have %d", config.MaxDisplays, displays)
		}
		return config.NumSpaces + 1, nil

	case Recent:
		cur, err := st.LoadCursor()
		if err != nil {
			return 0, fmt.Errorf("no recent workspace: %w", err)
		}
		if cur.Recent < 1 || cur.Recent > len(snap.Spaces) {
			return 0, fmt.Errorf("recent workspace %d is out of range", cur.Recent)
		}
		return cur.Recent, nil
	}

	focused := snap.FocusedSpace()
	if focused == nil {
		return 0, fmt.Errorf("no focused space")
	}
	from, ok := focused.LabelIndex()
	if !ok {
		return 0, fmt.Errorf("focused space %q has no workspace label", focused.Label)
	}

	if sel.Kind == Next {
		to := from + step
		if to > config.NumSpaces {
			to %= config.NumSpaces
		}
		return to, nil
	}

	// Prev wraps into the tail of the paging range, skipping the isolated
	// third-display space, and preserves which half of the pair is focused.
	if from <= step {
		extra := displays - 2
		if extra < 0 {
			extra = 0
		}
		return len(snap.Spaces) - 1 - extra - (step - from), nil
	}
	return from - step, nil
}
