package yabai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
)

// Frame is a display or window rectangle in screen coordinates.
type Frame struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Display is one attached monitor as reported by the daemon. Index is the
// daemon's 1-based arrangement order; Spaces lists the ids of the spaces
// currently hosted on it.
type Display struct {
	ID     uint32  `json:"id"`
	UUID   string  `json:"uuid"`
	Index  int     `json:"index"`
	Frame  Frame   `json:"frame"`
	Spaces []int64 `json:"spaces"`
}

// Space is one virtual desktop. Index is the OS-assigned 1-based index,
// renumbered by the daemon whenever spaces move or die. Label is the
// user-assigned name; the empty label marks a transient OS-spawned space.
type Space struct {
	ID                 int64   `json:"id"`
	UUID               string  `json:"uuid"`
	Index              int     `json:"index"`
	Label              string  `json:"label"`
	Type               string  `json:"type"`
	Display            int     `json:"display"`
	Windows            []int64 `json:"windows"`
	FirstWindow        int64   `json:"first-window"`
	LastWindow         int64   `json:"last-window"`
	HasFocus           bool    `json:"has-focus"`
	IsVisible          bool    `json:"is-visible"`
	IsNativeFullscreen bool    `json:"is-native-fullscreen"`
}

// LabelIndex parses the integer suffix of a workspace label (s1, s2, ...).
// The second return is false for the reserved label, the empty label, and
// anything else that does not follow the scheme.
func (s *Space) LabelIndex() (int, bool) {
	rest, ok := strings.CutPrefix(s.Label, config.LabelPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Window is one OS window. Space and Display are back-references by
// 1-based index; both go stale whenever the daemon renumbers.
type Window struct {
	ID          int64   `json:"id"`
	PID         int32   `json:"pid"`
	App         string  `json:"app"`
	Title       string  `json:"title"`
	Frame       Frame   `json:"frame"`
	Space       int     `json:"space"`
	Display     int     `json:"display"`
	HasFocus    bool    `json:"has-focus"`
	IsVisible   bool    `json:"is-visible"`
	IsMinimized bool    `json:"is-minimized"`
	IsFloating  bool    `json:"is-floating"`
	Opacity     float64 `json:"opacity"`
}

// Snapshot is one immutable round of daemon state: every display, space,
// and window as of the moment the three queries ran. Mutations never touch
// a snapshot; the control loop re-queries instead.
type Snapshot struct {
	Displays []Display `json:"displays"`
	Spaces   []Space   `json:"spaces"`
	Windows  []Window  `json:"windows"`
}

// DisplayCount returns the number of attached displays.
func (s *Snapshot) DisplayCount() int {
	return len(s.Displays)
}

// FocusedSpace returns the first space carrying focus, or nil.
func (s *Snapshot) FocusedSpace() *Space {
	for i := range s.Spaces {
		if s.Spaces[i].HasFocus {
			return &s.Spaces[i]
		}
	}
	return nil
}

// FocusedWindow returns the first window carrying focus, or nil.
func (s *Snapshot) FocusedWindow() *Window {
	for i := range s.Windows {
		if s.Windows[i].HasFocus {
			return &s.Windows[i]
		}
	}
	return nil
}

// SpaceByLabel returns the space with the given label, or nil.
func (s *Snapshot) SpaceByLabel(label string) *Space {
	for i := range s.Spaces {
		if s.Spaces[i].Label == label {
			return &s.Spaces[i]
		}
	}
	return nil
}

// SpaceByLabelIndex returns the space labeled s<k>, or nil.
func (s *Snapshot) SpaceByLabelIndex(k int) *Space {
	return s.SpaceByLabel(Label(k))
}

// UnlabeledFullscreenSpace returns the first native-fullscreen space with
// an empty label, or nil. Such a space is the OS quirk the restore exists
// for: a fullscreen app spawned a desktop outside the canonical topology.
func (s *Snapshot) UnlabeledFullscreenSpace() *Space {
	for i := range s.Spaces {
		if s.Spaces[i].Label == "" && s.Spaces[i].IsNativeFullscreen {
			return &s.Spaces[i]
		}
	}
	return nil
}

// NeedsRestore reports whether the snapshot contains any space that only a
// restore pass can fold back into the canonical topology.
func (s *Snapshot) NeedsRestore() bool {
	return s.UnlabeledFullscreenSpace() != nil
}

// WindowInSpace reports whether the window id is listed in the space with
// the given label.
func (s *Snapshot) WindowInSpace(label string, windowID int64) bool {
	sp := s.SpaceByLabel(label)
	if sp == nil {
		return false
	}
	for _, id := range sp.Windows {
		if id == windowID {
			return true
		}
	}
	return false
}

// Label returns the workspace label for index k.
func Label(k int) string {
	return fmt.Sprintf("%s%d", config.LabelPrefix, k)
}

// Direction is a cardinal direction for window commands.
type Direction string

// Directions understood by the daemon's window commands.
const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// ParseDirection maps a CLI argument to a Direction, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case North:
		return North, nil
	case East:
		return East, nil
	case South:
		return South, nil
	case West:
		return West, nil
	}
	return "", fmt.Errorf("invalid direction %q (want north, east, south or west)", s)
}

// WindowOp is a directional window operation.
type WindowOp string

// Window operations understood by the daemon.
const (
	OpFocus WindowOp = "--focus"
	OpSwap  WindowOp = "--swap"
	OpWarp  WindowOp = "--warp"
)
