// Package testutil provides an in-process stand-in for the yabai daemon.
// It listens on a real unix socket, speaks the framed message protocol,
// and keeps a small in-memory model of displays, spaces and windows with
// the renumbering and error behaviors the control loop depends on.
package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// FakeSpace is one virtual desktop in the fake daemon's model. Windows is
// ordered west to east; the directional commands treat each space as a
// single row.
type FakeSpace struct {
	ID               int64
	UUID             string
	Label            string
	Layout           string
	Display          int
	Windows          []int64
	NativeFullscreen bool
}

// FakeWindow is one window in the fake daemon's model.
type FakeWindow struct {
	ID    int64
	PID   int32
	App   string
	Title string
}

// Daemon is a scripted yabai double. The zero value is not usable; build
// one with NewDaemon and populate it before Start.
type Daemon struct {
	mu sync.Mutex
	ln net.Listener

	// SocketPath is where the daemon listens once started.
	SocketPath string

	// DisplayCount is the number of attached displays (1..3).
	DisplayCount int

	// Spaces holds every space, grouped by display in ascending display
	// order; a space's OS index is its position here plus one.
	Spaces []*FakeSpace

	// Windows holds window metadata by id; membership lives on the spaces.
	Windows map[int64]*FakeWindow

	// FocusedSpace and FocusedWindow are ids, zero when nothing is focused.
	FocusedSpace  int64
	FocusedWindow int64

	// visible tracks the visible space per display.
	visible map[int]int64

	// EmptyQueryReplies makes the next n query replies empty strings,
	// exercising the query layer's retry.
	EmptyQueryReplies int

	// DropWindowMoves silently no-ops the next n window --space commands,
	// reproducing the post-display_added daemon bug.
	DropWindowMoves int

	// FirstWindowOverride reports a bogus first-window for a space id,
	// reproducing the daemon's stale edge-window bookkeeping for
	// non-visible spaces.
	FirstWindowOverride map[int64]int64

	// Sent records every received token vector in order.
	Sent [][]string

	nextSpaceID int64
}

// NewDaemon returns an empty fake with the given display count.
func NewDaemon(displays int) *Daemon {
	return &Daemon{
		DisplayCount: displays,
		Windows:      make(map[int64]*FakeWindow),
		visible:      make(map[int]int64),
		nextSpaceID:  1000,
	}
}

// AddSpace appends a space on the given display and returns it. Spaces
// must be added in display order.
func (d *Daemon) AddSpace(display int, label string) *FakeSpace {
	d.nextSpaceID++
	sp := &FakeSpace{
		ID:      d.nextSpaceID,
		UUID:    uuid.NewString(),
		Label:   label,
		Layout:  "bsp",
		Display: display,
	}
	d.insertSpace(sp)
	if d.visible[display] == 0 {
		d.visible[display] = sp.ID
	}
	if d.FocusedSpace == 0 {
		d.FocusedSpace = sp.ID
	}
	return sp
}

// AddWindow appends a window to the given space and returns its id.
func (d *Daemon) AddWindow(sp *FakeSpace, app string) int64 {
	id := int64(len(d.Windows) + 1)
	d.Windows[id] = &FakeWindow{ID: id, PID: int32(1000 + id), App: app, Title: app}
	sp.Windows = append(sp.Windows, id)
	if d.FocusedWindow == 0 {
		d.FocusedWindow = id
	}
	return id
}

// Focus marks the space focused and visible on its display.
func (d *Daemon) Focus(sp *FakeSpace) {
	d.FocusedSpace = sp.ID
	d.visible[sp.Display] = sp.ID
	if !d.spaceHasWindow(sp, d.FocusedWindow) && len(sp.Windows) > 0 {
		d.FocusedWindow = sp.Windows[0]
	}
}

// FocusWindowID marks the window focused, along with its space.
func (d *Daemon) FocusWindowID(id int64) {
	if sp := d.spaceOfWindow(id); sp != nil {
		d.FocusedWindow = id
		d.FocusedSpace = sp.ID
		d.visible[sp.Display] = sp.ID
	}
}

// Start begins serving on a socket under t.TempDir and stops at cleanup.
func (d *Daemon) Start(t *testing.T) {
	t.Helper()
	d.SocketPath = filepath.Join(t.TempDir(), "yabai.socket")
	ln, err := net.Listen("unix", d.SocketPath)
	if err != nil {
		t.Fatalf("failed to listen on %s: %v", d.SocketPath, err)
	}
	d.ln = ln
	t.Cleanup(func() { ln.Close() }) //nolint:errcheck
	go d.serve()
}

// MoveWindow relocates a window to the target space directly, bypassing
// the protocol, the way the OS shuffles windows behind the daemon's back.
func (d *Daemon) MoveWindow(id int64, target *FakeSpace) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moveWindowToSpace(id, target)
}

// DeleteWindow removes a window entirely, as if its application quit.
func (d *Daemon) DeleteWindow(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sp, _ := d.locateWindow(id); sp != nil {
		d.removeWindow(sp, id)
	}
	delete(d.Windows, id)
	if d.FocusedWindow == id {
		d.FocusedWindow = 0
	}
}

// SpaceByLabel returns the space with the given label, or nil.
func (d *Daemon) SpaceByLabel(label string) *FakeSpace {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findLabel(label)
}

// Focused returns the focused space's label and the focused window id.
func (d *Daemon) Focused() (string, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	label := ""
	if sp := d.focusedSpace(); sp != nil {
		label = sp.Label
	}
	return label, d.FocusedWindow
}

// SentCommands returns a copy of every token vector received so far.
func (d *Daemon) SentCommands() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]string(nil), d.Sent...)
}

// SpaceCount returns the current number of spaces.
func (d *Daemon) SpaceCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Spaces)
}

func (d *Daemon) serve() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.handle(conn)
	}
}

func (d *Daemon) handle(conn net.Conn) {
	defer conn.Close() //nolint:errcheck

	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return
	}
	payload := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(conn, payload); err != nil {
		return
	}
	tokens := parseTokens(payload)

	d.mu.Lock()
	d.Sent = append(d.Sent, tokens)
	reply := d.dispatch(tokens)
	d.mu.Unlock()

	conn.Write(reply) //nolint:errcheck
}

// parseTokens splits the NUL-separated payload, dropping the trailing
// empty end-of-message token.
func parseTokens(payload []byte) []string {
	parts := bytes.Split(payload, []byte{0})
	var tokens []string
	for _, p := range parts {
		tokens = append(tokens, string(p))
	}
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func failf(format string, args ...any) []byte {
	return append([]byte{0x07}, fmt.Sprintf(format, args...)...)
}

func (d *Daemon) dispatch(tokens []string) []byte {
	if len(tokens) == 0 {
		return failf("empty message")
	}
	switch tokens[0] {
	case "query":
		return d.handleQuery(tokens[1:])
	case "space":
		return d.handleSpace(tokens[1:])
	case "window":
		return d.handleWindow(tokens[1:])
	}
	return failf("unknown domain %q", tokens[0])
}

// =============================================================================
// Queries
// =============================================================================

func (d *Daemon) handleQuery(args []string) []byte {
	if d.EmptyQueryReplies > 0 {
		d.EmptyQueryReplies--
		return nil
	}
	if len(args) != 1 {
		return failf("malformed query")
	}
	var v any
	switch args[0] {
	case "--displays":
		v = d.displayList()
	case "--spaces":
		v = d.spaceList()
	case "--windows":
		v = d.windowList()
	default:
		return failf("unknown query domain %q", args[0])
	}
	out, err := json.Marshal(v)
	if err != nil {
		return failf("encode: %v", err)
	}
	return out
}

func (d *Daemon) displayList() []yabai.Display {
	out := make([]yabai.Display, 0, d.DisplayCount)
	for disp := 1; disp <= d.DisplayCount; disp++ {
		dd := yabai.Display{
			ID:    uint32(disp),
			UUID:  fmt.Sprintf("display-%d", disp),
			Index: disp,
			Frame: yabai.Frame{X: float64((disp - 1) * 1920), W: 1920, H: 1080},
		}
		for i, sp := range d.Spaces {
			if sp.Display == disp {
				dd.Spaces = append(dd.Spaces, int64(i+1))
			}
		}
		out = append(out, dd)
	}
	return out
}

func (d *Daemon) spaceList() []yabai.Space {
	out := make([]yabai.Space, 0, len(d.Spaces))
	for i, sp := range d.Spaces {
		s := yabai.Space{
			ID:                 sp.ID,
			UUID:               sp.UUID,
			Index:              i + 1,
			Label:              sp.Label,
			Type:               sp.Layout,
			Display:            sp.Display,
			Windows:            append([]int64(nil), sp.Windows...),
			HasFocus:           sp.ID == d.FocusedSpace,
			IsVisible:          d.visible[sp.Display] == sp.ID,
			IsNativeFullscreen: sp.NativeFullscreen,
		}
		if len(sp.Windows) > 0 {
			s.FirstWindow = sp.Windows[0]
			s.LastWindow = sp.Windows[len(sp.Windows)-1]
		}
		if id, ok := d.FirstWindowOverride[sp.ID]; ok {
			s.FirstWindow = id
		}
		out = append(out, s)
	}
	return out
}

func (d *Daemon) windowList() []yabai.Window {
	var out []yabai.Window
	for i, sp := range d.Spaces {
		for _, id := range sp.Windows {
			w := d.Windows[id]
			out = append(out, yabai.Window{
				ID:        id,
				PID:       w.PID,
				App:       w.App,
				Title:     w.Title,
				Space:     i + 1,
				Display:   sp.Display,
				HasFocus:  id == d.FocusedWindow,
				IsVisible: d.visible[sp.Display] == sp.ID,
				Opacity:   1,
			})
		}
	}
	return out
}

// =============================================================================
// Space commands
// =============================================================================

func (d *Daemon) handleSpace(args []string) []byte {
	// Either "space --cmd ..." acting on the focused space, or
	// "space <sel> --cmd ..." acting on the selected one.
	sel := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		sel = args[0]
		args = args[1:]
	}
	if len(args) == 0 {
		return failf("malformed space command")
	}

	switch args[0] {
	case "--focus":
		if len(args) == 2 {
			sel = args[1]
		}
		sp := d.resolveSpace(sel)
		if sp == nil {
			return failf("the value '%s' is not a valid option for SPACE_SEL", sel)
		}
		if sp.ID == d.FocusedSpace {
			return failf("cannot focus an already focused space.")
		}
		d.Focus(sp)
		return nil

	case "--layout":
		if len(args) != 2 {
			return failf("malformed layout command")
		}
		sp := d.focusedSpace()
		if sp == nil {
			return failf("could not locate the selected space.")
		}
		sp.Layout = args[1]
		return nil

	case "--create":
		focused := d.focusedSpace()
		display := 1
		if focused != nil {
			display = focused.Display
		}
		d.nextSpaceID++
		d.insertSpace(&FakeSpace{
			ID:      d.nextSpaceID,
			UUID:    uuid.NewString(),
			Layout:  "bsp",
			Display: display,
		})
		return nil

	case "--destroy":
		sp := d.resolveSpace(sel)
		if sp == nil {
			return failf("the value '%s' is not a valid option for SPACE_SEL", sel)
		}
		d.destroySpace(sp)
		return nil

	case "--label":
		if len(args) != 2 {
			return failf("malformed label command")
		}
		sp := d.resolveSpace(sel)
		if sp == nil {
			return failf("the value '%s' is not a valid option for SPACE_SEL", sel)
		}
		// Labels are unique; relabeling steals from the previous owner.
		if other := d.findLabel(args[1]); other != nil && other != sp {
			other.Label = ""
		}
		sp.Label = args[1]
		return nil

	case "--display":
		if len(args) != 2 {
			return failf("malformed display command")
		}
		sp := d.resolveSpace(sel)
		if sp == nil {
			return failf("the value '%s' is not a valid option for SPACE_SEL", sel)
		}
		target, err := strconv.Atoi(args[1])
		if err != nil || target < 1 || target > d.DisplayCount {
			return failf("the value '%s' is not a valid option for DISPLAY_SEL", args[1])
		}
		if sp.Display == target {
			return failf("acting space is already located on the given display.")
		}
		d.moveSpaceToDisplay(sp, target)
		return nil
	}
	return failf("unknown space command %q", args[0])
}

// =============================================================================
// Window commands
// =============================================================================

func (d *Daemon) handleWindow(args []string) []byte {
	var actingID int64
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return failf("the value '%s' is not a valid option for WINDOW_SEL", args[0])
		}
		actingID = id
		args = args[1:]
	} else {
		actingID = d.FocusedWindow
	}
	if len(args) != 2 {
		return failf("malformed window command")
	}

	switch args[0] {
	case "--space":
		if d.spaceOfWindow(actingID) == nil {
			return failf("could not locate the window to act on!")
		}
		target := d.resolveSpace(args[1])
		if target == nil {
			return failf("the value '%s' is not a valid option for SPACE_SEL", args[1])
		}
		if d.DropWindowMoves > 0 {
			d.DropWindowMoves--
			return nil
		}
		d.moveWindowToSpace(actingID, target)
		return nil

	case "--focus":
		if id, err := strconv.ParseInt(args[1], 10, 64); err == nil {
			if d.spaceOfWindow(id) == nil {
				return failf("could not locate the window to act on!")
			}
			d.FocusWindowID(id)
			return nil
		}
		return d.directional(args[1], func(target int64) {
			d.FocusWindowID(target)
		})

	case "--swap":
		if id, err := strconv.ParseInt(args[1], 10, 64); err == nil {
			return d.swapWindows(actingID, id)
		}
		return d.directional(args[1], func(target int64) {
			d.swapWindows(d.FocusedWindow, target)
		})

	case "--warp":
		if id, err := strconv.ParseInt(args[1], 10, 64); err == nil {
			return d.warpWindow(actingID, id)
		}
		return d.directional(args[1], func(target int64) {
			d.warpWindow(d.FocusedWindow, target)
		})
	}
	return failf("unknown window command %q", args[0])
}

// directional resolves a cardinal direction within the focused space's
// window row and applies fn to the hit. The model is one row per space,
// so north and south never match.
func (d *Daemon) directional(dir string, fn func(int64)) []byte {
	sp := d.spaceOfWindow(d.FocusedWindow)
	if sp == nil || sp.ID != d.FocusedSpace {
		return failf("could not locate the selected window.")
	}
	pos := -1
	for i, id := range sp.Windows {
		if id == d.FocusedWindow {
			pos = i
		}
	}
	var target int64
	switch dir {
	case "east":
		if pos+1 < len(sp.Windows) {
			target = sp.Windows[pos+1]
		}
	case "west":
		if pos > 0 {
			target = sp.Windows[pos-1]
		}
	}
	if target == 0 {
		return failf("could not locate a %sward managed window.", dir)
	}
	fn(target)
	return nil
}

func (d *Daemon) swapWindows(a, b int64) []byte {
	spA, posA := d.locateWindow(a)
	spB, posB := d.locateWindow(b)
	if spA == nil || spB == nil {
		return failf("could not locate the window to act on!")
	}
	spA.Windows[posA], spB.Windows[posB] = b, a
	return nil
}

func (d *Daemon) warpWindow(id, target int64) []byte {
	sp, _ := d.locateWindow(id)
	spT, _ := d.locateWindow(target)
	if sp == nil || spT == nil || id == target {
		return failf("could not locate the window to act on!")
	}
	d.removeWindow(sp, id)
	spT, posT := d.locateWindow(target)
	spT.Windows = append(spT.Windows[:posT+1], append([]int64{id}, spT.Windows[posT+1:]...)...)
	return nil
}

// =============================================================================
// Model helpers
// =============================================================================

// insertSpace places the space at the end of its display's group, keeping
// the global slice ordered by display.
func (d *Daemon) insertSpace(sp *FakeSpace) {
	at := len(d.Spaces)
	for i, other := range d.Spaces {
		if other.Display > sp.Display {
			at = i
			break
		}
	}
	d.Spaces = append(d.Spaces[:at], append([]*FakeSpace{sp}, d.Spaces[at:]...)...)
}

func (d *Daemon) removeSpace(sp *FakeSpace) {
	for i, other := range d.Spaces {
		if other == sp {
			d.Spaces = append(d.Spaces[:i], d.Spaces[i+1:]...)
			return
		}
	}
}

func (d *Daemon) destroySpace(sp *FakeSpace) {
	d.removeSpace(sp)
	// Orphaned windows land on the first space of the same display, or
	// the first space anywhere as a last resort.
	if len(sp.Windows) > 0 {
		host := d.firstSpaceOnDisplay(sp.Display)
		if host == nil && len(d.Spaces) > 0 {
			host = d.Spaces[0]
		}
		if host != nil {
			host.Windows = append(host.Windows, sp.Windows...)
		}
	}
	if d.visible[sp.Display] == sp.ID {
		d.visible[sp.Display] = 0
		if first := d.firstSpaceOnDisplay(sp.Display); first != nil {
			d.visible[sp.Display] = first.ID
		}
	}
	if d.FocusedSpace == sp.ID {
		d.FocusedSpace = 0
		if first := d.firstSpaceOnDisplay(sp.Display); first != nil {
			d.Focus(first)
		} else if len(d.Spaces) > 0 {
			d.Focus(d.Spaces[0])
		}
	}
}

func (d *Daemon) moveSpaceToDisplay(sp *FakeSpace, display int) {
	old := sp.Display
	d.removeSpace(sp)
	sp.Display = display
	d.insertSpace(sp)
	if d.visible[old] == sp.ID {
		d.visible[old] = 0
		if first := d.firstSpaceOnDisplay(old); first != nil {
			d.visible[old] = first.ID
		}
	}
	if d.visible[display] == 0 {
		d.visible[display] = sp.ID
	}
}

func (d *Daemon) moveWindowToSpace(id int64, target *FakeSpace) {
	sp, _ := d.locateWindow(id)
	if sp == target {
		return
	}
	d.removeWindow(sp, id)
	target.Windows = append(target.Windows, id)
}

func (d *Daemon) removeWindow(sp *FakeSpace, id int64) {
	for i, w := range sp.Windows {
		if w == id {
			sp.Windows = append(sp.Windows[:i], sp.Windows[i+1:]...)
			return
		}
	}
}

func (d *Daemon) firstSpaceOnDisplay(display int) *FakeSpace {
	for _, sp := range d.Spaces {
		if sp.Display == display {
			return sp
		}
	}
	return nil
}

func (d *Daemon) focusedSpace() *FakeSpace {
	for _, sp := range d.Spaces {
		if sp.ID == d.FocusedSpace {
			return sp
		}
	}
	return nil
}

func (d *Daemon) spaceOfWindow(id int64) *FakeSpace {
	sp, _ := d.locateWindow(id)
	return sp
}

func (d *Daemon) locateWindow(id int64) (*FakeSpace, int) {
	if id == 0 {
		return nil, 0
	}
	for _, sp := range d.Spaces {
		for i, w := range sp.Windows {
			if w == id {
				return sp, i
			}
		}
	}
	return nil, 0
}

func (d *Daemon) spaceHasWindow(sp *FakeSpace, id int64) bool {
	for _, w := range sp.Windows {
		if w == id {
			return true
		}
	}
	return false
}

func (d *Daemon) findLabel(label string) *FakeSpace {
	if label == "" {
		return nil
	}
	for _, sp := range d.Spaces {
		if sp.Label == label {
			return sp
		}
	}
	return nil
}

// resolveSpace maps a selector to a space: empty means the focused space,
// digits mean an OS index, anything else is a label.
func (d *Daemon) resolveSpace(sel string) *FakeSpace {
	if sel == "" {
		return d.focusedSpace()
	}
	if n, err := strconv.Atoi(sel); err == nil {
		if n < 1 || n > len(d.Spaces) {
			return nil
		}
		return d.Spaces[n-1]
	}
	return d.findLabel(sel)
}
