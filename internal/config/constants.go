// Package config provides the tunable constants shared across yabaictl.
package config

import "time"

// =============================================================================
// Workspace Topology
// =============================================================================

const (
	// NumSpaces is the number of user-addressable labeled workspaces.
	NumSpaces = 10

	// MaxDisplays is the highest display count the topology supports.
	MaxDisplays = 3

	// ReservedLabel is the label of the space pinned at OS index 1.
	ReservedLabel = "reserved"

	// LabelPrefix is the prefix of every workspace label (s1, s2, ...).
	LabelPrefix = "s"
)

// TargetSpaceCount returns the canonical number of spaces for the given
// display count: the labeled workspaces, the reserved space, and one
// isolated space per display beyond the second.
func TargetSpaceCount(displays int) int {
	extra := displays - 2
	if extra < 0 {
		extra = 0
	}
	return NumSpaces + 1 + extra
}

// =============================================================================
// Daemon Socket
// =============================================================================

const (
	// SocketPathFormat is the daemon socket path, parameterized by $USER.
	SocketPathFormat = "/tmp/yabai_%s.socket"

	// SocketTimeout bounds each read and write on the daemon socket.
	// Display hot-plug can stall the daemon for several seconds.
	SocketTimeout = 10 * time.Second
)

// =============================================================================
// Retries and Delays
// =============================================================================

const (
	// SettleDelay is how long each space stays focused during the settle
	// pass before the daemon's window listing for it can be trusted.
	SettleDelay = 250 * time.Millisecond

	// MaxEmptyQueryRetries caps how many times in total a query is sent
	// while the daemon keeps returning an empty reply under rapid command
	// bursts.
	MaxEmptyQueryRetries = 10
)

// =============================================================================
// Sidecar Files
// =============================================================================

const (
	// CacheDirName is the directory under the home directory holding the
	// sidecar files.
	CacheDirName = ".cache"

	// SnapshotFileName is the sidecar file carrying the last canonical
	// snapshot, used for window reconciliation across runs.
	SnapshotFileName = "yabai"

	// CursorFileName is the sidecar file carrying the recent-label cursor.
	CursorFileName = "yabaictl"
)
