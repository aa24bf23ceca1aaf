// Package main implements yabaictl, a control wrapper around the yabai
// window-manager daemon. It pins a fixed set of labeled workspaces across
// one to three displays and keeps them stable against the ephemeral
// desktops macOS spawns for native-fullscreen applications.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	verbose    bool
	socketPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yabaictl",
		Short: "A yabai wrapper for better multi-display support",
		Long: `yabaictl - stable workspaces for yabai

macOS creates and destroys desktops behind the window manager's back,
most notably when an application enters native fullscreen. yabaictl keeps
a fixed set of labeled workspaces (s1..s10 plus a reserved space) across
one to three displays, and navigates by those labels instead of the
OS-assigned desktop numbers.`,
		Example: `  # Rebuild the canonical workspace layout
  yabaictl restore-spaces

  # Focus workspace 3 on its composite desktop
  yabaictl focus-space 3

  # Page through composite desktops
  yabaictl focus-space next
  yabaictl focus-space prev

  # Toggle between the two most recent workspaces
  yabaictl focus-space recent

  # Directional window operations that cross displays
  yabaictl focus-window east
  yabaictl swap-window west
  yabaictl warp-window east`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Path to the yabai socket (default: /tmp/yabai_$USER.socket)")

	restoreCmd := &cobra.Command{
		Use:   "restore-spaces",
		Short: "Restore the canonical workspace layout",
		Long: `Restore the canonical workspace layout.

Converges the daemon onto one reserved space plus the labeled workspaces,
splits them across the attached displays, and moves every known window
back to the workspace it was last seen on.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRestore()
		},
	}

	focusSpaceCmd := &cobra.Command{
		Use:   "focus-space <selector>",
		Short: "Focus a workspace by label or relative selector",
		Long: `Focus a workspace by stable label or relative selector.

The selector is a workspace number (1..10) or one of next, prev, recent
and extra. With two or more displays, both halves of the composite
desktop pair are brought forward together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFocusSpace(args[0])
		},
	}

	rootCmd.AddCommand(restoreCmd, focusSpaceCmd)
	rootCmd.AddCommand(
		windowCommand("focus-window", "Focus the next window in a direction", yabai.OpFocus),
		windowCommand("swap-window", "Swap the focused window in a direction", yabai.OpSwap),
		windowCommand("warp-window", "Warp the focused window in a direction", yabai.OpWarp),
	)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// windowCommand builds one of the three directional window commands; they
// differ only in the operation sent to the daemon.
func windowCommand(use, short string, op yabai.WindowOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <direction>",
		Short: short,
		Long: short + `.

The direction is one of north, east, south or west (case-insensitive).
East and west continue onto the paired workspace of the other display
when the current display has no window in that direction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runWindow(op, args[0])
		},
	}
}
