package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/navigate"
	"github.com/Gaurav-Gosain/yabaictl/internal/state"
	"github.com/Gaurav-Gosain/yabaictl/internal/topology"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// setup wires the daemon client and the sidecar store. Diagnostics go to
// stderr; stdout stays empty on success.
func setup() (*yabai.Client, *state.Store, error) {
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	path := socketPath
	if path == "" {
		var err error
		path, err = yabai.DefaultSocketPath()
		if err != nil {
			return nil, nil, err
		}
	}

	store, err := state.NewStore()
	if err != nil {
		return nil, nil, err
	}
	return yabai.NewClient(path), store, nil
}

func runRestore() error {
	client, store, err := setup()
	if err != nil {
		return err
	}
	return topology.Restore(client, store)
}

func runFocusSpace(arg string) error {
	sel, err := navigate.ParseSelector(arg)
	if err != nil {
		return err
	}
	client, store, err := setup()
	if err != nil {
		return err
	}
	return navigate.FocusSpace(client, store, sel)
}

func runWindow(op yabai.WindowOp, arg string) error {
	dir, err := yabai.ParseDirection(arg)
	if err != nil {
		return err
	}
	client, store, err := setup()
	if err != nil {
		return err
	}
	return navigate.Window(client, store, op, dir)
}
