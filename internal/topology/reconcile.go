package topology

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// Reconcile moves every window recorded in the previous snapshot back to
// the space carrying its old label. Windows that vanished since, and
// labels the daemon cannot resolve yet, are skipped; the window simply
// stays where the OS left it. Windows already sitting in the
// right-labeled space are not touched.
func Reconcile(c *yabai.Client, current, previous *yabai.Snapshot) error {
	for i := range previous.Spaces {
		sp := &previous.Spaces[i]
		target := sp.Label
		switch target {
		case config.ReservedLabel:
			// Nothing is meant to live on the reserved space; evict
			// onto the first workspace.
			target = yabai.Label(1)
		case "":
			if len(sp.Windows) > 0 {
				log.Debug("skipping windows from unlabeled space", "space", sp.Index, "windows", len(sp.Windows))
			}
			continue
		}
		for _, id := range sp.Windows {
			if current.WindowInSpace(target, id) {
				continue
			}
			_, err := c.Send("window", strconv.FormatInt(id, 10), "--space", target)
			if err != nil {
				if yabai.IsWindowGone(err) {
					log.Debug("window gone, skipping", "window", id, "space", target, "err", err)
					continue
				}
				return fmt.Errorf("failed to move window %d to %s: %w", id, target, err)
			}
		}
	}
	return nil
}
