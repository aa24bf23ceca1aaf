package yabai

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
)

// Domain selects which slice of daemon state a query returns.
type Domain string

// Query domains understood by the daemon.
const (
	Windows  Domain = "--windows"
	Spaces   Domain = "--spaces"
	Displays Domain = "--displays"
)

// query issues one state query and decodes the JSON reply into out. The
// daemon intermittently answers rapid command bursts with an empty string;
// those replies are reissued up to the retry cap. I/O and daemon errors
// propagate from every attempt.
func (c *Client) query(domain Domain, out any) error {
	var raw string
	for attempt := 0; ; attempt++ {
		var err error
		raw, err = c.Send("query", string(domain))
		if err != nil {
			return fmt.Errorf("failed to query yabai for %s: %w", domain, err)
		}
		if raw != "" {
			break
		}
		if attempt+1 >= config.MaxEmptyQueryRetries {
			return fmt.Errorf("query %s: %w", domain, ErrEmptyReply)
		}
		log.Debug("empty query reply, retrying", "domain", domain, "attempt", attempt+1)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s reply %q: %w", domain, raw, err)
	}
	return nil
}

// QueryWindows returns every window the daemon knows about.
func (c *Client) QueryWindows() ([]Window, error) {
	var out []Window
	if err := c.query(Windows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryDisplays returns every attached display.
func (c *Client) QueryDisplays() ([]Display, error) {
	var out []Display
	if err := c.query(Displays, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QuerySpaces returns every space across all displays.
func (c *Client) QuerySpaces() ([]Space, error) {
	var out []Space
	if err := c.query(Spaces, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot composes the three queries, windows then displays then spaces,
// into one typed snapshot.
func (c *Client) Snapshot() (*Snapshot, error) {
	windows, err := c.QueryWindows()
	if err != nil {
		return nil, err
	}
	displays, err := c.QueryDisplays()
	if err != nil {
		return nil, err
	}
	spaces, err := c.QuerySpaces()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Displays: displays, Spaces: spaces, Windows: windows}, nil
}
