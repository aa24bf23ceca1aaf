// Package yabai speaks the window-manager daemon's socket protocol: framed
// request/response messages, the three state queries, and the typed model
// the replies decode into.
package yabai

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
)

// replyErrorMarker prefixes a reply whose remainder is a failure message.
const replyErrorMarker = 0x07

// Client sends framed messages to the daemon's unix socket. Each call
// opens a fresh connection; requests are strictly serialized by the
// callers, never pipelined.
type Client struct {
	socketPath string
}

// NewClient returns a client for the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// DefaultSocketPath derives the daemon socket path from $USER.
func DefaultSocketPath() (string, error) {
	user := os.Getenv("USER")
	if user == "" {
		return "", errors.New("$USER is not set; cannot locate the yabai socket")
	}
	return fmt.Sprintf(config.SocketPathFormat, user), nil
}

// Send joins the tokens into one daemon message, sends it, and returns the
// reply text. A reply beginning with the failure marker becomes a
// *DaemonError. The reply may legitimately be empty.
func (c *Client) Send(tokens ...string) (string, error) {
	start := time.Now()
	reply, err := c.roundTrip(tokens)
	log.Info("yabai", "msg", tokens, "dur", time.Since(start), "err", err != nil)
	if err != nil {
		return "", err
	}
	if len(reply) > 0 && reply[0] == replyErrorMarker {
		return "", &DaemonError{Message: string(reply[1:])}
	}
	return string(reply), nil
}

func (c *Client) roundTrip(tokens []string) ([]byte, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		if daemonMissing() {
			return nil, fmt.Errorf("yabai does not appear to be running: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to yabai socket %s: %w", c.socketPath, err)
	}
	defer conn.Close() //nolint:errcheck

	payload := frame(tokens)
	if err := conn.SetWriteDeadline(time.Now().Add(config.SocketTimeout)); err != nil {
		return nil, fmt.Errorf("failed to arm write deadline: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to write to yabai socket: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(config.SocketTimeout)); err != nil {
		return nil, fmt.Errorf("failed to arm read deadline: %w", err)
	}
	reply, err := readAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read yabai reply: %w", err)
	}
	return reply, nil
}

// frame encodes the tokens as the daemon expects: a 32-bit little-endian
// payload length, each token NUL-terminated, and one extra NUL as the
// end-of-message mark.
func frame(tokens []string) []byte {
	var body bytes.Buffer
	for _, t := range tokens {
		body.WriteString(t)
		body.WriteByte(0)
	}
	body.WriteByte(0)

	out := make([]byte, 4, 4+body.Len())
	binary.LittleEndian.PutUint32(out, uint32(body.Len()))
	return append(out, body.Bytes()...)
}

// readAll drains the connection to EOF. The daemon answers each request
// with one burst and closes its end; reads that come back would-block are
// retried in place, everything else is surfaced.
func readAll(conn net.Conn) ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		out = append(out, buf[:n]...)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			continue
		}
		return nil, err
	}
}
