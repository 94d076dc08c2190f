// Package ipc speaks the i3/sway IPC protocol over the compositor's unix
// socket: a request/response connection for tree reads and commands, and a
// separate subscription connection delivering change events.
package ipc

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/swaywsr/swaywsr/internal/tree"
)

// magic prefixes every frame in both directions.
const magic = "i3-ipc"

type messageType uint32

const (
	runCommandMessage messageType = 0
	subscribeMessage  messageType = 2
	getTreeMessage    messageType = 4
)

// Event frames reuse the reply type field with the high bit set.
const (
	eventFlag          = uint32(0x80000000)
	workspaceEventType = eventFlag | 0
	windowEventType    = eventFlag | 3
)

// SocketPath locates the compositor control socket, preferring sway.
func SocketPath() (string, error) {
	if path := os.Getenv("SWAYSOCK"); path != "" {
		return path, nil
	}
	if path := os.Getenv("I3SOCK"); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("neither SWAYSOCK nor I3SOCK is set")
}

// Client is a single request/response IPC connection. It is owned by the
// sync loop and must not be shared across goroutines.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Connect dials the compositor control socket.
func Connect() (*Client, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect control socket: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection; used directly by tests.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(t messageType, payload []byte) ([]byte, error) {
	if err := writeMessage(c.conn, uint32(t), payload); err != nil {
		return nil, err
	}
	for {
		replyType, reply, err := readMessage(c.r)
		if err != nil {
			return nil, err
		}
		// Skip stray event frames in case the compositor multiplexes.
		if replyType&eventFlag != 0 {
			continue
		}
		if replyType != uint32(t) {
			return nil, fmt.Errorf("unexpected reply type %d for request %d", replyType, t)
		}
		return reply, nil
	}
}

// Tree fetches the current node tree.
func (c *Client) Tree() (*tree.Node, error) {
	reply, err := c.roundTrip(getTreeMessage, nil)
	if err != nil {
		return nil, fmt.Errorf("get_tree: %w", err)
	}
	var root tree.Node
	if err := json.Unmarshal(reply, &root); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return &root, nil
}

// commandResult is one entry of a run_command reply.
type commandResult struct {
	Success    bool   `json:"success"`
	ParseError bool   `json:"parse_error"`
	Error      string `json:"error"`
}

// Command runs a compositor command verbatim and surfaces the first failure
// the compositor reports.
func (c *Client) Command(command string) error {
	reply, err := c.roundTrip(runCommandMessage, []byte(command))
	if err != nil {
		return fmt.Errorf("run_command: %w", err)
	}
	var results []commandResult
	if err := json.Unmarshal(reply, &results); err != nil {
		return fmt.Errorf("decode run_command reply: %w", err)
	}
	for _, res := range results {
		if !res.Success {
			if res.Error != "" {
				return fmt.Errorf("command %q failed: %s", command, res.Error)
			}
			return fmt.Errorf("command %q failed", command)
		}
	}
	return nil
}

func writeMessage(w io.Writer, t uint32, payload []byte) error {
	buf := make([]byte, len(magic)+8+len(payload))
	copy(buf, magic)
	binary.LittleEndian.PutUint32(buf[len(magic):], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[len(magic)+4:], t)
	copy(buf[len(magic)+8:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func readMessage(r *bufio.Reader) (uint32, []byte, error) {
	header := make([]byte, len(magic)+8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.HasPrefix(string(header), magic) {
		return 0, nil, fmt.Errorf("bad magic %q", header[:len(magic)])
	}
	length := binary.LittleEndian.Uint32(header[len(magic):])
	t := binary.LittleEndian.Uint32(header[len(magic)+4:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read payload: %w", err)
	}
	return t, payload, nil
}
