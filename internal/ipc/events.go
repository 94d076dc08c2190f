package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/swaywsr/swaywsr/internal/tree"
	"github.com/swaywsr/swaywsr/internal/util"
)

// ErrStreamClosed reports that the compositor closed the event connection.
// This happens on compositor restart and is treated as fatal by the caller.
var ErrStreamClosed = errors.New("event stream closed")

// EventKind distinguishes the subscribed event families.
type EventKind int

const (
	WindowEventKind EventKind = iota
	WorkspaceEventKind
)

// Window change kinds relevant to renaming.
const (
	WindowNew      = "new"
	WindowClose    = "close"
	WindowMove     = "move"
	WindowTitle    = "title"
	WindowFloating = "floating"
)

// Workspace change kinds relevant to renaming.
const (
	WorkspaceEmpty  = "empty"
	WorkspaceFocus  = "focus"
	WorkspaceReload = "reload"
)

// Event is one decoded change notification.
type Event struct {
	Kind      EventKind
	Change    string
	Container *tree.Node // window events
	Current   *tree.Node // workspace events
	Old       *tree.Node // workspace events
}

// Subscribe opens a dedicated event connection and streams window and
// workspace events until context cancellation. The channel is closed when the
// compositor ends the stream.
func Subscribe(ctx context.Context, logger *util.Logger) (<-chan Event, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}
	events, err := subscribeConn(ctx, conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return events, nil
}

// subscribeConn performs the subscribe handshake and starts the reader
// goroutine; split out so tests can drive it over a pipe.
func subscribeConn(ctx context.Context, conn net.Conn, logger *util.Logger) (<-chan Event, error) {
	payload, err := json.Marshal([]string{"window", "workspace"})
	if err != nil {
		return nil, err
	}
	if err := writeMessage(conn, uint32(subscribeMessage), payload); err != nil {
		return nil, err
	}
	r := bufio.NewReader(conn)
	replyType, reply, err := readMessage(r)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if replyType != uint32(subscribeMessage) {
		return nil, fmt.Errorf("subscribe: unexpected reply type %d", replyType)
	}
	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(reply, &ack); err != nil || !ack.Success {
		return nil, fmt.Errorf("subscribe rejected: %s", reply)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			frameType, payload, err := readMessage(r)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					logger.Warnf("event stream error: %v", err)
				}
				return
			}
			ev, ok := decodeEvent(frameType, payload)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func decodeEvent(frameType uint32, payload []byte) (Event, bool) {
	switch frameType {
	case windowEventType:
		var body struct {
			Change    string     `json:"change"`
			Container *tree.Node `json:"container"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return Event{}, false
		}
		return Event{Kind: WindowEventKind, Change: body.Change, Container: body.Container}, true
	case workspaceEventType:
		var body struct {
			Change  string     `json:"change"`
			Current *tree.Node `json:"current"`
			Old     *tree.Node `json:"old"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return Event{}, false
		}
		return Event{Kind: WorkspaceEventKind, Change: body.Change, Current: body.Current, Old: body.Old}, true
	default:
		return Event{}, false
	}
}
