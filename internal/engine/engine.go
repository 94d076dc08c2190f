// Package engine drives workspace renaming: it walks the compositor tree,
// recomputes every workspace name, issues rename commands for the ones that
// changed, and repeats on each relevant compositor event.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/ipc"
	"github.com/swaywsr/swaywsr/internal/label"
	"github.com/swaywsr/swaywsr/internal/tree"
	"github.com/swaywsr/swaywsr/internal/util"
)

// ErrCompositorReload signals that the compositor reloaded its own
// configuration. The process exits so the compositor can start a fresh
// instance.
var ErrCompositorReload = errors.New("compositor configuration reloaded")

// Conn is the command connection the engine owns exclusively.
type Conn interface {
	Tree() (*tree.Node, error)
	Command(command string) error
}

var _ Conn = (*ipc.Client)(nil)

type subscribeFunc func(ctx context.Context, logger *util.Logger) (<-chan ipc.Event, error)

// Engine ties together the tree walk, title derivation, and the IPC
// connection. Events are processed strictly one at a time; the mutex only
// guards the config swap performed by the reloader goroutine.
type Engine struct {
	conn   Conn
	logger *util.Logger
	dryRun bool

	mu       sync.Mutex
	cfg      *config.Config
	compiled *label.Compiled

	subscribe subscribeFunc
}

// New creates an engine. The compiled alias set must originate from cfg.
func New(conn Conn, logger *util.Logger, cfg *config.Config, compiled *label.Compiled, dryRun bool) *Engine {
	return &Engine{
		conn:      conn,
		logger:    logger,
		dryRun:    dryRun,
		cfg:       cfg,
		compiled:  compiled,
		subscribe: ipc.Subscribe,
	}
}

// UpdateConfig swaps in a reloaded configuration and its compiled aliases.
// The next sync pass picks them up.
func (e *Engine) UpdateConfig(cfg *config.Config, compiled *label.Compiled) {
	e.mu.Lock()
	e.cfg = cfg
	e.compiled = compiled
	e.mu.Unlock()
}

func (e *Engine) snapshot() (*config.Config, *label.Compiled) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg, e.compiled
}

// Sync performs one full pass: fetch the tree, recompute every workspace
// name, and rename the ones that changed. A pass over an unchanged tree
// issues no commands. focus marks the pass as triggered by a workspace focus
// change, which enables the focus-fix workaround when configured.
func (e *Engine) Sync(ctx context.Context, focus bool) error {
	cfg, compiled := e.snapshot()
	root, err := e.conn.Tree()
	if err != nil {
		return fmt.Errorf("fetch tree: %w", err)
	}
	for _, ws := range tree.Workspaces(root) {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := newName(ws, cfg, compiled, e.logger)
		if err != nil {
			e.logger.Errorf("workspace skipped: %v", err)
			continue
		}
		old := *ws.Name
		if old == name {
			continue
		}
		if focus && cfg.Options.FocusFix {
			// Renaming a focused workspace makes some compositors lose the
			// floating-window-to-output association; refocusing it first
			// keeps them attached.
			if err := e.command(fmt.Sprintf("workspace \"%s\"", old)); err != nil {
				return err
			}
		}
		rename := fmt.Sprintf("rename workspace \"%s\" to \"%s\"", old, name)
		if err := e.command(rename); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) command(command string) error {
	if e.dryRun {
		e.logger.Infof("dry-run: %s", command)
		return nil
	}
	e.logger.Debugf("command: %s", command)
	return e.conn.Command(command)
}

// Run performs an initial sync and then processes compositor events until
// the context is cancelled, the event stream ends, or the compositor signals
// a configuration reload. Per-event sync failures are logged and the loop
// continues.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Sync(ctx, false); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	events, err := e.subscribe(ctx, e.logger)
	if err != nil {
		return err
	}
	e.logger.Infof("listening for compositor events")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ipc.ErrStreamClosed
			}
			if err := e.handleEvent(ctx, ev); err != nil {
				if errors.Is(err, ErrCompositorReload) || ctx.Err() != nil {
					return err
				}
				e.logger.Errorf("handling %s event: %v", ev.Change, err)
			}
		}
	}
}

// handleEvent maps one notification to at most one sync pass. Unlisted
// change kinds are ignored.
func (e *Engine) handleEvent(ctx context.Context, ev ipc.Event) error {
	switch ev.Kind {
	case ipc.WindowEventKind:
		switch ev.Change {
		case ipc.WindowNew, ipc.WindowClose, ipc.WindowMove, ipc.WindowTitle, ipc.WindowFloating:
			e.logger.Debugf("window event: %s", ev.Change)
			return e.Sync(ctx, false)
		}
	case ipc.WorkspaceEventKind:
		switch ev.Change {
		case ipc.WorkspaceReload:
			return ErrCompositorReload
		case ipc.WorkspaceEmpty:
			e.logger.Debugf("workspace event: %s", ev.Change)
			return e.Sync(ctx, false)
		case ipc.WorkspaceFocus:
			e.logger.Debugf("workspace event: %s", ev.Change)
			return e.Sync(ctx, true)
		}
	}
	return nil
}
