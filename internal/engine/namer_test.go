package engine

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/label"
	"github.com/swaywsr/swaywsr/internal/tree"
	"github.com/swaywsr/swaywsr/internal/util"
)

func str(s string) *string { return &s }

func testLogger() *util.Logger {
	return util.NewLoggerWithWriter(util.LevelError, io.Discard)
}

func window(class string) *tree.Node {
	return &tree.Node{
		Type:             "con",
		Name:             str(class),
		WindowProperties: &tree.WindowProperties{Class: str(class), Title: str(class)},
	}
}

func workspaceNode(name string, nodes ...*tree.Node) *tree.Node {
	return &tree.Node{Type: "workspace", Name: str(name), Nodes: nodes}
}

func compiledFor(t *testing.T, cfg *config.Config) *label.Compiled {
	t.Helper()
	compiled, err := label.Compile(cfg)
	if err != nil {
		t.Fatalf("compile aliases: %v", err)
	}
	return compiled
}

func TestProcessTitlesDedupBeforeEmptyFilter(t *testing.T) {
	titles := []string{"Firefox", "Firefox", "Chrome", ""}

	got := processTitles(titles, config.Options{RemoveDuplicates: true})
	want := []string{"Firefox", "Chrome", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dedup mismatch (-want +got):\n%s", diff)
	}

	got = processTitles(titles, config.Options{RemoveDuplicates: true, NoNames: true})
	want = []string{"Firefox", "Chrome"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dedup+filter mismatch (-want +got):\n%s", diff)
	}

	// Without options the input passes through untouched.
	got = processTitles(titles, config.Options{})
	if diff := cmp.Diff(titles, got); diff != "" {
		t.Fatalf("passthrough mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatWorkspaceName(t *testing.T) {
	withEmptyLabel := config.General{EmptyLabel: "Empty"}
	tests := []struct {
		name    string
		initial string
		titles  string
		splitAt rune
		general config.General
		want    string
	}{
		{name: "space split", initial: "1", titles: " Firefox Chrome", splitAt: ' ', want: "1 Firefox Chrome"},
		{name: "colon reinserted", initial: "1", titles: " Firefox Chrome", splitAt: ':', want: "1: Firefox Chrome"},
		{name: "no titles no label", initial: "1", titles: "", splitAt: ':', want: "1"},
		{name: "no titles with label", initial: "1", titles: "", splitAt: ':', general: withEmptyLabel, want: "1 Empty"},
		{name: "empty initial", initial: "", titles: " Firefox Chrome", splitAt: ':', want: " Firefox Chrome"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := formatWorkspaceName(tc.initial, tc.titles, tc.splitAt, tc.general)
			if got != tc.want {
				t.Fatalf("formatWorkspaceName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewNameJoinsTitles(t *testing.T) {
	cfg := config.Default()
	ws := workspaceNode("1", window("Gpick"), window("XTerm"))
	got, err := newName(ws, cfg, compiledFor(t, cfg), testLogger())
	if err != nil {
		t.Fatalf("newName: %v", err)
	}
	if got != "1 Gpick | XTerm" {
		t.Fatalf("newName = %q", got)
	}
}

func TestNewNamePreservesPrefixOnly(t *testing.T) {
	cfg := config.Default()
	ws := workspaceNode("1 Stale Apps", window("Gpick"))
	got, err := newName(ws, cfg, compiledFor(t, cfg), testLogger())
	if err != nil {
		t.Fatalf("newName: %v", err)
	}
	if got != "1 Gpick" {
		t.Fatalf("newName = %q, want stale suffix replaced", got)
	}
}

func TestNewNameErrorsOnMissingWorkspaceName(t *testing.T) {
	cfg := config.Default()
	ws := &tree.Node{Type: "workspace", ID: 42}
	if _, err := newName(ws, cfg, compiledFor(t, cfg), testLogger()); err == nil {
		t.Fatalf("expected error for unnamed workspace")
	}
}

func TestNewNameSkipsUnresolvableWindows(t *testing.T) {
	cfg := config.Default()
	blank := &tree.Node{Type: "con", WindowProperties: &tree.WindowProperties{}}
	ws := workspaceNode("2", window("Firefox"), blank)
	got, err := newName(ws, cfg, compiledFor(t, cfg), testLogger())
	if err != nil {
		t.Fatalf("newName: %v", err)
	}
	if got != "2 Firefox" {
		t.Fatalf("newName = %q, want unresolvable window dropped", got)
	}
}
