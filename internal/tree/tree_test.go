package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func str(s string) *string { return &s }

func window(class, instance, title string) *Node {
	return &Node{
		Type: "con",
		Name: str(title),
		WindowProperties: &WindowProperties{
			Class:    str(class),
			Instance: str(instance),
			Title:    str(title),
		},
	}
}

func waylandWindow(appID, title string) *Node {
	return &Node{Type: "con", Name: str(title), AppID: str(appID)}
}

func workspace(name string, nodes ...*Node) *Node {
	return &Node{Type: "workspace", Name: str(name), Nodes: nodes}
}

func TestWorkspacesI3Shape(t *testing.T) {
	root := &Node{
		Type: "root",
		Nodes: []*Node{{
			Type: "output",
			Name: str("DP-1"),
			Nodes: []*Node{{
				Type: "con",
				Name: str("content"),
				Nodes: []*Node{
					workspace("1"),
					workspace("2"),
				},
			}},
		}},
	}
	got := Workspaces(root)
	if len(got) != 2 {
		t.Fatalf("got %d workspaces, want 2", len(got))
	}
	if *got[0].Name != "1" || *got[1].Name != "2" {
		t.Fatalf("workspace order = %q, %q", *got[0].Name, *got[1].Name)
	}
}

func TestWorkspacesSwayShape(t *testing.T) {
	root := &Node{
		Type: "root",
		Nodes: []*Node{{
			Type:  "output",
			Name:  str("eDP-1"),
			Nodes: []*Node{workspace("1"), workspace("3")},
		}},
	}
	got := Workspaces(root)
	if len(got) != 2 {
		t.Fatalf("got %d workspaces, want 2", len(got))
	}
}

func TestWorkspacesExcludesScratchpad(t *testing.T) {
	root := &Node{
		Type: "root",
		Nodes: []*Node{
			{
				Type:  "output",
				Name:  str("__i3"),
				Nodes: []*Node{{Type: "con", Nodes: []*Node{workspace("__i3_scratch", window("Spotify", "spotify", "Spotify"))}}},
			},
			{
				Type:  "output",
				Name:  str("eDP-1"),
				Nodes: []*Node{workspace("__sway_scratch"), workspace("1")},
			},
		},
	}
	got := Workspaces(root)
	if len(got) != 1 || *got[0].Name != "1" {
		t.Fatalf("expected only workspace 1, got %d workspaces", len(got))
	}
}

func TestWorkspacesKeepsUnnamed(t *testing.T) {
	root := &Node{
		Type:  "root",
		Nodes: []*Node{{Type: "output", Nodes: []*Node{{Type: "workspace"}}}},
	}
	if got := Workspaces(root); len(got) != 1 {
		t.Fatalf("expected unnamed workspace to be kept, got %d", len(got))
	}
}

func TestCollectWindowPropertiesFloatingAppendedLast(t *testing.T) {
	ws := workspace("1",
		&Node{Type: "con", Nodes: []*Node{
			window("Firefox", "Navigator", "Mozilla Firefox"),
			window("URxvt", "urxvt", "zsh"),
		}},
	)
	ws.FloatingNodes = []*Node{
		{Type: "floating_con", Nodes: []*Node{window("Gpick", "gpick", "Gpick")}},
	}
	got := ws.CollectWindowProperties()
	classes := make([]string, 0, len(got))
	for _, p := range got {
		classes = append(classes, *p.Class)
	}
	want := []string{"Firefox", "URxvt", "Gpick"}
	if diff := cmp.Diff(want, classes); diff != "" {
		t.Fatalf("window order mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectWindowPropertiesWaylandNodes(t *testing.T) {
	ws := workspace("1",
		waylandWindow("org.mozilla.firefox", "Mozilla Firefox"),
		&Node{Type: "con"}, // split container without identity contributes nothing
	)
	got := ws.CollectWindowProperties()
	if len(got) != 1 {
		t.Fatalf("got %d property sets, want 1", len(got))
	}
	if got[0].Class != nil {
		t.Fatalf("wayland window should have no class")
	}
	if got[0].AppID == nil || *got[0].AppID != "org.mozilla.firefox" {
		t.Fatalf("app_id not carried through")
	}
	if got[0].Title == nil || *got[0].Title != "Mozilla Firefox" {
		t.Fatalf("node name should become the title")
	}
}

func TestCollectWindowPropertiesDeepNesting(t *testing.T) {
	inner := window("Alacritty", "Alacritty", "vim")
	nested := &Node{Type: "con", Nodes: []*Node{{Type: "con", Nodes: []*Node{inner}}}}
	ws := workspace("2", nested)
	got := ws.CollectWindowProperties()
	if len(got) != 1 || *got[0].Class != "Alacritty" {
		t.Fatalf("expected nested window to be collected, got %+v", got)
	}
}
