// Package tree models the node hierarchy reported by i3 and sway over IPC and
// extracts the pieces workspace renaming cares about: workspace nodes and the
// window property sets beneath them.
package tree

// WindowProperties is the per-window attribute set used to derive a display
// label. Fields are pointers because the compositor omits attributes it does
// not know; sway-native windows carry only an app_id and a title.
type WindowProperties struct {
	Class    *string `json:"class"`
	Instance *string `json:"instance"`
	Title    *string `json:"title"`
	AppID    *string `json:"-"`
}

// Node is one entry in the compositor tree (root, output, container,
// workspace, or window).
type Node struct {
	ID               int64             `json:"id"`
	Type             string            `json:"type"`
	Name             *string           `json:"name"`
	AppID            *string           `json:"app_id"`
	WindowProperties *WindowProperties `json:"window_properties"`
	Nodes            []*Node           `json:"nodes"`
	FloatingNodes    []*Node           `json:"floating_nodes"`
}

// reservedWorkspaces are scratchpad workspaces that must never be renamed.
var reservedWorkspaces = map[string]struct{}{
	"__i3_scratch":   {},
	"__sway_scratch": {},
}

// Workspaces returns every workspace node in the tree, in traversal order,
// excluding scratchpad workspaces. i3 nests workspaces under a per-output
// content container while sway parents them directly under outputs, so the
// walk descends until it hits workspace-typed nodes rather than assuming a
// fixed depth. Unnamed workspaces are kept; callers treat the missing name as
// a per-workspace error.
func Workspaces(root *Node) []*Node {
	var workspaces []*Node
	pending := []*Node{root}
	for len(pending) > 0 {
		n := pending[0]
		pending = pending[1:]
		for _, child := range n.Nodes {
			if child.Type != "workspace" {
				pending = append(pending, child)
				continue
			}
			if child.Name != nil {
				if _, reserved := reservedWorkspaces[*child.Name]; reserved {
					continue
				}
			}
			workspaces = append(workspaces, child)
		}
	}
	return workspaces
}

// CollectWindowProperties flattens the property sets of every window below
// the workspace, tiled children first, floating children appended after.
func (n *Node) CollectWindowProperties() []WindowProperties {
	props := collectProperties(n.Nodes)
	return append(props, collectProperties(n.FloatingNodes)...)
}

// collectProperties walks the given subtrees with an explicit worklist; the
// compositor tree is acyclic but floating containers can nest deeply.
func collectProperties(roots []*Node) []WindowProperties {
	var props []WindowProperties
	pending := make([]*Node, len(roots))
	copy(pending, roots)
	for len(pending) > 0 {
		n := pending[0]
		pending = pending[1:]
		pending = append(pending, n.Nodes...)
		pending = append(pending, n.FloatingNodes...)
		switch {
		case n.WindowProperties != nil:
			p := *n.WindowProperties
			if p.AppID == nil {
				p.AppID = n.AppID
			}
			props = append(props, p)
		case n.AppID != nil:
			// sway-native window: no X11 properties, the node name is the title.
			props = append(props, WindowProperties{Title: n.Name, AppID: n.AppID})
		}
	}
	return props
}
