package filetree

import "sort"

// VisibleNode is a tree entry that is currently on screen.
type VisibleNode struct {
	Name  string   `json:"name"`
	Type  NodeType `json:"type"`
	Path  string   `json:"path"`
	Depth int      `json:"depth"`
}

// IsDir reports whether v is a directory row.
func (v VisibleNode) IsDir() bool { return v.Type == TypeDirectory }

// Expanded is the set of open directory paths.
type Expanded map[string]struct{}

// Has reports whether path is open.
func (e Expanded) Has(path string) bool {
	_, ok := e[path]
	return ok
}

// Paths returns the open paths in sorted order.
func (e Expanded) Paths() []string {
	out := make([]string, 0, len(e))
	for p := range e {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone copies the set.
func (e Expanded) Clone() Expanded {
	out := make(Expanded, len(e))
	for p := range e {
		out[p] = struct{}{}
	}
	return out
}

// InitialExpanded opens every top-level directory.
func InitialExpanded(tree []*Node) Expanded {
	e := make(Expanded)
	for _, n := range tree {
		if n.IsDir() {
			e[n.Path] = struct{}{}
		}
	}
	return e
}

// Flatten walks tree depth first and returns the rows that are visible:
// a node's children are included only when it is a directory whose path is
// in expanded.
func Flatten(tree []*Node, expanded Expanded) []VisibleNode {
	var out []VisibleNode
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			out = append(out, VisibleNode{Name: n.Name, Type: n.Type, Path: n.Path, Depth: depth})
			if n.IsDir() && expanded.Has(n.Path) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(tree, 0)
	return out
}

// Index maps every node path in tree to its node.
func Index(tree []*Node) map[string]*Node {
	idx := make(map[string]*Node)
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			idx[n.Path] = n
			walk(n.Children)
		}
	}
	walk(tree)
	return idx
}

// Count returns the number of nodes in tree.
func Count(tree []*Node) int {
	n := 0
	for _, node := range tree {
		n += 1 + Count(node.Children)
	}
	return n
}
