package filetree

import (
	"strings"
	"sync"
)

// State of a Navigator.
type State int

const (
	StateLoading State = iota
	StateReady
	StateViewing
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateViewing:
		return "viewing"
	default:
		return "unknown"
	}
}

// Key is a navigation key.
type Key string

const (
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyEnter     Key = "enter"
	KeyBackspace Key = "backspace"
	KeyHome      Key = "home"
	KeyEnd       Key = "end"
	KeyEscape    Key = "esc"
)

var keyAliases = map[string]Key{
	"up":         KeyUp,
	"arrowup":    KeyUp,
	"down":       KeyDown,
	"arrowdown":  KeyDown,
	"left":       KeyLeft,
	"arrowleft":  KeyLeft,
	"right":      KeyRight,
	"arrowright": KeyRight,
	"enter":      KeyEnter,
	"backspace":  KeyBackspace,
	"home":       KeyHome,
	"end":        KeyEnd,
	"esc":        KeyEscape,
	"escape":     KeyEscape,
}

// ParseKey accepts both browser key names (ArrowDown, Escape) and terminal
// ones (down, esc).
func ParseKey(s string) (Key, bool) {
	k, ok := keyAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Hooks observe opens. OnOpenSection receives directory paths, OnOpenFile
// file paths. They run without the navigator lock held.
type Hooks struct {
	OnOpenSection func(path string)
	OnOpenFile    func(path string)
}

// Snapshot is a consistent copy of a navigator's state for rendering.
type Snapshot struct {
	State    State
	Visible  []VisibleNode
	Selected int
	Expanded Expanded
	Viewer   *Viewer
}

// Current returns the selected row, if any.
func (s Snapshot) Current() (VisibleNode, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Visible) {
		return VisibleNode{}, false
	}
	return s.Visible[s.Selected], true
}

// Navigator is the keyboard driven tree browser:
// LOADING -> READY <-> VIEWING. It is safe for concurrent use.
type Navigator struct {
	hooks Hooks

	mu       sync.Mutex
	state    State
	tree     []*Node
	dirs     map[string]bool
	expanded Expanded
	visible  []VisibleNode
	selected int
	viewer   *Viewer
}

// NewNavigator returns a navigator waiting for its tree.
func NewNavigator(hooks Hooks) *Navigator {
	return &Navigator{
		hooks:    hooks,
		state:    StateLoading,
		dirs:     map[string]bool{},
		expanded: Expanded{},
	}
}

// Load installs tree, opens its top-level directories and enters READY.
// A nil tree is treated as empty.
func (n *Navigator) Load(tree []*Node) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.tree = tree
	n.dirs = make(map[string]bool)
	for p, node := range Index(tree) {
		if node.IsDir() {
			n.dirs[p] = true
		}
	}
	n.expanded = InitialExpanded(tree)
	n.selected = 0
	n.viewer = nil
	n.state = StateReady
	n.recompute()
}

// Snapshot copies the current state.
func (n *Navigator) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := Snapshot{
		State:    n.state,
		Visible:  append([]VisibleNode(nil), n.visible...),
		Selected: n.selected,
		Expanded: n.expanded.Clone(),
	}
	if n.viewer != nil {
		v := *n.viewer
		s.Viewer = &v
	}
	return s
}

// State returns the current state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// ToggleExpand flips path in the expanded set. Paths that are not
// directories are ignored.
func (n *Navigator) ToggleExpand(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toggle(path)
}

// Select moves the selection to index, clamped to the visible rows. Only
// acts in READY.
func (n *Navigator) Select(index int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateReady {
		return
	}
	n.selected = n.clamp(index)
}

// Open selects the row at index and opens it, the way a click does. It
// returns false when the index is out of range or the navigator is not
// READY.
func (n *Navigator) Open(index int) bool {
	n.mu.Lock()
	if n.state != StateReady || index < 0 || index >= len(n.visible) {
		n.mu.Unlock()
		return false
	}
	n.selected = index
	fire := n.open(n.visible[index])
	n.mu.Unlock()

	fire()
	return true
}

// CloseViewer leaves VIEWING.
func (n *Navigator) CloseViewer() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateViewing {
		n.viewer = nil
		n.state = StateReady
	}
}

// HandleKey applies the keyboard contract and reports whether the key did
// anything. In VIEWING only Escape and Backspace are handled; with no
// visible rows every key is a no-op.
func (n *Navigator) HandleKey(k Key) bool {
	n.mu.Lock()
	fire := func() {}
	handled := n.handleKey(k, &fire)
	n.mu.Unlock()

	fire()
	return handled
}

func (n *Navigator) handleKey(k Key, fire *func()) bool {
	switch n.state {
	case StateViewing:
		if k == KeyEscape || k == KeyBackspace {
			n.viewer = nil
			n.state = StateReady
			return true
		}
		return false
	case StateReady:
	default:
		return false
	}

	if len(n.visible) == 0 {
		return false
	}

	switch k {
	case KeyDown:
		n.selected = n.clamp(n.selected + 1)
	case KeyUp:
		n.selected = n.clamp(n.selected - 1)
	case KeyHome:
		n.selected = 0
	case KeyEnd:
		n.selected = len(n.visible) - 1
	case KeyEnter:
		*fire = n.open(n.visible[n.selected])
	case KeyRight:
		node := n.visible[n.selected]
		if node.IsDir() && !n.expanded.Has(node.Path) {
			n.toggle(node.Path)
		}
	case KeyLeft, KeyBackspace:
		n.collapse()
	default:
		return false
	}
	return true
}

// open must be called with mu held; the returned func fires the hook.
func (n *Navigator) open(node VisibleNode) func() {
	if node.IsDir() {
		n.toggle(node.Path)
		if h := n.hooks.OnOpenSection; h != nil {
			return func() { h(node.Path) }
		}
		return func() {}
	}

	kind, src := ClassifyViewer(node.Path)
	n.viewer = &Viewer{Kind: kind, Src: src, Node: node}
	n.state = StateViewing
	if h := n.hooks.OnOpenFile; h != nil {
		return func() { h(node.Path) }
	}
	return func() {}
}

func (n *Navigator) collapse() {
	node := n.visible[n.selected]
	if node.IsDir() && n.expanded.Has(node.Path) {
		n.toggle(node.Path)
		return
	}

	i := strings.LastIndex(node.Path, "/")
	if i < 0 {
		return
	}
	parent := node.Path[:i]
	for idx, v := range n.visible {
		if v.Path == parent {
			n.selected = idx
			return
		}
	}
}

func (n *Navigator) toggle(path string) {
	if !n.dirs[path] {
		return
	}
	if n.expanded.Has(path) {
		delete(n.expanded, path)
	} else {
		n.expanded[path] = struct{}{}
	}
	n.recompute()
}

func (n *Navigator) recompute() {
	n.visible = Flatten(n.tree, n.expanded)
	n.selected = n.clamp(n.selected)
}

func (n *Navigator) clamp(i int) int {
	if i >= len(n.visible) {
		i = len(n.visible) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
