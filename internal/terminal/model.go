// Package terminal runs the admin file-tree navigator in a real terminal.
package terminal

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/filetree"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/preview"
)

// previewLines caps how much of a text file the viewer pane shows.
const previewLines = 20

type treeLoadedMsg struct {
	tree []*filetree.Node
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff3b30"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ff3b30"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5ac8fa"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	viewerStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

var icons = map[filetree.Icon]string{
	filetree.IconDirectory: "📁",
	filetree.IconCode:      "📜",
	filetree.IconData:      "🧾",
	filetree.IconImage:     "🖼",
	filetree.IconFile:      "📄",
}

// Model is the Bubble Tea model around a filetree.Navigator.
type Model struct {
	nav      *filetree.Navigator
	src      filetree.Source
	renderer *preview.Renderer
	log      *zap.Logger

	width  int
	height int
	status string
}

// New creates a model that loads its tree from src. renderer may be nil, in
// which case text files are shown by path only.
func New(src filetree.Source, renderer *preview.Renderer, log *zap.Logger) *Model {
	m := &Model{
		src:      src,
		renderer: renderer,
		log:      logging.OrNop(log),
		status:   "loading file tree…",
	}
	m.nav = filetree.NewNavigator(filetree.Hooks{
		OnOpenSection: func(path string) { m.log.Debug("open section", zap.String("path", path)) },
		OnOpenFile:    func(path string) { m.log.Debug("open file", zap.String("path", path)) },
	})
	return m
}

// Run launches the terminal navigator.
func Run(src filetree.Source, renderer *preview.Renderer, log *zap.Logger) error {
	p := tea.NewProgram(New(src, renderer, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Navigator exposes the underlying navigator.
func (m *Model) Navigator() *filetree.Navigator { return m.nav }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	src, log := m.src, m.log
	return func() tea.Msg {
		return treeLoadedMsg{tree: filetree.LoadOrEmpty(context.Background(), src, log)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case treeLoadedMsg:
		m.nav.Load(msg.tree)
		m.status = fmt.Sprintf("%d entries", filetree.Count(msg.tree))
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if k, ok := filetree.ParseKey(msg.String()); ok {
			m.nav.HandleKey(k)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.nav.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("admin@moto:~$ tree"))
	b.WriteString("\n\n")

	switch {
	case snap.State == filetree.StateLoading:
		b.WriteString(m.status)
	case len(snap.Visible) == 0:
		b.WriteString("(empty)")
	default:
		for i, row := range snap.Visible {
			b.WriteString(m.renderRow(row, snap.Expanded.Has(row.Path), i == snap.Selected))
			b.WriteString("\n")
		}
	}

	if snap.Viewer != nil {
		b.WriteString("\n")
		b.WriteString(viewerStyle.Render(m.renderViewer(*snap.Viewer)))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help(snap.State)))
	return b.String()
}

func (m *Model) renderRow(row filetree.VisibleNode, open, selected bool) string {
	marker := " "
	if row.IsDir() {
		marker = "▸"
		if open {
			marker = "▾"
		}
	}
	line := fmt.Sprintf("%s%s %s %s", strings.Repeat("  ", row.Depth), marker, icons[filetree.IconFor(row.Name, row.Type)], row.Name)
	switch {
	case selected:
		return selectedStyle.Render(line)
	case row.IsDir():
		return dirStyle.Render(line)
	default:
		return line
	}
}

func (m *Model) renderViewer(v filetree.Viewer) string {
	header := fmt.Sprintf("[%s] %s", v.Kind, v.Src)
	if v.Kind != filetree.ViewerText || m.renderer == nil {
		return header
	}
	full, err := m.renderer.Resolve(v.Src)
	if err != nil {
		return header + "\n" + err.Error()
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return header + "\nAttempting to load: " + v.Src
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "…")
	}
	return header + "\n\n" + strings.Join(lines, "\n")
}

func (m *Model) help(state filetree.State) string {
	if state == filetree.StateViewing {
		return "esc/backspace close • q quit"
	}
	return "↑/↓ move • →/← expand/collapse • enter open • home/end jump • q quit"
}
