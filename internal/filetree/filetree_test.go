package filetree

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleTree = `[
	{"name": "projects", "type": "directory", "children": [
		{"name": "honda", "type": "dir", "children": [
			{"name": "cbr.png"},
			{"name": "notes.md", "type": "file"}
		]},
		{"name": "main.go"}
	]},
	{"name": "resume.pdf", "type": "file", "path": "resume.pdf"},
	{"name": "videos", "children": [
		{"name": "ride.mp4"}
	]}
]`

func mustParse(t *testing.T, doc string) []*Node {
	t.Helper()
	tree, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func paths(rows []VisibleNode) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Path
	}
	return out
}

func TestParseDerivesPathsAndTypes(t *testing.T) {
	idx := Index(mustParse(t, sampleTree))

	tests := []struct {
		path string
		typ  NodeType
	}{
		{"projects", TypeDirectory},
		{"projects/honda", TypeDirectory},
		{"projects/honda/cbr.png", TypeFile},
		{"projects/honda/notes.md", TypeFile},
		{"projects/main.go", TypeFile},
		{"resume.pdf", TypeFile},
		{"videos", TypeDirectory},
		{"videos/ride.mp4", TypeFile},
	}
	for _, tt := range tests {
		n, ok := idx[tt.path]
		if !ok {
			t.Errorf("path %q missing", tt.path)
			continue
		}
		if n.Type != tt.typ {
			t.Errorf("%q type = %q, want %q", tt.path, n.Type, tt.typ)
		}
	}
	if len(idx) != len(tests) {
		t.Errorf("indexed %d nodes, want %d", len(idx), len(tests))
	}
}

func TestParseDocumentShapes(t *testing.T) {
	tests := []struct {
		doc   string
		nodes int
		err   bool
	}{
		{`[]`, 0, false},
		{`{"children": [{"name": "a.txt"}]}`, 1, false},
		{`{"name": "root"}`, 0, false},
		{`  [{"name": "d", "children": []}]`, 1, false},
		{``, 0, true},
		{`null`, 0, true},
		{`"tree"`, 0, true},
		{`[{"name": 1}]`, 0, true},
		{`{oops`, 0, true},
	}
	for _, tt := range tests {
		tree, err := Parse([]byte(tt.doc))
		if (err != nil) != tt.err {
			t.Errorf("Parse(%q) err = %v, want err %v", tt.doc, err, tt.err)
			continue
		}
		if err == nil && Count(tree) != tt.nodes {
			t.Errorf("Parse(%q) nodes = %d, want %d", tt.doc, Count(tree), tt.nodes)
		}
	}
}

func TestFlattenVisibility(t *testing.T) {
	tree := mustParse(t, sampleTree)

	got := paths(Flatten(tree, InitialExpanded(tree)))
	want := []string{"projects", "projects/honda", "projects/main.go", "resume.pdf", "videos", "videos/ride.mp4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("initial rows = %v, want %v", got, want)
	}

	all := Expanded{"projects": {}, "projects/honda": {}, "videos": {}}
	rows := Flatten(tree, all)
	for _, r := range rows {
		if r.Path == "projects/honda/notes.md" && r.Depth != 2 {
			t.Errorf("notes.md depth = %d, want 2", r.Depth)
		}
	}

	// A child of an expanded directory stays hidden while its ancestor is closed.
	closed := Expanded{"projects/honda": {}}
	got = paths(Flatten(tree, closed))
	want = []string{"projects", "resume.pdf", "videos"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows with closed ancestor = %v, want %v", got, want)
	}

	if rows := Flatten(nil, all); len(rows) != 0 {
		t.Errorf("Flatten(nil) = %v", rows)
	}
}

func TestCollapseRemovesSubtreeAndKeepsSelectionInBounds(t *testing.T) {
	nav := NewNavigator(Hooks{})
	nav.Load(mustParse(t, sampleTree))
	nav.ToggleExpand("projects/honda")

	nav.HandleKey(KeyEnd)
	if s := nav.Snapshot(); len(s.Visible) != 8 || s.Selected != 7 {
		t.Fatalf("fully expanded: %d rows, selected %d", len(s.Visible), s.Selected)
	}

	nav.ToggleExpand("projects")
	s := nav.Snapshot()
	for _, r := range s.Visible {
		if strings.HasPrefix(r.Path, "projects/") {
			t.Errorf("row %q survived collapsing its ancestor", r.Path)
		}
	}
	if len(s.Visible) != 4 {
		t.Errorf("rows after collapse = %v", paths(s.Visible))
	}
	if s.Selected < 0 || s.Selected >= len(s.Visible) {
		t.Errorf("selected %d out of bounds for %d rows", s.Selected, len(s.Visible))
	}
}

func TestDownClampsAtLastRow(t *testing.T) {
	nav := NewNavigator(Hooks{})
	nav.Load(mustParse(t, sampleTree))
	rows := len(nav.Snapshot().Visible)

	for n := rows; n <= rows+3; n++ {
		nav.HandleKey(KeyHome)
		for i := 0; i < n; i++ {
			nav.HandleKey(KeyDown)
		}
		if got := nav.Snapshot().Selected; got != rows-1 {
			t.Errorf("after %d downs selected = %d, want %d", n, got, rows-1)
		}
	}

	for i := 0; i < rows+2; i++ {
		nav.HandleKey(KeyUp)
	}
	if got := nav.Snapshot().Selected; got != 0 {
		t.Errorf("after ups selected = %d, want 0", got)
	}
}

func TestEmptyTreeKeysAreNoops(t *testing.T) {
	nav := NewNavigator(Hooks{})
	if nav.HandleKey(KeyDown) {
		t.Error("key handled while loading")
	}
	nav.Load(mustParse(t, `[]`))

	if nav.State() != StateReady {
		t.Fatalf("state = %v, want ready", nav.State())
	}
	for _, k := range []Key{KeyDown, KeyUp, KeyEnter, KeyLeft, KeyRight, KeyBackspace, KeyHome, KeyEnd, KeyEscape} {
		if nav.HandleKey(k) {
			t.Errorf("key %q handled on empty tree", k)
		}
	}
	if nav.Open(0) {
		t.Error("Open(0) succeeded on empty tree")
	}
	s := nav.Snapshot()
	if len(s.Visible) != 0 || s.Selected != 0 || s.Viewer != nil {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestKeyboardContract(t *testing.T) {
	var sections, files []string
	nav := NewNavigator(Hooks{
		OnOpenSection: func(p string) { sections = append(sections, p) },
		OnOpenFile:    func(p string) { files = append(files, p) },
	})
	nav.Load(mustParse(t, sampleTree))

	// projects/honda is collapsed; Right opens it, Right again does nothing more.
	nav.HandleKey(KeyDown)
	nav.HandleKey(KeyRight)
	if !nav.Snapshot().Expanded.Has("projects/honda") {
		t.Fatal("Right did not expand projects/honda")
	}
	nav.HandleKey(KeyRight)
	if !nav.Snapshot().Expanded.Has("projects/honda") {
		t.Fatal("Right collapsed an expanded directory")
	}

	// Left on a file moves to its parent.
	nav.HandleKey(KeyDown)
	if cur, _ := nav.Snapshot().Current(); cur.Path != "projects/honda/cbr.png" {
		t.Fatalf("selected %q", cur.Path)
	}
	nav.HandleKey(KeyLeft)
	if cur, _ := nav.Snapshot().Current(); cur.Path != "projects/honda" {
		t.Fatalf("Left from file selected %q, want parent", cur.Path)
	}

	// Backspace on an expanded directory collapses it.
	nav.HandleKey(KeyBackspace)
	if nav.Snapshot().Expanded.Has("projects/honda") {
		t.Fatal("Backspace did not collapse projects/honda")
	}

	// Enter on a directory toggles it without changing selection or state.
	nav.HandleKey(KeyEnter)
	s := nav.Snapshot()
	if !s.Expanded.Has("projects/honda") || s.State != StateReady || s.Selected != 1 {
		t.Fatalf("Enter on directory: %+v", s)
	}

	// Left on a top-level file has no parent row; selection stays.
	nav.Select(5)
	nav.HandleKey(KeyLeft)
	if cur, _ := nav.Snapshot().Current(); cur.Path != "resume.pdf" {
		t.Fatalf("Left on top-level file moved to %q", cur.Path)
	}

	// Enter on a file opens the viewer; only Esc/Backspace act while viewing.
	nav.HandleKey(KeyEnter)
	s = nav.Snapshot()
	if s.State != StateViewing || s.Viewer == nil || s.Viewer.Kind != ViewerPDF || s.Viewer.Src != "/resume.pdf" {
		t.Fatalf("viewer = %+v state %v", s.Viewer, s.State)
	}
	if nav.HandleKey(KeyDown) || nav.HandleKey(KeyEnter) {
		t.Error("navigation key handled while viewing")
	}
	if got := nav.Snapshot().Selected; got != 5 {
		t.Errorf("selection moved while viewing: %d", got)
	}
	if !nav.HandleKey(KeyEscape) {
		t.Error("Escape not handled while viewing")
	}
	if s := nav.Snapshot(); s.State != StateReady || s.Viewer != nil {
		t.Errorf("after Escape: %+v", s)
	}

	if !reflect.DeepEqual(sections, []string{"projects/honda"}) {
		t.Errorf("section hooks = %v", sections)
	}
	if !reflect.DeepEqual(files, []string{"resume.pdf"}) {
		t.Errorf("file hooks = %v", files)
	}
}

func TestOpenByIndex(t *testing.T) {
	nav := NewNavigator(Hooks{})
	nav.Load(mustParse(t, sampleTree))

	if nav.Open(99) || nav.Open(-1) {
		t.Error("Open accepted an out of range index")
	}
	if !nav.Open(5) {
		t.Fatal("Open(5) failed")
	}
	s := nav.Snapshot()
	if s.Selected != 5 || s.Viewer == nil || s.Viewer.Kind != ViewerVideo {
		t.Errorf("after Open(5): %+v", s)
	}
	if nav.Open(0) {
		t.Error("Open succeeded while viewing")
	}
	nav.CloseViewer()
	if nav.State() != StateReady {
		t.Errorf("state = %v", nav.State())
	}
}

func TestToggleExpandIgnoresFiles(t *testing.T) {
	nav := NewNavigator(Hooks{})
	nav.Load(mustParse(t, sampleTree))
	nav.ToggleExpand("resume.pdf")
	nav.ToggleExpand("missing")
	if e := nav.Snapshot().Expanded; e.Has("resume.pdf") || e.Has("missing") {
		t.Errorf("expanded = %v", e.Paths())
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"ArrowDown", KeyDown, true},
		{"down", KeyDown, true},
		{"Escape", KeyEscape, true},
		{"esc", KeyEscape, true},
		{"Backspace", KeyBackspace, true},
		{"Tab", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKey(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKey(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestClassifyViewer(t *testing.T) {
	tests := []struct {
		path string
		kind ViewerKind
		src  string
	}{
		{"img/a.PNG", ViewerImage, "/img/a.PNG"},
		{"/img/b.avif", ViewerImage, "/img/b.avif"},
		{"clip.webm", ViewerVideo, "/clip.webm"},
		{"doc.pdf", ViewerPDF, "/doc.pdf"},
		{"main.go", ViewerText, "/main.go"},
		{"Makefile", ViewerText, "/Makefile"},
	}
	for _, tt := range tests {
		kind, src := ClassifyViewer(tt.path)
		if kind != tt.kind || src != tt.src {
			t.Errorf("ClassifyViewer(%q) = %q, %q", tt.path, kind, src)
		}
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		name string
		typ  NodeType
		want Icon
	}{
		{"src", TypeDirectory, IconDirectory},
		{"app.jsx", TypeFile, IconCode},
		{"config.yaml", TypeFile, IconData},
		{"logo.svg", TypeFile, IconImage},
		{"resume.pdf", TypeFile, IconFile},
	}
	for _, tt := range tests {
		if got := IconFor(tt.name, tt.typ); got != tt.want {
			t.Errorf("IconFor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file-tree.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleTree))
		case "/broken.json":
			w.Write([]byte(`{oops`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	tree, err := HTTPSource{URL: srv.URL + "/file-tree.json"}.Load(ctx)
	if err != nil || Count(tree) != 8 {
		t.Fatalf("Load = %d nodes, %v", Count(tree), err)
	}

	for _, p := range []string{"/missing.json", "/broken.json"} {
		if _, err := (HTTPSource{URL: srv.URL + p}).Load(ctx); err == nil {
			t.Errorf("Load(%s) succeeded", p)
		}
		tree := LoadOrEmpty(ctx, HTTPSource{URL: srv.URL + p}, nil)
		if tree == nil || len(tree) != 0 {
			t.Errorf("LoadOrEmpty(%s) = %v, want empty", p, tree)
		}
	}
}

func TestHTTPSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src := HTTPSource{URL: srv.URL + "/file-tree.json", Timeout: 20 * time.Millisecond}
	start := time.Now()
	tree := LoadOrEmpty(context.Background(), src, nil)
	if tree == nil || len(tree) != 0 {
		t.Errorf("LoadOrEmpty = %v, want empty", tree)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("slow fetch took %v", elapsed)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(p, []byte(`{"children": [{"name": "a", "children": [{"name": "b.txt"}]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := FileSource{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := Index(tree)["a/b.txt"]; !ok {
		t.Errorf("a/b.txt missing from %+v", tree)
	}
	if tree := LoadOrEmpty(context.Background(), FileSource{Path: filepath.Join(dir, "nope.json")}, nil); len(tree) != 0 {
		t.Errorf("missing file gave %v", tree)
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"b.md", "A.txt", "docs/guide.md", "docs/img/x.png", "drafts/wip.md", "site.db"} {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tree, err := Build(root, []string{"drafts", "**/*.png"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := paths(Flatten(tree, Expanded{"docs": {}, "docs/img": {}}))
	want := []string{"docs", "docs/img", "docs/guide.md", "A.txt", "b.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("built rows = %v, want %v", got, want)
	}

	if _, err := Build(filepath.Join(root, "b.md"), nil); err == nil {
		t.Error("Build on a file succeeded")
	}
}

func TestExcluded(t *testing.T) {
	patterns := []string{"node_modules", "**/*.log", "secret/**"}
	tests := []struct {
		rel  string
		want bool
	}{
		{"node_modules", true},
		{"web/node_modules", true},
		{"logs/app.log", true},
		{"secret/keys/a.pem", true},
		{"src/main.go", false},
	}
	for _, tt := range tests {
		if got := Excluded(tt.rel, patterns); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
