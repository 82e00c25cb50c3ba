package filetree

import (
	"path"
	"strings"
)

// ViewerKind selects how an opened file is displayed.
type ViewerKind string

const (
	ViewerImage ViewerKind = "image"
	ViewerVideo ViewerKind = "video"
	ViewerPDF   ViewerKind = "pdf"
	ViewerText  ViewerKind = "text"
)

// Icon is the rendering class of a row.
type Icon string

const (
	IconDirectory Icon = "directory"
	IconCode      Icon = "code"
	IconData      Icon = "data"
	IconImage     Icon = "image"
	IconFile      Icon = "file"
)

var (
	imageExts = set("png", "jpg", "jpeg", "gif", "svg", "webp", "avif")
	videoExts = set("mp4", "webm", "ogg")
	codeExts  = set("js", "jsx", "ts", "tsx", "py", "java", "c", "cpp", "css", "html", "go")
	dataExts  = set("json", "yml", "yaml", "xml")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Viewer is the open file modal.
type Viewer struct {
	Kind ViewerKind  `json:"kind"`
	Src  string      `json:"src"`
	Node VisibleNode `json:"node"`
}

// ClassifyViewer resolves the viewer kind by extension, falling back to
// text, and the source URL: the path with a leading slash.
func ClassifyViewer(p string) (ViewerKind, string) {
	src := p
	if !strings.HasPrefix(src, "/") {
		src = "/" + src
	}
	e := ext(p)
	switch {
	case imageExts[e]:
		return ViewerImage, src
	case videoExts[e]:
		return ViewerVideo, src
	case e == "pdf":
		return ViewerPDF, src
	default:
		return ViewerText, src
	}
}

// IconFor classifies a row for rendering.
func IconFor(name string, t NodeType) Icon {
	if t == TypeDirectory || t == typeDirAlias {
		return IconDirectory
	}
	e := ext(name)
	switch {
	case codeExts[e]:
		return IconCode
	case dataExts[e]:
		return IconData
	case imageExts[e]:
		return IconImage
	default:
		return IconFile
	}
}
