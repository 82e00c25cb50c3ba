// Package preview renders files from the content directory for the admin
// terminal's text viewer.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultMaxFileSize is the largest file that is rendered (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

var (
	ErrOutsideRoot = errors.New("path escapes the content directory")
	ErrTooLarge    = errors.New("file too large to preview")
	ErrBinary      = errors.New("file is not text")
)

// Languages maps extensions to highlighter lexer names. Files with other
// extensions are shown as plain text.
var Languages = map[string]string{
	"go":   "go",
	"js":   "javascript",
	"jsx":  "react",
	"ts":   "typescript",
	"tsx":  "tsx",
	"py":   "python",
	"java": "java",
	"c":    "c",
	"cpp":  "cpp",
	"css":  "css",
	"html": "html",
	"json": "json",
	"yml":  "yaml",
	"yaml": "yaml",
	"xml":  "xml",
	"toml": "toml",
	"sh":   "bash",
	"sql":  "sql",
}

// Renderer turns files under Root into HTML.
type Renderer struct {
	root    string
	maxSize int64
	md      goldmark.Markdown
}

// New creates a renderer for the directory root.
func New(root string) (*Renderer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("preview: resolve root: %w", err)
	}
	return &Renderer{
		root:    abs,
		maxSize: DefaultMaxFileSize,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("monokai"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}, nil
}

// Root returns the absolute content directory.
func (r *Renderer) Root() string { return r.root }

// Resolve maps a viewer source such as "/docs/notes.md" to a path on disk.
// Sources that would leave the root, directly or through a symlink, fail
// with ErrOutsideRoot.
func (r *Renderer) Resolve(src string) (string, error) {
	clean := path.Clean(strings.TrimLeft(strings.ReplaceAll(src, "\\", "/"), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, src)
	}
	full := filepath.Join(r.root, filepath.FromSlash(clean))
	if !within(r.root, full) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, src)
	}

	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		root, rerr := filepath.EvalSymlinks(r.root)
		if rerr != nil {
			root = r.root
		}
		if !within(root, resolved) {
			return "", fmt.Errorf("%w: %q", ErrOutsideRoot, src)
		}
	}
	return full, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Render returns the HTML preview of src. Markdown is rendered, known
// source files are highlighted and anything else is shown escaped.
func (r *Renderer) Render(src string) (template.HTML, error) {
	full, err := r.Resolve(src)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("preview: %s is a directory", src)
	}
	if info.Size() > r.maxSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return "", ErrBinary
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(full), "."))
	switch {
	case ext == "md" || ext == "markdown":
		return r.markdown(data)
	case Languages[ext] != "":
		return r.markdown(fenced(Languages[ext], data))
	default:
		return template.HTML("<pre>" + template.HTMLEscapeString(string(data)) + "</pre>"), nil
	}
}

func (r *Renderer) markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("preview: rendering: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// fenced wraps code in a fence longer than any backtick run inside it.
func fenced(lang string, code []byte) []byte {
	longest, run := 0, 0
	for _, b := range code {
		if b == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))

	var buf bytes.Buffer
	buf.WriteString(fence + lang + "\n")
	buf.Write(code)
	if len(code) > 0 && code[len(code)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(fence + "\n")
	return buf.Bytes()
}

// Placeholder is shown when a file cannot be previewed.
func Placeholder(src string) template.HTML {
	return template.HTML("<pre>" + template.HTMLEscapeString(fmt.Sprintf(
		"Attempting to load: %s\n\nThis file cannot be previewed here; open it directly to download it.", src,
	)) + "</pre>")
}
