package filetree

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/metrics"
)

// maxTreeDocument bounds how much of a tree document is read.
const maxTreeDocument = 8 << 20

// Source produces a tree.
type Source interface {
	Load(ctx context.Context) ([]*Node, error)
}

// DefaultFetchTimeout bounds the tree GET when HTTPSource has no client.
const DefaultFetchTimeout = 10 * time.Second

// HTTPSource fetches the tree document with a single GET and no retry.
// Timeout bounds the request when Client is nil; zero means
// DefaultFetchTimeout.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// Load implements Source.
func (s HTTPSource) Load(ctx context.Context) ([]*Node, error) {
	client := s.Client
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building tree request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching tree: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTreeDocument))
	if err != nil {
		return nil, fmt.Errorf("reading tree: %w", err)
	}
	return Parse(data)
}

// FileSource reads the tree document from disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(context.Context) ([]*Node, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading tree file: %w", err)
	}
	return Parse(data)
}

// DirSource builds the tree by walking a directory.
type DirSource struct {
	Root    string
	Exclude []string
}

// Load implements Source.
func (s DirSource) Load(context.Context) ([]*Node, error) {
	return Build(s.Root, s.Exclude)
}

// LoadOrEmpty loads from src and degrades to an empty tree on failure. The
// failure is logged, never returned.
func LoadOrEmpty(ctx context.Context, src Source, log *zap.Logger) []*Node {
	tree, err := src.Load(ctx)
	if err != nil {
		metrics.RecordFileTreeLoad(err, 0)
		if log != nil {
			log.Warn("file tree unavailable, using an empty tree", zap.Error(err))
		}
		return []*Node{}
	}
	if tree == nil {
		tree = []*Node{}
	}
	metrics.RecordFileTreeLoad(nil, Count(tree))
	return tree
}
