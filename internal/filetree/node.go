// Package filetree models the admin file browser: a tree of nodes decoded
// from a JSON document, flattened into the rows that are currently visible
// and navigated with the keyboard.
package filetree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// NodeType is either TypeFile or TypeDirectory.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"

	typeDirAlias NodeType = "dir"
)

// Node is one entry of the tree. Path is unique and slash-delimited.
type Node struct {
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Path     string   `json:"path"`
	Children []*Node  `json:"children,omitempty"`
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n != nil && n.Type == TypeDirectory
}

var errTreeShape = errors.New("tree document must be an array or an object with children")

// Parse decodes a tree document: either a bare array of nodes or an object
// whose children field holds them. Missing paths are derived from the
// parent path and name; missing types from the presence of children.
func Parse(data []byte) ([]*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errTreeShape
	}

	var nodes []*Node
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("decoding tree array: %w", err)
		}
	case '{':
		var doc struct {
			Children []*Node `json:"children"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding tree object: %w", err)
		}
		nodes = doc.Children
	default:
		return nil, errTreeShape
	}

	return Normalize(nodes), nil
}

// Normalize fills in derived paths and types in place and drops nil entries.
func Normalize(nodes []*Node) []*Node {
	return normalize(nodes, "")
}

func normalize(nodes []*Node, parent string) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Path == "" {
			if parent != "" {
				n.Path = parent + "/" + n.Name
			} else {
				n.Path = n.Name
			}
		}
		switch n.Type {
		case TypeDirectory, typeDirAlias:
			n.Type = TypeDirectory
		case "":
			if n.Children != nil {
				n.Type = TypeDirectory
			} else {
				n.Type = TypeFile
			}
		default:
			n.Type = TypeFile
		}
		if n.Children != nil {
			n.Children = normalize(n.Children, n.Path)
		}
		out = append(out, n)
	}
	return out
}
