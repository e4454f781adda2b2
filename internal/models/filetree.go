package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// FileNode is either a leaf holding source text or a directory of further
// nodes. On the wire a leaf is {"code": "..."}; any other object is a
// directory.
type FileNode struct {
	leaf     bool
	code     string
	children FileTree
}

// FileTree maps a path segment to a node.
type FileTree map[string]FileNode

const codeKey = "code"

func Leaf(code string) FileNode {
	return FileNode{leaf: true, code: code}
}

func Directory(children FileTree) FileNode {
	if children == nil {
		children = FileTree{}
	}
	return FileNode{children: children}
}

func (n FileNode) IsLeaf() bool {
	return n.leaf
}

func (n FileNode) Code() string {
	return n.code
}

func (n FileNode) Children() FileTree {
	return n.children
}

func (n FileNode) MarshalJSON() ([]byte, error) {
	if n.leaf {
		return json.Marshal(struct {
			Code string `json:"code"`
		}{Code: n.code})
	}
	if n.children == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(n.children)
}

func (n *FileNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if codeRaw, ok := raw[codeKey]; ok {
		var code string
		if err := json.Unmarshal(codeRaw, &code); err == nil {
			*n = Leaf(code)
			return nil
		}
	}

	children, err := decodeTree(raw)
	if err != nil {
		return err
	}
	*n = Directory(children)
	return nil
}

func (t *FileTree) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = FileTree{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	tree, err := decodeTree(raw)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// decodeTree keeps object-valued entries only. A child named "code" inside a
// directory is never a file of its own.
func decodeTree(raw map[string]json.RawMessage) (FileTree, error) {
	tree := make(FileTree, len(raw))
	for key, value := range raw {
		if key == codeKey {
			continue
		}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var node FileNode
		if err := json.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		tree[key] = node
	}
	return tree, nil
}

// Merge returns a new tree holding every top-level entry of t, overwritten by
// the entries of incoming with the same name. Nested directories are replaced
// whole, never merged.
func (t FileTree) Merge(incoming FileTree) FileTree {
	merged := make(FileTree, len(t)+len(incoming))
	for key, node := range t {
		merged[key] = node
	}
	for key, node := range incoming {
		merged[key] = node
	}
	return merged
}

// Walk visits every node depth-first in sorted key order. Directories are
// visited before their children.
func (t FileTree) Walk(fn func(path string, node FileNode) error) error {
	return t.walk("", fn)
}

func (t FileTree) walk(prefix string, fn func(path string, node FileNode) error) error {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := t[key]
		path := key
		if prefix != "" {
			path = prefix + "/" + key
		}
		if err := fn(path, node); err != nil {
			return err
		}
		if !node.leaf {
			if err := node.children.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Leaves returns every leaf keyed by its full path.
func (t FileTree) Leaves() map[string]string {
	leaves := make(map[string]string)
	_ = t.Walk(func(path string, node FileNode) error {
		if node.leaf {
			leaves[path] = node.code
		}
		return nil
	})
	return leaves
}

// CleanPath turns a recorded path into a relative archive path.
func CleanPath(path string) string {
	return strings.TrimLeft(path, "/")
}
