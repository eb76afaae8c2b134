// Package vfs implements the ZenGin virtual file system: a single
// case-insensitive hierarchical namespace layered over multiple "disk"
// containers and host directories
package vfs

import (
	"sort"
	"strings"
	"time"

	"github.com/gothicgo/zengin/internal/zlog"
	"github.com/gothicgo/zengin/stream"
)

var log = zlog.Default()

// NodeType tags whether a VfsNode is a directory or a file.
type NodeType int

const (
	TypeDirectory NodeType = iota
	TypeFile
)

// FileDescription opens a Stream over a file node's bytes on demand, so a
// directory tree can be built without eagerly reading every file it
// references; the open happens only once a caller actually reads the
// node.
type FileDescription interface {
	Open() (stream.Stream, error)
}

// OverwritePolicy controls what happens when a mount would collide with an
// existing node
type OverwritePolicy int

const (
	OverwriteNone OverwritePolicy = iota
	OverwriteAll
	OverwriteNewer
	OverwriteOlder
)

// Node is either a directory (a sorted set of children) or a file (a handle
// opened on demand). Names are compared case-insensitively and trailing
// whitespace is ignored on lookup, matching the slack a space-padded
// on-disk name leaves.
type Node struct {
	name     string
	time     time.Time
	typ      NodeType
	children []*Node
	file     FileDescription
}

// NewDirectory constructs an empty directory node.
func NewDirectory(name string, ts time.Time) *Node {
	return &Node{name: name, time: ts, typ: TypeDirectory}
}

// NewFile constructs a file node backed by the given lazily-opened
// description.
func NewFile(name string, file FileDescription, ts time.Time) *Node {
	return &Node{name: name, time: ts, typ: TypeFile, file: file}
}

func (n *Node) Name() string     { return n.name }
func (n *Node) Time() time.Time  { return n.time }
func (n *Node) Type() NodeType   { return n.typ }
func (n *Node) IsDirectory() bool { return n.typ == TypeDirectory }
func (n *Node) IsFile() bool     { return n.typ == TypeFile }

// Children returns the node's children ordered case-insensitively by name.
// Mutating the returned slice does not affect the node.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Open returns a Stream over a file node's contents. Calling it on a
// directory node is a programming error.
func (n *Node) Open() (stream.Stream, error) {
	return n.file.Open()
}

func normalizeName(name string) string {
	return strings.TrimRight(name, " \t\r\n")
}

// child finds a direct child by case-insensitive name, ignoring trailing
// whitespace.
func (n *Node) child(name string) *Node {
	name = normalizeName(name)
	for _, c := range n.children {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// insert adds or replaces a child, keeping children sorted
// case-insensitively by name.
func (n *Node) insert(child *Node) *Node {
	n.removeChild(child.name)
	i := sort.Search(len(n.children), func(i int) bool {
		return strings.ToLower(n.children[i].name) >= strings.ToLower(child.name)
	})
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	return child
}

// removeChild removes a direct child by name, reporting whether one existed.
func (n *Node) removeChild(name string) bool {
	name = normalizeName(name)
	for i, c := range n.children {
		if strings.EqualFold(c.name, name) {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}
