package vfs

import (
	"strings"
	"time"

	"github.com/gothicgo/zengin/zgerr"
)

// Vfs is a single rooted namespace merging any number of mounted disk
// containers and host directories
type Vfs struct {
	root *Node
}

// New returns an empty Vfs with a root directory node.
func New() *Vfs {
	return &Vfs{root: NewDirectory("/", time.Time{})}
}

// Root returns the namespace's root directory node.
func (v *Vfs) Root() *Node { return v.root }

// Resolve walks a '/'-separated path from the root and returns the node it
// names, or nil if any segment along the way is missing.
func (v *Vfs) Resolve(path string) *Node {
	node := v.root
	for _, seg := range splitPath(path) {
		if node == nil || node.typ != TypeDirectory {
			return nil
		}
		node = node.child(seg)
	}
	return node
}

// Find searches the whole tree breadth-first for the first node with the
// given name, ignoring where it sits in the hierarchy, so assets that
// scripts reference by bare name rather than by path can be resolved.
func (v *Vfs) Find(name string) *Node {
	queue := []*Node{v.root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if c := node.child(name); c != nil {
			return c
		}
		for _, c := range node.children {
			if c.typ == TypeDirectory {
				queue = append(queue, c)
			}
		}
	}
	return nil
}

// Mkdir creates every missing directory along path and returns the leaf.
func (v *Vfs) Mkdir(path string) (*Node, error) {
	node := v.root
	for _, seg := range splitPath(path) {
		if existing := node.child(seg); existing != nil {
			if existing.typ != TypeDirectory {
				return nil, zgerr.Wrap(zgerr.KindVfsNode, "mkdir "+path, zgerr.ErrExists)
			}
			node = existing
			continue
		}
		node = node.insert(NewDirectory(seg, time.Now()))
	}
	return node, nil
}

// Remove removes the node named by path from its parent directory,
// reporting whether a node was actually removed.
func (v *Vfs) Remove(path string) bool {
	parentPath, name := splitParent(path)
	parent := v.Resolve(parentPath)
	if parent == nil {
		return false
	}
	return parent.removeChild(name)
}

// Mount merges node into the directory named by parentPath, applying
// overwrite to any name collisions. Uses an iterative dual-stack tree
// walk rather than recursing, so arbitrarily deep host trees don't blow
// the Go call stack.
func (v *Vfs) Mount(node *Node, parentPath string, overwrite OverwritePolicy) error {
	parent := v.Resolve(parentPath)
	if parent == nil {
		return zgerr.Wrap(zgerr.KindVfsNode, "mount "+parentPath, zgerr.ErrNotFound)
	}
	if parent.typ != TypeDirectory {
		return zgerr.Wrap(zgerr.KindVfsNode, "mount "+parentPath, zgerr.ErrNotDirectory)
	}

	type pair struct {
		src  *Node
		dest *Node
	}
	stack := []pair{{node, parent}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		existing := p.dest.child(p.src.name)
		if existing == nil {
			p.dest.insert(p.src)
			continue
		}

		if existing.typ == TypeFile || p.src.typ == TypeFile {
			if !shouldOverwrite(overwrite, existing.time, p.src.time) {
				continue
			}
			p.dest.insert(p.src)
			continue
		}

		for _, c := range p.src.children {
			stack = append(stack, pair{c, existing})
		}
	}
	return nil
}

func shouldOverwrite(policy OverwritePolicy, existing, incoming time.Time) bool {
	switch policy {
	case OverwriteNone:
		return false
	case OverwriteAll:
		return true
	case OverwriteNewer:
		return existing.Before(incoming)
	case OverwriteOlder:
		return existing.After(incoming)
	default:
		return false
	}
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func splitParent(path string) (parent, name string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
