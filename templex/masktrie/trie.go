// Package masktrie implements the permission mask trie: the set of paths a
// principal may traverse or select, stored as a mapping from path segment to
// sub-trie.
//
// A segment present with an empty sub-trie is a terminal leaf. A segment
// that is absent is not permitted, and neither is anything below it.
//
// Leaves are exact-depth: Contains(p) holds only when every segment of p is
// a walk from the root, so a leaf grants nothing beneath itself. Every prefix
// of a granted path is itself permitted, which is what allows navigating to
// a granted field.
//
// A Trie is immutable once built and safe for concurrent use. Two tries are
// equal when their segment sets are equal and each pair of sub-tries is
// recursively equal; node identity is irrelevant and Hash is consistent with
// that equality.
package masktrie

import (
	"sort"

	"github.com/krew-solutions/templex-go/templex/path"
)

type Trie struct {
	children map[string]*Trie
	hash     uint64
}

func Leaf() *Trie {
	return &Trie{hash: hashSeed}
}

// New copies children; a nil sub-trie is read as a leaf.
func New(children map[string]*Trie) *Trie {
	t := &Trie{}
	if len(children) > 0 {
		t.children = make(map[string]*Trie, len(children))
		for segment, child := range children {
			if child == nil {
				child = Leaf()
			}
			t.children[segment] = child
		}
	}
	t.hash = computeHash(t.children)
	return t
}

// FromPaths grants every given path and, implicitly, each of its prefixes.
func FromPaths(paths ...path.Path) *Trie {
	root := &builder{}
	for _, p := range paths {
		node := root
		for _, segment := range p.Segments() {
			node = node.child(segment)
		}
	}
	return root.freeze()
}

type builder struct {
	children map[string]*builder
}

func (b *builder) child(segment string) *builder {
	if b.children == nil {
		b.children = make(map[string]*builder)
	}
	next, ok := b.children[segment]
	if !ok {
		next = &builder{}
		b.children[segment] = next
	}
	return next
}

func (b *builder) freeze() *Trie {
	if len(b.children) == 0 {
		return Leaf()
	}
	children := make(map[string]*Trie, len(b.children))
	for segment, child := range b.children {
		children[segment] = child.freeze()
	}
	return &Trie{children: children, hash: computeHash(children)}
}

func (t *Trie) IsLeaf() bool {
	return len(t.children) == 0
}

func (t *Trie) Len() int {
	return len(t.children)
}

func (t *Trie) Child(segment string) (*Trie, bool) {
	child, ok := t.children[segment]
	return child, ok
}

// Segments are returned sorted.
func (t *Trie) Segments() []string {
	segments := make([]string, 0, len(t.children))
	for segment := range t.children {
		segments = append(segments, segment)
	}
	sort.Strings(segments)
	return segments
}

// Contains walks p one segment at a time.
func (t *Trie) Contains(p path.Path) bool {
	if p.IsZero() {
		return false
	}
	node := t
	for _, segment := range p.Segments() {
		next, ok := node.children[segment]
		if !ok {
			return false
		}
		node = next
	}
	return true
}

// Paths lists every root-to-leaf path in sorted order. FromPaths(t.Paths()...)
// is equal to t.
func (t *Trie) Paths() []path.Path {
	var result []path.Path
	var walk func(node *Trie, prefix []string)
	walk = func(node *Trie, prefix []string) {
		for _, segment := range node.Segments() {
			current := append(append([]string(nil), prefix...), segment)
			child := node.children[segment]
			if child.IsLeaf() {
				result = append(result, path.MustNew(current...))
				continue
			}
			walk(child, current)
		}
	}
	walk(t, nil)
	return result
}

func (t *Trie) Equal(other *Trie) bool {
	return Comparer{}.Equal(t, other)
}

func (t *Trie) Hash() uint64 {
	return Comparer{}.Hash(t)
}
