package masktrie

import "github.com/cespare/xxhash/v2"

const hashSeed uint64 = 0x9e3779b97f4a7c15

// Comparer is the structural equality used to key caches of compiled
// policies. A nil trie only equals another nil trie.
type Comparer struct{}

func (Comparer) Equal(a, b *Trie) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.hash != b.hash || len(a.children) != len(b.children) {
		return false
	}
	for segment, child := range a.children {
		other, ok := b.children[segment]
		if !ok || !(Comparer{}).Equal(child, other) {
			return false
		}
	}
	return true
}

func (Comparer) Hash(t *Trie) uint64 {
	if t == nil {
		return 0
	}
	return t.hash
}

// computeHash sums, seeded with a fixed constant, each segment hash XORed
// with its mixed sub-trie hash. Addition keeps it order-independent.
func computeHash(children map[string]*Trie) uint64 {
	h := hashSeed
	for segment, child := range children {
		h += xxhash.Sum64String(segment) ^ mix(child.hash)
	}
	return h
}

// mix is the murmur3 64-bit finalizer.
func mix(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}
