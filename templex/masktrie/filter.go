package masktrie

import (
	"sync"

	"github.com/krew-solutions/templex-go/templex/path"
)

// Filter is a trie compiled for repeated permission checks. Decisions are
// memoized per path. A nil *Filter permits every path.
type Filter struct {
	trie *Trie
	memo sync.Map
}

func Compile(t *Trie) (*Filter, error) {
	if t == nil {
		return nil, nil
	}
	return &Filter{trie: t}, nil
}

func (f *Filter) Trie() *Trie {
	if f == nil {
		return nil
	}
	return f.trie
}

func (f *Filter) Allows(p path.Path) bool {
	if f == nil {
		return true
	}
	if allowed, ok := f.memo.Load(p); ok {
		return allowed.(bool)
	}
	allowed := f.trie.Contains(p)
	f.memo.Store(p, allowed)
	return allowed
}
