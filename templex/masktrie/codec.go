package masktrie

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// The CBOR form is a nested map from segment to sub-trie, leaves being empty
// maps. Core Deterministic Encoding sorts map keys, so equal tries always
// encode to identical bytes.

// ErrNilTrie is returned when encoding a nil trie. A nil trie means
// unrestricted access, which has no encoded form.
var ErrNilTrie = errors.New("masktrie: nil trie")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("masktrie: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("masktrie: CBOR decoder initialization failed: " + err.Error())
	}
}

func (t *Trie) MarshalCBOR() ([]byte, error) {
	if t == nil {
		return nil, ErrNilTrie
	}
	return encMode.Marshal(t.tree())
}

func (t *Trie) UnmarshalCBOR(data []byte) error {
	var tree map[string]any
	if err := decMode.Unmarshal(data, &tree); err != nil {
		return errors.Wrap(err, "masktrie: decode")
	}
	decoded, err := fromTree(tree)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// Encode returns the canonical encoding of t.
func Encode(t *Trie) ([]byte, error) {
	return t.MarshalCBOR()
}

func Decode(data []byte) (*Trie, error) {
	t := &Trie{}
	if err := t.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) tree() map[string]any {
	tree := make(map[string]any, len(t.children))
	for segment, child := range t.children {
		tree[segment] = child.tree()
	}
	return tree
}

func fromTree(tree map[string]any) (*Trie, error) {
	children := make(map[string]*Trie, len(tree))
	for segment, raw := range tree {
		if segment == "" {
			return nil, errors.New("masktrie: empty segment")
		}
		var sub map[string]any
		switch v := raw.(type) {
		case nil:
		case map[string]any:
			sub = v
		default:
			return nil, errors.Errorf("masktrie: segment %q holds %T, want a map", segment, raw)
		}
		child, err := fromTree(sub)
		if err != nil {
			return nil, err
		}
		children[segment] = child
	}
	return New(children), nil
}
