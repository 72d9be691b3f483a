// Package path implements dotted identifier chains addressing a property
// through the entity graph, e.g. Account.Classification.Name.
package path

import (
	"strings"

	"github.com/pkg/errors"
)

const Separator = "."

var ErrInvalidPath = errors.New("invalid path")

// Path is an immutable, non-empty sequence of segments. It is comparable,
// so == is structural equality and a Path can be used as a map key.
type Path struct {
	dotted string
}

func New(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return Path{}, errors.Wrap(ErrInvalidPath, "no segments")
	}
	for i, s := range segments {
		if s == "" {
			return Path{}, errors.Wrapf(ErrInvalidPath, "empty segment at %d", i)
		}
		if strings.Contains(s, Separator) {
			return Path{}, errors.Wrapf(ErrInvalidPath, "segment %q contains %q", s, Separator)
		}
	}
	return Path{dotted: strings.Join(segments, Separator)}, nil
}

func MustNew(segments ...string) Path {
	p, err := New(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse reads the dotted form produced by String.
func Parse(dotted string) (Path, error) {
	return New(strings.Split(dotted, Separator)...)
}

func MustParse(dotted string) Path {
	p, err := Parse(dotted)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) IsZero() bool {
	return p.dotted == ""
}

func (p Path) String() string {
	return p.dotted
}

// Segments returns a fresh slice on every call.
func (p Path) Segments() []string {
	if p.dotted == "" {
		return nil
	}
	return strings.Split(p.dotted, Separator)
}

func (p Path) Len() int {
	if p.dotted == "" {
		return 0
	}
	return strings.Count(p.dotted, Separator) + 1
}

func (p Path) First() string {
	head, _, _ := strings.Cut(p.dotted, Separator)
	return head
}

func (p Path) Last() string {
	return p.dotted[strings.LastIndex(p.dotted, Separator)+1:]
}

// Parent drops the last segment. ok is false for single-segment paths.
func (p Path) Parent() (parent Path, ok bool) {
	i := strings.LastIndex(p.dotted, Separator)
	if i < 0 {
		return Path{}, false
	}
	return Path{dotted: p.dotted[:i]}, true
}

// Rest drops the first segment. ok is false for single-segment paths.
func (p Path) Rest() (rest Path, ok bool) {
	_, tail, found := strings.Cut(p.dotted, Separator)
	if !found {
		return Path{}, false
	}
	return Path{dotted: tail}, true
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.dotted), nil
}

func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
