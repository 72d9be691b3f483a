package templex

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/masktrie"
	"github.com/krew-solutions/templex-go/templex/path"
)

type PropertyKind int

const (
	UnknownProperty PropertyKind = iota
	ScalarProperty
	NavigationProperty
)

// Shape describes the properties of collections, not their data. target
// names the collection a navigation property leads to.
type Shape interface {
	Property(collection, name string) (kind PropertyKind, target string)
}

type discoveryMode int

const (
	selectMode discoveryMode = iota
	includeMode
)

var errStopped = errors.New("discovery stopped")

type DiscoveryOption func(*DiscoveryVisitor)

// WithShape resolves paths against the properties of root. Without a shape
// the last segment of a path is taken as scalar and the others as
// navigation.
func WithShape(root string, shape Shape) DiscoveryOption {
	return func(v *DiscoveryVisitor) {
		v.root = root
		v.shape = shape
	}
}

// WithFilter rejects every discovered path the filter does not allow.
func WithFilter(filter *masktrie.Filter) DiscoveryOption {
	return func(v *DiscoveryVisitor) {
		v.filter = filter
	}
}

// ComputeSelect yields, depth-first and left to right, every scalar path n
// reads. Duplicates are not removed.
func ComputeSelect(n Node, opts ...DiscoveryOption) iter.Seq2[path.Path, error] {
	return discover(n, selectMode, opts)
}

// ComputePaths yields every navigation path n traverses and stops at, in
// the same order as ComputeSelect.
func ComputePaths(n Node, opts ...DiscoveryOption) iter.Seq2[path.Path, error] {
	return discover(n, includeMode, opts)
}

func discover(n Node, mode discoveryMode, opts []DiscoveryOption) iter.Seq2[path.Path, error] {
	return func(yield func(path.Path, error) bool) {
		v := newDiscoveryVisitor(mode, yield, opts...)
		err := n.Accept(v)
		if err != nil && !errors.Is(err, errStopped) {
			yield(path.Path{}, err)
		}
	}
}

func newDiscoveryVisitor(mode discoveryMode, yield func(path.Path, error) bool, opts ...DiscoveryOption) *DiscoveryVisitor {
	v := &DiscoveryVisitor{
		mode:  mode,
		yield: yield,
	}
	for i := range opts {
		opts[i](v)
	}
	return v
}

// DiscoveryVisitor walks the tree without data. Both branches of a
// Conditional are visited since the branch taken is only known per row.
type DiscoveryVisitor struct {
	mode   discoveryMode
	yield  func(path.Path, error) bool
	root   string
	shape  Shape
	filter *masktrie.Filter
}

func (v *DiscoveryVisitor) emit(n PathNode, p path.Path) error {
	if !v.filter.Allows(p) {
		return &Error{Kind: ErrPermissionDenied, Expression: n.String(), Path: p}
	}
	if !v.yield(p, nil) {
		return errStopped
	}
	return nil
}

// endsInScalar reports whether the last segment of p addresses a scalar.
func (v *DiscoveryVisitor) endsInScalar(n PathNode) (bool, error) {
	p := n.Path()
	if v.shape == nil {
		return true, nil
	}
	collection := v.root
	segments := p.Segments()
	for i, segment := range segments {
		kind, target := v.shape.Property(collection, segment)
		switch {
		case kind == UnknownProperty:
			return false, &Error{
				Kind:       ErrUnknownProperty,
				Expression: n.String(),
				Path:       p,
				Message:    "collection " + collection + " has no property " + segment,
			}
		case kind == ScalarProperty && i < len(segments)-1:
			return false, &Error{
				Kind:       ErrUnknownProperty,
				Expression: n.String(),
				Path:       p,
				Message:    collection + "." + segment + " is scalar and cannot be navigated",
			}
		case kind == ScalarProperty:
			return true, nil
		}
		collection = target
	}
	return false, nil
}

func (v *DiscoveryVisitor) VisitLiteral(_ LiteralNode) error {
	return nil
}

func (v *DiscoveryVisitor) VisitPath(n PathNode) error {
	scalar, err := v.endsInScalar(n)
	if err != nil {
		return err
	}
	p := n.Path()
	switch {
	case v.mode == selectMode && scalar:
		return v.emit(n, p)
	case v.mode == includeMode && !scalar:
		return v.emit(n, p)
	case v.mode == includeMode:
		if parent, ok := p.Parent(); ok {
			return v.emit(n, parent)
		}
	}
	return nil
}

func (v *DiscoveryVisitor) VisitPrefix(n PrefixNode) error {
	return n.Operand().Accept(v)
}

func (v *DiscoveryVisitor) VisitInfix(n InfixNode) error {
	if err := n.Left().Accept(v); err != nil {
		return err
	}
	return n.Right().Accept(v)
}

func (v *DiscoveryVisitor) VisitConditional(n ConditionalNode) error {
	for _, operand := range []Node{n.Condition(), n.Then(), n.Else()} {
		if err := operand.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *DiscoveryVisitor) VisitCall(n CallNode) error {
	for _, arg := range n.Args() {
		if err := arg.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

// Plan is the deduplicated result of discovery, first occurrence first.
type Plan struct {
	Select  []path.Path
	Include []path.Path
}

// Paths merges Select and Include, the relative paths a store request needs.
func (p Plan) Paths() []path.Path {
	seen := make(map[path.Path]struct{}, len(p.Select)+len(p.Include))
	result := make([]path.Path, 0, len(p.Select)+len(p.Include))
	for _, list := range [][]path.Path{p.Select, p.Include} {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			result = append(result, item)
		}
	}
	return result
}

// Discover runs both discovery passes. The first path rejected by the
// filter fails the whole plan with ErrPermissionDenied.
func Discover(n Node, opts ...DiscoveryOption) (Plan, error) {
	var plan Plan
	var err error
	if plan.Select, err = collect(ComputeSelect(n, opts...)); err != nil {
		return Plan{}, err
	}
	if plan.Include, err = collect(ComputePaths(n, opts...)); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func collect(seq iter.Seq2[path.Path, error]) ([]path.Path, error) {
	seen := make(map[path.Path]struct{})
	var result []path.Path
	for p, err := range seq {
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result, nil
}
