// Package functions holds the host-supplied function registry consulted by
// FunctionCall nodes. Names are case-insensitive.
package functions

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

var (
	ErrArity    = errors.New("wrong number of arguments")
	ErrArgument = errors.New("invalid argument")
	ErrConflict = errors.New("function already registered")
)

// Variadic as MaxArgs lifts the upper bound on arguments.
const Variadic = -1

type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Call    func(ctx context.Context, args []value.Value) (value.Value, error)
}

// Invoke checks arity before delegating to Call.
func (f Function) Invoke(ctx context.Context, args []value.Value) (value.Value, error) {
	if len(args) < f.MinArgs || (f.MaxArgs != Variadic && len(args) > f.MaxArgs) {
		return value.Null(), errors.Wrapf(ErrArity, "%s expects %s, got %d", f.Name, f.arity(), len(args))
	}
	return f.Call(ctx, args)
}

func (f Function) arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return "at least " + strconv.Itoa(f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return strconv.Itoa(f.MinArgs)
	}
	return strconv.Itoa(f.MinArgs) + " to " + strconv.Itoa(f.MaxArgs)
}

type Registry struct {
	functions map[string]Function
}

func NewRegistry(fns ...Function) (*Registry, error) {
	r := &Registry{functions: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		if err := r.Register(fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewBuiltinRegistry returns a registry holding Builtins.
func NewBuiltinRegistry() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Register(fn Function) error {
	if fn.Name == "" || fn.Call == nil {
		return errors.Errorf("functions: incomplete definition %q", fn.Name)
	}
	key := strings.ToUpper(fn.Name)
	if _, ok := r.functions[key]; ok {
		return errors.Wrap(ErrConflict, fn.Name)
	}
	r.functions[key] = fn
	return nil
}

// Lookup is safe for concurrent use once registration is complete.
func (r *Registry) Lookup(name string) (Function, bool) {
	if r == nil {
		return Function{}, false
	}
	fn, ok := r.functions[strings.ToUpper(name)]
	return fn, ok
}
