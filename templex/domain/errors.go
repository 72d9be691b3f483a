package templex

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/domain/functions"
	"github.com/krew-solutions/templex-go/templex/domain/operators"
	"github.com/krew-solutions/templex-go/templex/path"
)

// Error kinds. Match them with errors.Is.
var (
	ErrTypeMismatch       = operators.ErrTypeMismatch
	ErrDivisionByZero     = operators.ErrDivisionByZero
	ErrUnknownFunction    = errors.New("unknown function")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrStoreFailure       = errors.New("store failure")
	ErrOperationCancelled = errors.New("operation cancelled")
	ErrUnknownProperty    = errors.New("unknown property")
	ErrRootNotFound       = errors.New("root entity not found")
)

// Error is a failure of one expression against one root. Expression is the
// textual form of the offending sub-expression.
type Error struct {
	Kind       error
	Expression string
	Path       path.Path
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Expression != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Expression)
	}
	if !e.Path.IsZero() {
		sb.WriteString(" at path ")
		sb.WriteString(e.Path.String())
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	} else if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// classify maps a failure raised while evaluating n to an error kind,
// falling back to fallback. An *Error raised deeper in the tree is returned
// unchanged so the innermost sub-expression is reported.
func classify(n Node, err error, fallback error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	kind := fallback
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrOperationCancelled):
		kind = ErrOperationCancelled
	case errors.Is(err, ErrTypeMismatch), errors.Is(err, functions.ErrArity),
		errors.Is(err, functions.ErrArgument):
		kind = ErrTypeMismatch
	case errors.Is(err, ErrDivisionByZero):
		kind = ErrDivisionByZero
	case errors.Is(err, ErrUnknownFunction):
		kind = ErrUnknownFunction
	case errors.Is(err, ErrPermissionDenied):
		kind = ErrPermissionDenied
	case errors.Is(err, ErrUnknownProperty):
		kind = ErrUnknownProperty
	case errors.Is(err, ErrRootNotFound):
		kind = ErrRootNotFound
	}
	return &Error{Kind: kind, Expression: n.String(), Cause: err}
}

// atPath records p on err unless err already names a path.
func atPath(err error, p path.Path) error {
	var te *Error
	if errors.As(err, &te) && te.Path.IsZero() {
		te.Path = p
	}
	return err
}

func cancelled(n Node, err error) error {
	return &Error{Kind: ErrOperationCancelled, Expression: n.String(), Cause: err}
}
