package evaluation

import (
	"context"

	"github.com/pkg/errors"

	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

var ErrMissingField = errors.New("entity lacks property")

// Context resolves paths from one root. It is a cheap view over the batch;
// make one per row.
type Context struct {
	batch *Batch
	root  value.EntityRef
}

func (c *Context) Root() value.EntityRef {
	return c.root
}

// Resolve walks p segment by segment from the root, fetching on a cache
// miss. A null or dangling navigation resolves to Null. A property missing
// from a fetched entity is an error.
func (c *Context) Resolve(ctx context.Context, p path.Path) (value.Value, error) {
	ref := c.root
	rest := p
	segments := p.Segments()
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return value.Null(), err
		}
		e, err := c.batch.entity(ctx, ref, rest)
		if err != nil {
			return value.Null(), errors.Wrapf(err, "fetch %s", ref)
		}
		if e == nil {
			if i == 0 {
				return value.Null(), errors.Wrap(templex.ErrRootNotFound, ref.String())
			}
			return value.Null(), nil
		}
		v, ok := e.Field(segment)
		if !ok {
			return value.Null(), errors.Wrapf(ErrMissingField, "%s has no %s", ref, segment)
		}
		if i == len(segments)-1 {
			return v, nil
		}
		next, isRef := v.Ref()
		if !isRef {
			if v.IsNull() {
				return value.Null(), nil
			}
			return value.Null(), errors.Wrapf(templex.ErrUnknownProperty, "%s.%s is %s and cannot be navigated", ref, segment, v.Kind())
		}
		ref = next
		rest, _ = rest.Rest()
	}
	return value.Null(), nil
}

var _ templex.Context = (*Context)(nil)
