// Package engine compiles templates against a permission scope and
// evaluates them over batches of root entities.
package engine

import (
	"io"
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	templex "github.com/krew-solutions/templex-go/templex/domain"
	"github.com/krew-solutions/templex-go/templex/domain/functions"
	"github.com/krew-solutions/templex-go/templex/domain/parser"
	"github.com/krew-solutions/templex-go/templex/identitymap"
	"github.com/krew-solutions/templex-go/templex/masktrie"
	"github.com/krew-solutions/templex-go/templex/metrics"
	"github.com/krew-solutions/templex-go/templex/store"
)

const (
	DefaultConcurrency     = 8
	DefaultCacheSize       = 10000
	DefaultPolicyCacheSize = 256
)

// Engine is safe for concurrent use.
type Engine struct {
	store           store.Store
	shape           templex.Shape
	functions       *functions.Registry
	logger          logrus.FieldLogger
	metrics         *metrics.Metrics
	concurrency     int
	cacheSize       int
	policyCacheSize int
	isolation       identitymap.IsolationLevel
	rowIsolation    bool
	policies        *masktrie.Cache[*masktrie.Filter]
}

func New(s store.Store, opts ...Option) (*Engine, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	e := &Engine{
		store:           s,
		functions:       functions.NewBuiltinRegistry(),
		logger:          discard,
		concurrency:     DefaultConcurrency,
		cacheSize:       DefaultCacheSize,
		policyCacheSize: DefaultPolicyCacheSize,
		isolation:       identitymap.Serializable,
	}
	for i := range opts {
		opts[i](e)
	}
	if e.concurrency < 1 {
		return nil, errors.Errorf("engine: concurrency must be positive, got %d", e.concurrency)
	}
	policies, err := masktrie.NewCache[*masktrie.Filter](e.policyCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "engine: policy cache")
	}
	e.policies = policies
	return e, nil
}

// Template is a parsed expression bound to a root collection and checked
// against one permission scope. It is immutable once prepared.
type Template struct {
	node   templex.Node
	root   string
	plan   templex.Plan
	filter *masktrie.Filter
}

func (t *Template) Node() templex.Node {
	return t.node
}

// Root is the collection the template is evaluated against.
func (t *Template) Root() string {
	return t.root
}

// Plan returns a copy of the discovered paths.
func (t *Template) Plan() templex.Plan {
	return templex.Plan{
		Select:  slices.Clone(t.plan.Select),
		Include: slices.Clone(t.plan.Include),
	}
}

// Grants is the permission trie the template was checked against, nil when
// unrestricted. Structurally equal grants yield the same instance.
func (t *Template) Grants() *masktrie.Trie {
	return t.filter.Trie()
}

// Compile parses source and prepares it. grants may be nil for
// unrestricted access.
func (e *Engine) Compile(source, root string, grants *masktrie.Trie) (*Template, error) {
	node, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.Prepare(node, root, grants)
}

// Prepare runs discovery over node. Any path outside grants fails with
// templex.ErrPermissionDenied.
func (e *Engine) Prepare(node templex.Node, root string, grants *masktrie.Trie) (*Template, error) {
	filter, err := e.filter(grants)
	if err != nil {
		return nil, err
	}
	opts := []templex.DiscoveryOption{templex.WithFilter(filter)}
	if e.shape != nil {
		opts = append(opts, templex.WithShape(root, e.shape))
	}
	plan, err := templex.Discover(node, opts...)
	if err != nil {
		e.logger.WithError(err).WithField("root", root).Debug("template rejected")
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"root":    root,
		"select":  len(plan.Select),
		"include": len(plan.Include),
	}).Debug("template compiled")
	return &Template{node: node, root: root, plan: plan, filter: filter}, nil
}

func (e *Engine) filter(grants *masktrie.Trie) (*masktrie.Filter, error) {
	if grants == nil {
		return nil, nil
	}
	filter, _, err := e.policies.GetOrCompile(grants, masktrie.Compile)
	if err != nil {
		return nil, errors.Wrap(err, "engine: compile grants")
	}
	return filter, nil
}

// Policies counts the distinct permission tries compiled so far.
func (e *Engine) Policies() int {
	return e.policies.Len()
}
