// Package schema describes the shape of the entity graph: collections, their
// scalar properties and the navigation properties linking them. Discovery
// uses it to tell scalar paths from navigation paths, and the SQL store uses
// it to map properties to columns.
package schema

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"

	templex "github.com/krew-solutions/templex-go/templex/domain"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Scalar is a property holding a value.
type Scalar struct {
	Name   string
	Column string
}

// Navigation is a property referencing one entity of Target. Column holds
// the referenced key in the owner's table.
type Navigation struct {
	Name   string
	Target string
	Column string
}

type Collection struct {
	Name        string
	Table       string
	KeyColumn   string
	scalars     map[string]Scalar
	navigations map[string]Navigation
}

func newCollection(name string) *Collection {
	return &Collection{
		Name:        name,
		Table:       inflection.Plural(snakeCase(name)),
		KeyColumn:   "id",
		scalars:     make(map[string]Scalar),
		navigations: make(map[string]Navigation),
	}
}

// WithTable sets the table name
func (c *Collection) WithTable(table string) *Collection {
	c.Table = table
	return c
}

// WithKey sets the key column
func (c *Collection) WithKey(column string) *Collection {
	c.KeyColumn = column
	return c
}

// AddScalar registers scalar properties with snake_case columns.
func (c *Collection) AddScalar(names ...string) *Collection {
	for _, name := range names {
		c.AddScalarColumn(name, snakeCase(name))
	}
	return c
}

func (c *Collection) AddScalarColumn(name, column string) *Collection {
	delete(c.navigations, name)
	c.scalars[name] = Scalar{Name: name, Column: column}
	return c
}

// AddNavigation registers a reference to the collection named by the plural
// of name, held in the name_id column.
func (c *Collection) AddNavigation(name string) *Collection {
	return c.AddNavigationTo(name, inflection.Plural(name), snakeCase(name)+"_id")
}

func (c *Collection) AddNavigationTo(name, target, column string) *Collection {
	delete(c.scalars, name)
	c.navigations[name] = Navigation{Name: name, Target: target, Column: column}
	return c
}

func (c *Collection) Scalar(name string) (Scalar, bool) {
	s, ok := c.scalars[name]
	return s, ok
}

func (c *Collection) Navigation(name string) (Navigation, bool) {
	n, ok := c.navigations[name]
	return n, ok
}

// Scalars are ordered by name.
func (c *Collection) Scalars() []Scalar {
	result := make([]Scalar, 0, len(c.scalars))
	for _, s := range c.scalars {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Navigations are ordered by name.
func (c *Collection) Navigations() []Navigation {
	result := make([]Navigation, 0, len(c.navigations))
	for _, n := range c.navigations {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Registry holds every collection. It is built once and read concurrently
// afterwards.
type Registry struct {
	collections map[string]*Collection
}

func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// Register returns the named collection, creating it on first use.
func (r *Registry) Register(name string) *Collection {
	c, ok := r.collections[name]
	if !ok {
		c = newCollection(name)
		r.collections[name] = c
	}
	return c
}

func (r *Registry) Get(name string) (*Collection, bool) {
	c, ok := r.collections[name]
	return c, ok
}

func (r *Registry) MustGet(name string) *Collection {
	c, ok := r.collections[name]
	if !ok {
		panic(errors.Wrap(ErrUnknownCollection, name))
	}
	return c
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Property implements templex.Shape.
func (r *Registry) Property(collection, name string) (templex.PropertyKind, string) {
	c, ok := r.collections[collection]
	if !ok {
		return templex.UnknownProperty, ""
	}
	if _, ok := c.scalars[name]; ok {
		return templex.ScalarProperty, ""
	}
	if n, ok := c.navigations[name]; ok {
		return templex.NavigationProperty, n.Target
	}
	return templex.UnknownProperty, ""
}

// Validate checks that every navigation leads to a registered collection.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		for _, n := range r.collections[name].Navigations() {
			if _, ok := r.collections[n.Target]; !ok {
				return errors.Wrapf(ErrUnknownCollection, "%s.%s targets %s", name, n.Name, n.Target)
			}
		}
	}
	return nil
}

var _ templex.Shape = (*Registry)(nil)

func snakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
