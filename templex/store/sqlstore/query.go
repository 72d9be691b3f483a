package sqlstore

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/schema"
	"github.com/krew-solutions/templex-go/templex/session"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

func identifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// selectQuery reads the key, then every scalar, then every navigation
// column, each group ordered by property name. Keys are compared as text so
// one query shape serves integer, uuid and text keys.
func selectQuery(c *schema.Collection) string {
	columns := []string{identifier(c.KeyColumn)}
	for _, s := range c.Scalars() {
		columns = append(columns, identifier(s.Column))
	}
	for _, n := range c.Navigations() {
		columns = append(columns, identifier(n.Column))
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s::text = ANY($1)",
		strings.Join(columns, ", "),
		identifier(c.Table),
		identifier(c.KeyColumn),
	)
}

func (s *Store) query(conn session.DbQuerier, collection string, keys []string) ([]*store.Entity, error) {
	c, ok := s.schema.Get(collection)
	if !ok {
		return nil, errors.Wrap(schema.ErrUnknownCollection, collection)
	}
	rows, err := conn.Query(selectQuery(c), keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*store.Entity
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", collection)
		}
		e, err := decodeRow(c, values)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", collection)
	}
	return result, nil
}

func decodeRow(c *schema.Collection, row []any) (*store.Entity, error) {
	scalars, navigations := c.Scalars(), c.Navigations()
	if len(row) != 1+len(scalars)+len(navigations) {
		return nil, errors.Errorf("%s: expected %d columns, got %d", c.Name, 1+len(scalars)+len(navigations), len(row))
	}
	key, err := keyString(row[0])
	if err != nil {
		return nil, errors.Wrapf(err, "%s key", c.Name)
	}
	e := &store.Entity{
		Ref:    value.EntityRef{Collection: c.Name, Key: key},
		Fields: make(map[string]value.Value, len(scalars)+len(navigations)),
	}
	i := 1
	for _, s := range scalars {
		v, err := toValue(row[i])
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", e.Ref, s.Name)
		}
		e.Fields[s.Name] = v
		i++
	}
	for _, n := range navigations {
		if row[i] == nil {
			e.Fields[n.Name] = value.Null()
		} else {
			target, err := keyString(row[i])
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", e.Ref, n.Name)
			}
			e.Fields[n.Name] = value.Entity(value.EntityRef{Collection: n.Target, Key: target})
		}
		i++
	}
	return e, nil
}
