package schema

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type document struct {
	Collections map[string]collectionDocument `yaml:"collections"`
}

type collectionDocument struct {
	Table       string                        `yaml:"table"`
	Key         string                        `yaml:"key"`
	Scalars     map[string]string             `yaml:"scalars"`
	Navigations map[string]navigationDocument `yaml:"navigations"`
}

type navigationDocument struct {
	Target string `yaml:"target"`
	Column string `yaml:"column"`
}

// Load reads a registry from YAML:
//
//	collections:
//	  Invoices:
//	    table: invoices
//	    key: id
//	    scalars:
//	      Amount: amount
//	      Number:            # column defaults to snake_case
//	    navigations:
//	      Center: {target: Centers, column: center_id}
func Load(r io.Reader) (*Registry, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "schema: decode")
	}
	reg := NewRegistry()
	for name, c := range doc.Collections {
		collection := reg.Register(name)
		if c.Table != "" {
			collection.WithTable(c.Table)
		}
		if c.Key != "" {
			collection.WithKey(c.Key)
		}
		for prop, column := range c.Scalars {
			if column == "" {
				column = snakeCase(prop)
			}
			collection.AddScalarColumn(prop, column)
		}
		for prop, nav := range c.Navigations {
			defaults := Navigation{Target: nav.Target, Column: nav.Column}
			if defaults.Target == "" || defaults.Column == "" {
				collection.AddNavigation(prop)
				implied, _ := collection.Navigation(prop)
				if defaults.Target == "" {
					defaults.Target = implied.Target
				}
				if defaults.Column == "" {
					defaults.Column = implied.Column
				}
			}
			collection.AddNavigationTo(prop, defaults.Target, defaults.Column)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func LoadFile(filename string) (*Registry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}
	defer f.Close()
	return Load(f)
}
