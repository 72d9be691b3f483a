package memory

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/krew-solutions/templex-go/templex/value"
)

// ErrFixture reports a fixture value that cannot be converted.
var ErrFixture = errors.New("memory: bad fixture")

type reference struct {
	Ref string `yaml:"ref"`
}

// Load reads entities from YAML, grouped by collection and key:
//
//	Invoices:
//	  "1":
//	    Number: INV-1
//	    Amount: 250.00
//	    Issued: 2024-01-31
//	    Center: {ref: Centers/10}
//	Centers:
//	  "10":
//	    IsActive: true
//
// Numbers keep their written scale. A {ref: Collection/Key} mapping is a
// navigation.
func Load(r io.Reader) (*Store, error) {
	var doc map[string]map[string]map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "memory: decode fixtures")
	}
	s := New()
	for collection, entities := range doc {
		for key, props := range entities {
			ref := value.EntityRef{Collection: collection, Key: key}
			fields := make(map[string]value.Value, len(props))
			for name, node := range props {
				v, err := convert(&node)
				if err != nil {
					return nil, errors.Wrapf(err, "%s.%s", ref, name)
				}
				fields[name] = v
			}
			s.Put(ref, fields)
		}
	}
	return s, nil
}

func LoadFile(filename string) (*Store, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "memory")
	}
	defer f.Close()
	return Load(f)
}

func convert(node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return convertScalar(node)
	case yaml.MappingNode:
		var ref reference
		if err := node.Decode(&ref); err != nil {
			return value.Null(), errors.Wrap(ErrFixture, err.Error())
		}
		collection, key, ok := strings.Cut(ref.Ref, "/")
		if !ok || collection == "" || key == "" {
			return value.Null(), errors.Wrapf(ErrFixture, "reference %q is not Collection/Key", ref.Ref)
		}
		return value.Entity(value.EntityRef{Collection: collection, Key: key}), nil
	}
	return value.Null(), errors.Wrapf(ErrFixture, "line %d: unsupported node", node.Line)
}

func convertScalar(node *yaml.Node) (value.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return value.Null(), errors.Wrap(ErrFixture, err.Error())
		}
		return value.Bool(b), nil
	case "!!int", "!!float":
		v, err := value.ParseNumber(node.Value)
		if err != nil {
			return value.Null(), errors.Wrap(ErrFixture, err.Error())
		}
		return v, nil
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return value.Null(), errors.Wrap(ErrFixture, err.Error())
		}
		return value.DateTime(t), nil
	}
	return value.Text(node.Value), nil
}
