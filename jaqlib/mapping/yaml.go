package mapping

import (
	"fmt"
	"os"
	"reflect"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// Schema is the declarative form of a mapping tree:
//
//	record: account
//	fields:
//	  - target: ID
//	    source: "@id"
//	  - target: Balance
//	    source: balance
//	    raw_type: numeric
//	  - target: Owner
//	    source: owner
//	    fields:
//	      - {target: Name, source: name}
//	  - target: Orders
//	    source: orders
//	    element: order
//	    kind: list
//	    fields:
//	      - {target: Amount, source: amount}
type Schema struct {
	// Record names the record element (tree sources) or table (tabular sources).
	Record string        `yaml:"record"`
	Fields []FieldSchema `yaml:"fields"`
}

type FieldSchema struct {
	Target    string        `yaml:"target"`
	Source    SourceRef     `yaml:"source"`
	Type      string        `yaml:"type"`
	RawType   string        `yaml:"raw_type"`
	TypeCode  int           `yaml:"type_code"`
	Converter string        `yaml:"converter"`
	Element   string        `yaml:"element"`
	Kind      string        `yaml:"kind"`
	Fields    []FieldSchema `yaml:"fields"`
}

// IsCollection reports whether the field maps a nested collection.
func (f FieldSchema) IsCollection() bool {
	return f.Element != ""
}

// IsNested reports whether the field maps a nested object.
func (f FieldSchema) IsNested() bool {
	return f.Element == "" && len(f.Fields) > 0
}

// SourceRef is a source field given either by name or by zero-based index.
type SourceRef struct {
	Name  string
	Index *int
}

// UnmarshalYAML accepts a string name or an integer index.
func (s *SourceRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: source must be a name or an index, got %v", node.Line, node.Kind)
	}
	if node.ShortTag() == "!!int" {
		var i int
		if err := node.Decode(&i); err != nil {
			return err
		}
		if i < 0 {
			return fmt.Errorf("line %d: negative source index %d", node.Line, i)
		}
		s.Index = &i
		return nil
	}
	return node.Decode(&s.Name)
}

func (s SourceRef) descriptor(target string) FieldDescriptor {
	switch {
	case s.Index != nil:
		return ByIndex(*s.Index)
	case s.Name != "":
		return ByName(s.Name)
	}
	return ByName(target)
}

// ParseSchema decodes a YAML mapping document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse mapping schema")
	}
	if len(s.Fields) == 0 {
		return nil, faults.NewConfigurationError("ParseSchema", s.Record, "mapping schema declares no fields")
	}
	return &s, nil
}

// LoadSchemaFile reads and decodes a YAML mapping document.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mapping schema %s", path)
	}
	return ParseSchema(data)
}

// LoadYAML decodes a mapping document and builds the tree for typ.
// Named converters are resolved through reg.
func LoadYAML(data []byte, typ reflect.Type, reg *convert.Registry) (*Tree, error) {
	s, err := ParseSchema(data)
	if err != nil {
		return nil, err
	}
	return s.Tree(typ, reg)
}

// Tree builds the mapping tree for typ.
func (s *Schema) Tree(typ reflect.Type, reg *convert.Registry) (*Tree, error) {
	if reg == nil {
		reg = convert.NewDefaultRegistry()
	}
	return buildTree(typ, s.Fields, reg)
}

func buildTree(typ reflect.Type, fields []FieldSchema, reg *convert.Registry) (*Tree, error) {
	tree := NewTree(typ)
	if tree.Type().Kind() != reflect.Struct {
		return nil, faults.NewConfigurationError("LoadYAML", typ.String(), "mapping schemas describe struct types only")
	}
	for _, f := range fields {
		entry, err := buildEntry(tree.Type(), f, reg)
		if err != nil {
			return nil, err
		}
		if err := tree.Add(entry); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func buildEntry(owner reflect.Type, f FieldSchema, reg *convert.Registry) (Entry, error) {
	sf, ok := owner.FieldByName(f.Target)
	if !ok {
		return nil, faults.NewConfigurationError("LoadYAML", f.Target, "%s has no field of that name", owner)
	}
	source := f.Source.descriptor(f.Target)
	if f.RawType != "" || f.TypeCode != 0 {
		source = source.WithType(f.TypeCode, f.RawType)
	}

	switch {
	case f.IsCollection():
		var elem reflect.Type
		switch {
		case sf.Type.Kind() == reflect.Slice:
			elem = sf.Type.Elem()
		case sf.Type.Kind() == reflect.Map:
			elem = sf.Type.Key()
		default:
			return nil, faults.NewConfigurationError("LoadYAML", f.Target, "element type of %s cannot be resolved", sf.Type)
		}
		elements, err := buildTree(elem, f.Fields, reg)
		if err != nil {
			return nil, err
		}
		entry := NestedCollection(source, f.Target, ByName(f.Element), elements)
		if f.Kind != "" {
			kind, err := ParseKind(f.Kind)
			if err != nil {
				return nil, err
			}
			entry = entry.WithKind(kind)
		}
		return entry, nil

	case f.IsNested():
		child, err := buildTree(sf.Type, f.Fields, reg)
		if err != nil {
			return nil, err
		}
		return NestedObject(source, f.Target, child), nil
	}

	entry := Scalar(source, f.Target)
	if f.Converter != "" {
		c, ok := reg.Named(f.Converter)
		if !ok {
			return nil, faults.NewConfigurationError("LoadYAML", f.Target, "unknown converter %q", f.Converter)
		}
		entry = entry.WithConverter(c)
	}
	return entry, nil
}
