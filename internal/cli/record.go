package cli

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// fieldTypes are the target types a mapping schema may name. A trailing "?"
// makes the field nullable.
var fieldTypes = map[string]reflect.Type{
	"":         reflect.TypeFor[string](),
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int64](),
	"float":    reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"time":     reflect.TypeFor[time.Time](),
	"duration": reflect.TypeFor[time.Duration](),
	"uuid":     reflect.TypeFor[uuid.UUID](),
	"ulid":     reflect.TypeFor[ulid.ULID](),
	"bytes":    reflect.TypeFor[[]byte](),
}

// recordType builds the struct type a schema describes. Nested objects become
// struct pointers, collections slices of structs.
func recordType(fields []mapping.FieldSchema) (reflect.Type, error) {
	out := make([]reflect.StructField, 0, len(fields))
	for _, f := range fields {
		if !token.IsIdentifier(f.Target) || !token.IsExported(f.Target) {
			return nil, faults.NewConfigurationError("jaq query", f.Target, "target must be an exported Go identifier")
		}
		var typ reflect.Type
		switch {
		case f.IsCollection():
			elem, err := recordType(f.Fields)
			if err != nil {
				return nil, err
			}
			typ = reflect.SliceOf(elem)
		case f.IsNested():
			child, err := recordType(f.Fields)
			if err != nil {
				return nil, err
			}
			typ = reflect.PointerTo(child)
		default:
			name, nullable := strings.CutSuffix(f.Type, "?")
			t, ok := fieldTypes[name]
			if !ok {
				return nil, faults.NewConfigurationError("jaq query", f.Target, "unknown type %q", f.Type)
			}
			if nullable {
				t = reflect.PointerTo(t)
			}
			typ = t
		}
		out = append(out, reflect.StructField{
			Name: f.Target,
			Type: typ,
			Tag:  reflect.StructTag(fmt.Sprintf(`json:"%s"`, f.Target)),
		})
	}
	return reflect.StructOf(out), nil
}

// fieldType resolves a dotted path through typ.
func fieldType(typ reflect.Type, path []string) (reflect.Type, error) {
	for i, name := range path {
		for typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			return nil, faults.NewConfigurationError("jaq query", strings.Join(path[:i+1], "."), "%s is not a nested object", strings.Join(path[:i], "."))
		}
		sf, ok := typ.FieldByName(name)
		if !ok {
			return nil, faults.NewConfigurationError("jaq query", strings.Join(path[:i+1], "."), "no such field")
		}
		typ = sf.Type
	}
	return typ, nil
}
