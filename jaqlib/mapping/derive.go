package mapping

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// TagName is the struct tag read by Derive:
//
//	Balance  float64           `jaq:"balance"`
//	Owner    *Person           `jaq:"owner,nested"`
//	Orders   []Order           `jaq:"orders,collection,element=order"`
//	Tags     map[Tag]struct{}  `jaq:"tags,collection,element=tag"`
//	Opened   time.Time         `jaq:"opened,converter=epoch"`
//	Code     string            `jaq:",index=3"`
//	Internal string            `jaq:"-"`
const TagName = "jaq"

// NamingFunc derives the source field name from a Go field name when the tag
// does not name it.
type NamingFunc func(field string) string

func IdentityNaming(field string) string {
	return field
}

func LowerCase(field string) string {
	return strings.ToLower(field)
}

// SnakeCase turns "CreatedAt" into "created_at" and "UserID" into "user_id".
func SnakeCase(field string) string {
	runes := []rune(field)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NamingByName resolves the naming strategies accepted in configuration files.
func NamingByName(name string) (NamingFunc, error) {
	switch strings.ToLower(name) {
	case "", "identity", "exact":
		return IdentityNaming, nil
	case "lower", "lowercase":
		return LowerCase, nil
	case "snake", "snake_case":
		return SnakeCase, nil
	}
	return nil, faults.NewConfigurationError("NamingByName", name, "unknown naming strategy")
}

type DeriveOptions struct {
	Naming NamingFunc
	// Converters decides whether a struct-typed field is a scalar (time.Time,
	// uuid.UUID) and resolves converter= tag options.
	Converters *convert.Registry
}

type DeriveOption func(*DeriveOptions)

func WithNaming(n NamingFunc) DeriveOption {
	return func(o *DeriveOptions) {
		o.Naming = n
	}
}

func WithConverters(r *convert.Registry) DeriveOption {
	return func(o *DeriveOptions) {
		o.Converters = r
	}
}

func newDeriveOptions(opts []DeriveOption) DeriveOptions {
	o := DeriveOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Naming == nil {
		o.Naming = IdentityNaming
	}
	if o.Converters == nil {
		o.Converters = convert.NewDefaultRegistry()
	}
	return o
}

// Derive builds a mapping tree from the exported fields of typ.
// Self-referencing types share one tree.
func Derive(typ reflect.Type, opts ...DeriveOption) (*Tree, error) {
	d := deriver{opts: newDeriveOptions(opts), seen: make(map[reflect.Type]*Tree)}
	return d.derive(typ)
}

// DeriveFor is Derive for T.
func DeriveFor[T any](opts ...DeriveOption) (*Tree, error) {
	return Derive(reflect.TypeFor[T](), opts...)
}

type deriver struct {
	opts DeriveOptions
	seen map[reflect.Type]*Tree
}

type fieldTag struct {
	name       string
	skip       bool
	nested     bool
	collection bool
	element    string
	kind       string
	converter  string
	index      int
}

func parseTag(tag string) (fieldTag, error) {
	ft := fieldTag{index: -1}
	if tag == "-" {
		ft.skip = true
		return ft, nil
	}
	parts := strings.Split(tag, ",")
	ft.name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(p), "=")
		switch key {
		case "nested":
			ft.nested = true
		case "collection":
			ft.collection = true
		case "element":
			ft.element = val
			ft.collection = true
		case "kind":
			ft.kind = val
			ft.collection = true
		case "converter":
			ft.converter = val
		case "index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return ft, faults.NewConfigurationError("Derive", tag, "invalid index option %q", val)
			}
			ft.index = i
		case "":
		default:
			return ft, faults.NewConfigurationError("Derive", tag, "unknown tag option %q", key)
		}
	}
	return ft, nil
}

func (d *deriver) derive(typ reflect.Type) (*Tree, error) {
	typ = deref(typ)
	if typ.Kind() != reflect.Struct {
		return nil, faults.NewConfigurationError("Derive", typ.String(), "mapping can only be derived for struct types")
	}
	if tree, ok := d.seen[typ]; ok {
		return tree, nil
	}
	tree := NewTree(typ)
	d.seen[typ] = tree

	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() || (f.Anonymous && deref(f.Type).Kind() == reflect.Struct) {
			continue
		}
		if len(f.Index) > 1 && !promoted(typ, f) {
			continue
		}
		tag, err := parseTag(f.Tag.Get(TagName))
		if err != nil {
			return nil, err
		}
		if tag.skip {
			continue
		}
		entry, err := d.entry(f, tag)
		if err != nil {
			return nil, err
		}
		if err := tree.Add(entry); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// promoted reports whether a field of an embedded struct is reachable by name.
func promoted(typ reflect.Type, f reflect.StructField) bool {
	got, ok := typ.FieldByName(f.Name)
	return ok && len(got.Index) == len(f.Index)
}

func (d *deriver) entry(f reflect.StructField, tag fieldTag) (Entry, error) {
	name := tag.name
	if name == "" {
		name = d.opts.Naming(f.Name)
	}
	source := ByName(name)
	if tag.index >= 0 {
		source = ByIndex(tag.index)
	}

	if tag.converter != "" {
		c, ok := d.opts.Converters.Named(tag.converter)
		if !ok {
			return nil, faults.NewConfigurationError("Derive", f.Name, "unknown converter %q", tag.converter)
		}
		return Scalar(source, f.Name).WithConverter(c), nil
	}

	if tag.collection || d.isEntityCollection(f.Type) {
		elemType, err := d.collectionElement(f.Type)
		if err != nil {
			return nil, err
		}
		elements, err := d.derive(elemType)
		if err != nil {
			return nil, err
		}
		element := tag.element
		if element == "" {
			element = d.opts.Naming(deref(elemType).Name())
		}
		entry := NestedCollection(source, f.Name, ByName(element), elements)
		if tag.kind != "" {
			kind, err := ParseKind(tag.kind)
			if err != nil {
				return nil, err
			}
			entry = entry.WithKind(kind)
		}
		return entry, nil
	}

	if tag.nested || d.isEntity(f.Type) {
		child, err := d.derive(f.Type)
		if err != nil {
			return nil, err
		}
		return NestedObject(source, f.Name, child), nil
	}

	return Scalar(source, f.Name), nil
}

// isEntity reports whether t is a struct (or pointer to one) that no converter
// handles.
func (d *deriver) isEntity(t reflect.Type) bool {
	return deref(t).Kind() == reflect.Struct && !d.opts.Converters.Has(t) && !d.opts.Converters.Has(deref(t))
}

func (d *deriver) isEntityCollection(t reflect.Type) bool {
	if _, ok := KindOf(t); !ok || t == listType {
		return false
	}
	elem := t.Elem()
	if t.Kind() == reflect.Map {
		elem = t.Key()
	}
	return d.isEntity(elem)
}

// collectionElement returns the element struct type of a collection field.
// Interface-typed and *list.List fields carry no element type and need a
// struct element declared through the tree API instead.
func (d *deriver) collectionElement(t reflect.Type) (reflect.Type, error) {
	switch {
	case t.Kind() == reflect.Slice:
		return t.Elem(), nil
	case t.Kind() == reflect.Map && isSetValue(t.Elem()):
		return t.Key(), nil
	}
	return nil, faults.NewConfigurationError("Derive", t.String(), "element type of %s cannot be derived", t)
}

// Cache keeps one derived, frozen tree per type.
type Cache struct {
	mu    sync.RWMutex
	trees map[reflect.Type]*Tree
	opts  []DeriveOption
}

func NewCache(opts ...DeriveOption) *Cache {
	return &Cache{
		trees: make(map[reflect.Type]*Tree),
		opts:  opts,
	}
}

// Get returns the cached tree for typ, deriving and freezing it on first use.
func (c *Cache) Get(typ reflect.Type) (*Tree, error) {
	typ = deref(typ)
	c.mu.RLock()
	tree, ok := c.trees[typ]
	c.mu.RUnlock()
	if ok {
		return tree, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tree, ok := c.trees[typ]; ok {
		return tree, nil
	}
	tree, err := Derive(typ, c.opts...)
	if err != nil {
		return nil, err
	}
	tree.Freeze()
	c.trees[typ] = tree
	return tree, nil
}

// Put registers an explicit tree for its type, replacing any derived one.
func (c *Cache) Put(tree *Tree) {
	tree.Freeze()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[tree.Type()] = tree
}
