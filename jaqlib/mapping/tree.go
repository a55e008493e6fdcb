package mapping

import (
	"reflect"
	"sync"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// Tree is the ordered set of mapping entries for one target struct type.
// Target names are unique. A frozen tree rejects changes.
type Tree struct {
	mu      sync.RWMutex
	typ     reflect.Type
	entries []Entry
	index   map[string]int
	frozen  bool
}

// NewTree creates an empty tree for typ. Pointer types are reduced to their
// element type.
func NewTree(typ reflect.Type) *Tree {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return &Tree{
		typ:   typ,
		index: make(map[string]int),
	}
}

// NewTreeFor creates an empty tree for T.
func NewTreeFor[T any]() *Tree {
	return NewTree(reflect.TypeFor[T]())
}

func (t *Tree) Type() reflect.Type {
	return t.typ
}

// Add appends the entry, resolving its target type from the struct field of
// the same name.
func (t *Tree) Add(e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return faults.NewConfigurationError("Tree.Add", e.Target(), "mapping tree for %s is frozen", t.typeName())
	}
	if e.Target() == "" {
		return faults.NewConfigurationError("Tree.Add", t.typeName(), "mapping entry has no target name")
	}
	if _, ok := t.index[e.Target()]; ok {
		return faults.NewConfigurationError("Tree.Add", e.Target(), "duplicate target name in mapping for %s", t.typeName())
	}
	resolved, err := t.resolve(e)
	if err != nil {
		return err
	}
	t.index[e.Target()] = len(t.entries)
	t.entries = append(t.entries, resolved)
	return nil
}

// MustAdd adds all entries and panics on the first error.
func (t *Tree) MustAdd(entries ...Entry) *Tree {
	for _, e := range entries {
		if err := t.Add(e); err != nil {
			panic(err)
		}
	}
	return t
}

func (t *Tree) Remove(target string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return faults.NewConfigurationError("Tree.Remove", target, "mapping tree for %s is frozen", t.typeName())
	}
	i, ok := t.index[target]
	if !ok {
		return faults.NewConfigurationError("Tree.Remove", target, "no mapping entry in %s", t.typeName())
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, target)
	for name, j := range t.index {
		if j > i {
			t.index[name] = j - 1
		}
	}
	return nil
}

func (t *Tree) Get(target string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[target]
	if !ok {
		return nil, false
	}
	return t.entries[i], true
}

// Entries returns the entries in insertion order.
func (t *Tree) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Freeze makes the tree and every sub-tree immutable.
func (t *Tree) Freeze() {
	t.freeze(make(map[*Tree]bool))
}

func (t *Tree) freeze(seen map[*Tree]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	t.mu.Lock()
	t.frozen = true
	entries := t.entries
	t.mu.Unlock()
	for _, e := range entries {
		switch e := e.(type) {
		case NestedObjectMapping:
			e.child.freeze(seen)
		case NestedCollectionMapping:
			e.elements.freeze(seen)
		}
	}
}

func (t *Tree) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Accept visits every entry in insertion order and stops at the first error.
func (t *Tree) Accept(v Visitor) error {
	for _, e := range t.Entries() {
		if err := e.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) typeName() string {
	if t.typ == nil {
		return "<nil>"
	}
	return t.typ.String()
}

func (t *Tree) fieldType(e Entry) (reflect.Type, error) {
	if t.typ == nil || t.typ.Kind() != reflect.Struct {
		return nil, nil
	}
	f, ok := t.typ.FieldByName(e.Target())
	if !ok || !f.IsExported() {
		return nil, faults.NewConfigurationError("Tree.Add", e.Target(), "%s has no exported field of that name", t.typ)
	}
	return f.Type, nil
}

func (t *Tree) resolve(e Entry) (Entry, error) {
	ft, err := t.fieldType(e)
	if err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case ScalarMapping:
		if e.targetType == nil {
			e.targetType = ft
		}
		if e.targetType == nil {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "scalar mapping has no target type")
		}
		if e.source.IsZero() {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "scalar mapping has no source field")
		}
		return e, nil

	case NestedObjectMapping:
		if e.targetType == nil {
			e.targetType = ft
		}
		if e.targetType == nil || e.child == nil {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "nested object mapping needs a target type and a child tree")
		}
		if deref(e.targetType) != e.child.Type() && e.targetType.Kind() != reflect.Interface {
			return nil, faults.NewConfigurationError("Tree.Add", e.target,
				"child tree maps %s but the field holds %s", e.child.Type(), e.targetType)
		}
		return e, nil

	case NestedCollectionMapping:
		if e.collectionType == nil {
			e.collectionType = ft
		}
		if e.collectionType == nil || e.elements == nil {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "nested collection mapping needs a collection type and an element tree")
		}
		if e.element.IsZero() {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "nested collection mapping has no element descriptor")
		}
		return resolveCollection(e)

	default:
		return nil, faults.NewConfigurationError("Tree.Add", e.Target(), "unsupported mapping entry %T", e)
	}
}

func resolveCollection(e NestedCollectionMapping) (Entry, error) {
	ct := e.collectionType
	if kind, ok := KindOf(ct); ok {
		if e.kindSet && kind != e.kind {
			return nil, faults.NewConfigurationError("Tree.Add", e.target, "field of type %s cannot hold a %s", ct, e.kind)
		}
		e.kind = kind
		switch kind {
		case KindList:
			e.elementType = ct.Elem()
		case KindSet:
			e.elementType = ct.Key()
		case KindQueue:
			e.elementType = reflect.PointerTo(e.elements.Type())
		}
	} else if ct.Kind() == reflect.Interface {
		e.elementType = reflect.PointerTo(e.elements.Type())
	} else {
		return nil, faults.NewConfigurationError("Tree.Add", e.target, "%s is not a collection type", ct)
	}
	if deref(e.elementType) != e.elements.Type() && e.elementType.Kind() != reflect.Interface {
		return nil, faults.NewConfigurationError("Tree.Add", e.target,
			"element tree maps %s but the collection holds %s", e.elements.Type(), e.elementType)
	}
	return e, nil
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
