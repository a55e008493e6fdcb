// Package mapping describes how raw source fields land in target struct fields.
//
// A Tree is an ordered set of entries keyed by target field name. Scalar entries
// copy one raw value, NestedObject entries build a child object from a sub-tree
// and NestedCollection entries build one element per matching child record.
package mapping

import (
	"reflect"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/convert"
)

type Entry interface {
	Target() string
	Source() FieldDescriptor
	Accept(Visitor) error
}

type Visitor interface {
	VisitScalar(ScalarMapping) error
	VisitNestedObject(NestedObjectMapping) error
	VisitNestedCollection(NestedCollectionMapping) error
}

// Scalar maps one raw field onto the target field. The target type is taken from
// the owning tree's struct type when the entry is added.
func Scalar(source FieldDescriptor, target string) ScalarMapping {
	return ScalarMapping{
		source: source,
		target: target,
	}
}

type ScalarMapping struct {
	source     FieldDescriptor
	target     string
	targetType reflect.Type
	converter  convert.ValueConverter
}

func (e ScalarMapping) Source() FieldDescriptor {
	return e.source
}

func (e ScalarMapping) Target() string {
	return e.target
}

func (e ScalarMapping) TargetType() reflect.Type {
	return e.targetType
}

// Converter returns the explicitly bound converter, or nil.
func (e ScalarMapping) Converter() convert.ValueConverter {
	return e.converter
}

func (e ScalarMapping) WithConverter(c convert.ValueConverter) ScalarMapping {
	e.converter = c
	return e
}

func (e ScalarMapping) WithTargetType(t reflect.Type) ScalarMapping {
	e.targetType = t
	return e
}

func (e ScalarMapping) Accept(v Visitor) error {
	return v.VisitScalar(e)
}

// NestedObject maps a raw child record onto a target field holding a struct or
// a pointer to one.
func NestedObject(source FieldDescriptor, target string, child *Tree) NestedObjectMapping {
	return NestedObjectMapping{
		source: source,
		target: target,
		child:  child,
	}
}

type NestedObjectMapping struct {
	source     FieldDescriptor
	target     string
	targetType reflect.Type
	child      *Tree
}

func (e NestedObjectMapping) Source() FieldDescriptor {
	return e.source
}

func (e NestedObjectMapping) Target() string {
	return e.target
}

func (e NestedObjectMapping) TargetType() reflect.Type {
	return e.targetType
}

func (e NestedObjectMapping) Child() *Tree {
	return e.child
}

func (e NestedObjectMapping) WithTargetType(t reflect.Type) NestedObjectMapping {
	e.targetType = t
	return e
}

func (e NestedObjectMapping) Accept(v Visitor) error {
	return v.VisitNestedObject(e)
}

// NestedCollection maps every raw child record named element below source onto
// one element of the target collection field.
func NestedCollection(source FieldDescriptor, target string, element FieldDescriptor, elements *Tree) NestedCollectionMapping {
	return NestedCollectionMapping{
		source:   source,
		target:   target,
		element:  element,
		elements: elements,
		kind:     KindList,
	}
}

type NestedCollectionMapping struct {
	source         FieldDescriptor
	target         string
	element        FieldDescriptor
	elements       *Tree
	collectionType reflect.Type
	elementType    reflect.Type
	kind           Kind
	kindSet        bool
}

func (e NestedCollectionMapping) Source() FieldDescriptor {
	return e.source
}

func (e NestedCollectionMapping) Target() string {
	return e.target
}

// Element returns the descriptor selecting child records below Source.
func (e NestedCollectionMapping) Element() FieldDescriptor {
	return e.element
}

func (e NestedCollectionMapping) Elements() *Tree {
	return e.elements
}

// CollectionType returns the declared type of the target field.
func (e NestedCollectionMapping) CollectionType() reflect.Type {
	return e.collectionType
}

// ElementType returns the type of the values stored in the collection.
func (e NestedCollectionMapping) ElementType() reflect.Type {
	return e.elementType
}

func (e NestedCollectionMapping) Kind() Kind {
	return e.kind
}

// WithKind selects the abstract collection kind used when the target field is
// declared as an interface.
func (e NestedCollectionMapping) WithKind(k Kind) NestedCollectionMapping {
	e.kind = k
	e.kindSet = true
	return e
}

func (e NestedCollectionMapping) WithCollectionType(t reflect.Type) NestedCollectionMapping {
	e.collectionType = t
	return e
}

func (e NestedCollectionMapping) Accept(v Visitor) error {
	return v.VisitNestedCollection(e)
}
