package mapping

import (
	"fmt"
	"strings"
)

// FieldDescriptor identifies a raw field at the source, by name or by position.
// For tabular sources it may also declare the raw column type.
type FieldDescriptor struct {
	name       string
	index      int
	positional bool
	typeCode   int
	typeName   string
}

// ByName addresses a raw field by name. For tree sources the name is a path
// relative to the current record ("owner/name", "@id").
func ByName(name string) FieldDescriptor {
	return FieldDescriptor{name: name}
}

// ByIndex addresses a raw field by zero-based position.
func ByIndex(index int) FieldDescriptor {
	return FieldDescriptor{index: index, positional: true}
}

// WithType declares the raw type code and name of the field.
func (d FieldDescriptor) WithType(code int, name string) FieldDescriptor {
	d.typeCode = code
	d.typeName = name
	return d
}

func (d FieldDescriptor) Name() string {
	return d.name
}

// Index returns the positional index, or -1 when the field is addressed by name.
func (d FieldDescriptor) Index() int {
	if !d.positional {
		return -1
	}
	return d.index
}

func (d FieldDescriptor) Positional() bool {
	return d.positional
}

func (d FieldDescriptor) TypeCode() int {
	return d.typeCode
}

func (d FieldDescriptor) TypeName() string {
	return d.typeName
}

// IsZero reports whether the descriptor addresses nothing.
func (d FieldDescriptor) IsZero() bool {
	return d.name == "" && !d.positional
}

func (d FieldDescriptor) String() string {
	var b strings.Builder
	if d.positional {
		fmt.Fprintf(&b, "#%d", d.index)
	} else {
		b.WriteString(d.name)
	}
	switch {
	case d.typeName != "":
		b.WriteString(":")
		b.WriteString(d.typeName)
	case d.typeCode != 0:
		fmt.Fprintf(&b, ":%d", d.typeCode)
	}
	return b.String()
}
