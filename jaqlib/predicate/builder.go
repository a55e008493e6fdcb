package predicate

// Builder grows a predicate by appending leaves, grouping left-associatively:
// a, AND b, OR c yields (a AND b) OR c.
type Builder struct {
	root Node
}

// And appends n with AND. The first appended node becomes the root.
func (b *Builder) And(n Node) *Builder {
	if b.root == nil {
		b.root = n
		return b
	}
	b.root = And(b.root, n)
	return b
}

// Or appends n with OR.
func (b *Builder) Or(n Node) *Builder {
	if b.root == nil {
		b.root = n
		return b
	}
	b.root = Or(b.root, n)
	return b
}

func (b *Builder) IsEmpty() bool {
	return b.root == nil
}

// Build returns the grown predicate, or True when nothing was appended.
func (b *Builder) Build() Node {
	if b.root == nil {
		return True()
	}
	return b.root
}
