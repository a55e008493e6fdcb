package materialize

// FieldSkipped is published when the lenient policy leaves a target field unset
// because the source has no such field.
type FieldSkipped struct {
	Type     string
	Target   string
	Source   string
	Position string
}
