package recordergen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapes = `package shapes

import (
	"fmt"
	"time"
)

type Label interface {
	Text() string
}

type Shape interface {
	Area() float64
	Scaled(factor int) Shape
	Label() Label
}

type Clock interface {
	Label
	fmt.Stringer
}

type Timed interface {
	Since(start time.Time) (time.Duration, error)
	Reset()
	Move(_ int, dx, dy float64)
	Tags() []string
	Find(s string) (Shape, error)
}

type number interface {
	~int | ~float64
}
`

const wantShapes = `// Code generated by jaq gen-recorder. DO NOT EDIT.

package shapes

import (
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

type labelStandIn struct {
	trail recorder.Trail
}

func newLabelStandIn(t recorder.Trail) Label {
	return &labelStandIn{trail: t}
}

func (s *labelStandIn) Text() (_ string) {
	s.trail.Record("Text")
	return
}

type shapeStandIn struct {
	trail recorder.Trail
}

func newShapeStandIn(t recorder.Trail) Shape {
	return &shapeStandIn{trail: t}
}

func (s *shapeStandIn) Area() (_ float64) {
	s.trail.Record("Area")
	return
}

func (s *shapeStandIn) Scaled(factor int) Shape {
	return recorder.Chain[Shape](s.trail.Record("Scaled", factor))
}

func (s *shapeStandIn) Label() Label {
	return recorder.Chain[Label](s.trail.Record("Label"))
}

// RegisterStandIns adds the generated stand-ins to reg.
func RegisterStandIns(reg *recorder.Registry) {
	recorder.RegisterStandIn(reg, newLabelStandIn)
	recorder.RegisterStandIn(reg, newShapeStandIn)
}
`

func assertSource(t *testing.T, want string, got []byte) {
	t.Helper()
	if want != string(got) {
		dmp := diffmatchpatch.New()
		t.Errorf("generated source differs:\n%s", dmp.DiffPrettyText(dmp.DiffMain(want, string(got), false)))
	}
}

func TestGenerateSelectedTypes(t *testing.T) {
	got, err := Generate("shapes.go", []byte(shapes), Config{Types: []string{"Label", "Shape"}})
	require.NoError(t, err)
	assertSource(t, wantShapes, got)
}

func TestGenerateMethods(t *testing.T) {
	got, err := Generate("shapes.go", []byte(shapes), Config{Types: []string{"Timed"}})
	require.NoError(t, err)
	src := string(got)

	tests := []struct {
		name string
		want string
	}{
		{"imports used packages only", "\t\"time\"\n"},
		{"chains with error", "return recorder.Chain[Shape](s.trail.Record(\"Find\", p0)), nil"},
		{"zero with error", "func (s *timedStandIn) Since(start time.Time) (time.Duration, error)"},
		{"no result", "func (s *timedStandIn) Reset() {\n\ts.trail.Record(\"Reset\")\n}"},
		{"blank parameters are named", "func (s *timedStandIn) Move(p0 int, dx float64, dy float64)"},
		{"unnamed slice result", "func (s *timedStandIn) Tags() (_ []string)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, src, tt.want)
		})
	}
	assert.NotContains(t, src, `"fmt"`)

	_, err = parser.ParseFile(token.NewFileSet(), "out.go", got, parser.AllErrors)
	assert.NoError(t, err)
}

func TestGenerateEmbedded(t *testing.T) {
	got, err := Generate("shapes.go", []byte(shapes), Config{Types: []string{"Clock"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fmt.Stringer")
	assert.Nil(t, got)

	src := strings.Replace(shapes, "\tfmt.Stringer\n", "\terror\n", 1)
	got, err = Generate("shapes.go", []byte(src), Config{Types: []string{"Clock"}})
	require.NoError(t, err)
	assert.Contains(t, string(got), "func (s *clockStandIn) Text() (_ string)")
	assert.Contains(t, string(got), "func (s *clockStandIn) Error() (_ string)")
}

func TestGenerateAllExported(t *testing.T) {
	src := strings.Replace(shapes, "\tfmt.Stringer\n", "", 1)
	got, err := Generate("shapes.go", []byte(src), Config{Package: "shapes_test"})
	require.NoError(t, err)
	out := string(got)

	assert.Contains(t, out, "package shapes_test")
	for _, name := range []string{"Label", "Shape", "Clock", "Timed"} {
		assert.Contains(t, out, "recorder.RegisterStandIn(reg, new"+name+"StandIn)")
	}
	assert.NotContains(t, out, "numberStandIn")
	assert.Less(t, strings.Index(out, "newLabelStandIn)"), strings.Index(out, "newTimedStandIn)"))
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		cfg  Config
		want string
	}{
		{"syntax", "package x\ntype", Config{}, "unable to parse"},
		{"no interfaces", "package x\ntype A struct{}\n", Config{}, "no exported interfaces"},
		{"unknown type", shapes, Config{Types: []string{"Missing"}}, "not declared"},
		{"generic", "package x\ntype G[T any] interface{ Get() T }\n", Config{Types: []string{"G"}}, "type parameters"},
		{"variadic", "package x\ntype V interface{ Log(args ...any) }\n", Config{}, "variadic"},
		{"three results", "package x\ntype V interface{ Get() (int, int, error) }\n", Config{}, "3 values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate("x.go", []byte(tt.src), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerateFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "shapes.go")
	require.NoError(t, os.WriteFile(name, []byte(shapes), 0o600))

	got, err := GenerateFile(name, Config{Types: []string{"Label", "Shape"}})
	require.NoError(t, err)
	assertSource(t, wantShapes, got)

	_, err = GenerateFile(filepath.Join(t.TempDir(), "none.go"), Config{})
	assert.Error(t, err)
}
