// Package recordergen writes recorder stand-ins for interface types.
//
// Struct types get their stand-ins at run time; interfaces cannot, so their
// stand-ins are generated from source. For
//
//	type Shape interface {
//		Area() float64
//		Scaled(factor int) Shape
//	}
//
// it emits a shapeStandIn whose methods record the call and return either the
// zero value or, for named result types, the chained stand-in, plus a
// RegisterStandIns function adding every generated factory to a registry.
package recordergen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const recorderImport = "github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"

// Config selects what to generate.
type Config struct {
	// Types lists the interfaces to generate; empty means every exported
	// non-generic interface of the file.
	Types []string
	// Package overrides the package clause of the output.
	Package string
}

// GenerateFile reads filename and generates stand-ins for its interfaces.
func GenerateFile(filename string, cfg Config) ([]byte, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read source")
	}
	return Generate(filename, src, cfg)
}

// Generate returns the formatted stand-in source for the interfaces in src.
func Generate(filename string, src []byte, cfg Config) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", filename)
	}
	g := &generator{
		fset:       fset,
		interfaces: collectInterfaces(file),
		imports:    collectImports(file),
		used:       make(map[string]string),
	}

	names := cfg.Types
	if len(names) == 0 {
		names = g.exported()
		if len(names) == 0 {
			return nil, errors.Errorf("%s declares no exported interfaces", filename)
		}
	}

	var body bytes.Buffer
	for _, name := range names {
		if err := g.standIn(&body, name); err != nil {
			return nil, err
		}
	}

	pkg := cfg.Package
	if pkg == "" {
		pkg = file.Name.Name
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by jaq gen-recorder. DO NOT EDIT.\n\npackage %s\n\n", pkg)
	g.writeImports(&out)
	out.Write(body.Bytes())
	fmt.Fprintf(&out, "// RegisterStandIns adds the generated stand-ins to reg.\n")
	fmt.Fprintf(&out, "func RegisterStandIns(reg *recorder.Registry) {\n")
	for _, name := range names {
		fmt.Fprintf(&out, "\trecorder.RegisterStandIn(reg, %s)\n", constructorName(name))
	}
	fmt.Fprintf(&out, "}\n")

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "generated source does not format")
	}
	return formatted, nil
}

type declared struct {
	spec  *ast.TypeSpec
	iface *ast.InterfaceType
}

type generator struct {
	fset       *token.FileSet
	interfaces map[string]declared
	order      []string
	imports    map[string]string
	used       map[string]string
}

func collectInterfaces(file *ast.File) map[string]declared {
	out := make(map[string]declared)
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if it, ok := ts.Type.(*ast.InterfaceType); ok {
				out[ts.Name.Name] = declared{spec: ts, iface: it}
			}
		}
	}
	return out
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// collectImports maps the local name of every import to its path.
func collectImports(file *ast.File) map[string]string {
	out := make(map[string]string)
	for _, spec := range file.Imports {
		p := strings.Trim(spec.Path.Value, `"`)
		if spec.Name != nil {
			out[spec.Name.Name] = p
			continue
		}
		out[importName(p)] = p
	}
	return out
}

func importName(p string) string {
	name := path.Base(p)
	if majorVersion.MatchString(name) && path.Dir(p) != "." {
		name = path.Base(path.Dir(p))
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (g *generator) exported() []string {
	var names []string
	for name, d := range g.interfaces {
		if ast.IsExported(name) && d.spec.TypeParams == nil && !isConstraint(d.iface) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return g.interfaces[names[i]].spec.Pos() < g.interfaces[names[j]].spec.Pos()
	})
	return names
}

func isConstraint(it *ast.InterfaceType) bool {
	for _, f := range it.Methods.List {
		if len(f.Names) == 0 {
			switch f.Type.(type) {
			case *ast.Ident, *ast.SelectorExpr:
			default:
				return true
			}
		}
	}
	return false
}

type method struct {
	name   string
	params *ast.FieldList
	result *ast.FieldList
}

// methods flattens embedded interfaces of the same file and error.
func (g *generator) methods(name string, seen map[string]bool) ([]method, error) {
	if seen[name] {
		return nil, nil
	}
	seen[name] = true
	if name == "error" {
		return []method{{
			name:   "Error",
			params: &ast.FieldList{},
			result: &ast.FieldList{List: []*ast.Field{{Type: ast.NewIdent("string")}}},
		}}, nil
	}
	d, ok := g.interfaces[name]
	if !ok {
		return nil, errors.Errorf("interface %s is not declared in this file", name)
	}
	if d.spec.TypeParams != nil {
		return nil, errors.Errorf("interface %s has type parameters", name)
	}
	var out []method
	for _, f := range d.iface.Methods.List {
		switch t := f.Type.(type) {
		case *ast.FuncType:
			for _, n := range f.Names {
				out = append(out, method{name: n.Name, params: t.Params, result: t.Results})
			}
		case *ast.Ident:
			embedded, err := g.methods(t.Name, seen)
			if err != nil {
				return nil, errors.Wrapf(err, "embedded in %s", name)
			}
			out = append(out, embedded...)
		default:
			return nil, errors.Errorf("interface %s embeds %s, which cannot be resolved from this file", name, g.render(f.Type))
		}
	}
	return out, nil
}

func (g *generator) standIn(w *bytes.Buffer, name string) error {
	methods, err := g.methods(name, make(map[string]bool))
	if err != nil {
		return err
	}
	typ := structName(name)
	fmt.Fprintf(w, "type %s struct {\n\ttrail recorder.Trail\n}\n\n", typ)
	fmt.Fprintf(w, "func %s(t recorder.Trail) %s {\n\treturn &%s{trail: t}\n}\n\n", constructorName(name), name, typ)
	for _, m := range methods {
		if err := g.method(w, typ, m); err != nil {
			return errors.Wrapf(err, "%s.%s", name, m.name)
		}
	}
	return nil
}

func (g *generator) method(w *bytes.Buffer, typ string, m method) error {
	var params, args []string
	for _, f := range m.params.List {
		if _, ok := f.Type.(*ast.Ellipsis); ok {
			return errors.New("variadic methods cannot be replayed")
		}
		t := g.render(f.Type)
		names := f.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, n := range names {
			pn := fmt.Sprintf("p%d", len(params))
			if n != nil && !reserved[n.Name] {
				pn = n.Name
			}
			params = append(params, pn+" "+t)
			args = append(args, pn)
		}
	}
	record := fmt.Sprintf("s.trail.Record(%q", m.name)
	if len(args) > 0 {
		record += ", " + strings.Join(args, ", ")
	}
	record += ")"

	var results []ast.Expr
	if m.result != nil {
		for _, f := range m.result.List {
			n := len(f.Names)
			if n == 0 {
				n = 1
			}
			for range n {
				results = append(results, f.Type)
			}
		}
	}
	signature := fmt.Sprintf("func (s *%s) %s(%s)", typ, m.name, strings.Join(params, ", "))

	switch {
	case len(results) == 0:
		fmt.Fprintf(w, "%s {\n\t%s\n}\n\n", signature, record)
	case len(results) == 1 && chainable(results[0]):
		fmt.Fprintf(w, "%s %s {\n\treturn recorder.Chain[%s](%s)\n}\n\n", signature, g.render(results[0]), g.render(results[0]), record)
	case len(results) == 1:
		fmt.Fprintf(w, "%s (_ %s) {\n\t%s\n\treturn\n}\n\n", signature, g.render(results[0]), record)
	case len(results) == 2 && isError(results[1]) && chainable(results[0]):
		r := g.render(results[0])
		fmt.Fprintf(w, "%s (%s, error) {\n\treturn recorder.Chain[%s](%s), nil\n}\n\n", signature, r, r, record)
	case len(results) == 2 && isError(results[1]):
		fmt.Fprintf(w, "%s (_ %s, _ error) {\n\t%s\n\treturn\n}\n\n", signature, g.render(results[0]), record)
	default:
		return errors.Errorf("methods returning %d values cannot be replayed", len(results))
	}
	return nil
}

// chainable reports whether a result type may have a registered stand-in:
// named types other than the predeclared ones.
func chainable(t ast.Expr) bool {
	switch t := t.(type) {
	case *ast.Ident:
		return !predeclared[t.Name]
	case *ast.SelectorExpr:
		return true
	}
	return false
}

func isError(t ast.Expr) bool {
	id, ok := t.(*ast.Ident)
	return ok && id.Name == "error"
}

// reserved parameter names would shadow the receiver or the recorder package.
var reserved = map[string]bool{"_": true, "s": true, "recorder": true}

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true, "int8": true,
	"int16": true, "int32": true, "int64": true, "rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true,
}

// render prints a type expression and notes the imports it refers to.
func (g *generator) render(t ast.Expr) string {
	ast.Inspect(t, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				if p, ok := g.imports[id.Name]; ok {
					g.used[id.Name] = p
				}
			}
		}
		return true
	})
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, g.fset, t)
	return buf.String()
}

func (g *generator) writeImports(w *bytes.Buffer) {
	type spec struct{ name, path string }
	specs := []spec{{path: recorderImport}}
	for name, p := range g.used {
		if importName(p) == name {
			name = ""
		}
		specs = append(specs, spec{name: name, path: p})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].path < specs[j].path })

	w.WriteString("import (\n")
	for _, s := range specs {
		if s.name != "" {
			fmt.Fprintf(w, "\t%s %q\n", s.name, s.path)
		} else {
			fmt.Fprintf(w, "\t%q\n", s.path)
		}
	}
	w.WriteString(")\n\n")
}

func structName(iface string) string {
	r := []rune(iface)
	r[0] = unicode.ToLower(r[0])
	return string(r) + "StandIn"
}

func constructorName(iface string) string {
	return "new" + iface + "StandIn"
}
