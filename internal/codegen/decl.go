package codegen

import (
	"sort"
	"strings"
)

// Decl is a top-level declaration.
type Decl interface {
	renderDecl(b *strings.Builder)
}

// Func is a function declaration.
type Func struct {
	Doc     string
	Name    string
	Params  string
	Results string
	Body    []Stmt
}

func (d Func) renderDecl(b *strings.Builder) {
	writeDoc(b, d.Doc)
	b.WriteString("func " + d.Name + "(" + d.Params + ")")
	if d.Results != "" {
		b.WriteString(" " + d.Results)
	}
	b.WriteString(" {\n")
	renderBlock(b, d.Body)
	b.WriteString("}\n")
}

// Var is a package-level variable.
type Var struct {
	Doc   string
	Name  string
	Type  string
	Value Expr
}

func (d Var) renderDecl(b *strings.Builder) {
	writeDoc(b, d.Doc)
	b.WriteString("var " + d.Name)
	if d.Type != "" {
		b.WriteString(" " + d.Type)
	}
	if d.Value != nil {
		b.WriteString(" = ")
		d.Value.render(b)
	}
	b.WriteByte('\n')
}

// Const is a package-level constant.
type Const struct {
	Doc   string
	Name  string
	Value Expr
}

func (d Const) renderDecl(b *strings.Builder) {
	writeDoc(b, d.Doc)
	b.WriteString("const " + d.Name + " = ")
	d.Value.render(b)
	b.WriteByte('\n')
}

// Span groups the declarations emitted for one node. The printer
// brackets it with begin and end markers.
type Span struct {
	NodeID string
	Decls  []Decl
}

func (d Span) renderDecl(b *strings.Builder) {
	for i, inner := range d.Decls {
		if i > 0 {
			b.WriteByte('\n')
		}
		inner.renderDecl(b)
	}
}

// File is a complete Go source file.
type File struct {
	// Header lines are written as line comments above the package clause.
	Header  []string
	Package string
	Imports []string
	Decls   []Decl
}

func writeDoc(b *strings.Builder, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		b.WriteString("// " + line + "\n")
	}
}

// importGroups splits paths into the standard library group and the rest.
func importGroups(paths []string) (std, other []string) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		first, _, _ := strings.Cut(p, "/")
		if strings.Contains(first, ".") {
			other = append(other, p)
		} else {
			std = append(std, p)
		}
	}
	sort.Strings(std)
	sort.Strings(other)
	return std, other
}
