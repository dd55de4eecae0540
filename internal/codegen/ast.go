// Package codegen is a small statement-level AST for the Go programs
// emitted by flowbot, plus a printer that formats them and records the byte
// span of every node's declarations.
package codegen

import (
	"strconv"
	"strings"
)

// Expr is a Go expression.
type Expr interface {
	render(b *strings.Builder)
}

// Stmt is a Go statement.
type Stmt interface {
	renderStmt(b *strings.Builder)
}

// Ident is an identifier or any pre-rendered expression text.
type Ident string

func (e Ident) render(b *strings.Builder) { b.WriteString(string(e)) }

// Lit is a literal rendered from a Go value.
type Lit struct {
	Value any
}

func (e Lit) render(b *strings.Builder) {
	switch v := e.Value.(type) {
	case string:
		b.WriteString(strconv.Quote(v))
	case int:
		b.WriteString(strconv.Itoa(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("nil")
	default:
		panic("codegen: unsupported literal type")
	}
}

// String returns a quoted string literal.
func String(s string) Expr { return Lit{Value: s} }

// Int returns an integer literal.
func Int(n int) Expr { return Lit{Value: n} }

// Nil is the nil literal.
var Nil Expr = Lit{}

// Call is a function or method call.
type Call struct {
	Fun  string
	Args []Expr
}

func (e Call) render(b *strings.Builder) {
	b.WriteString(e.Fun)
	b.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.render(b)
	}
	b.WriteByte(')')
}

// CallOf builds a Call.
func CallOf(fun string, args ...Expr) Call {
	return Call{Fun: fun, Args: args}
}

// Not negates an expression.
type Not struct {
	X Expr
}

func (e Not) render(b *strings.Builder) {
	b.WriteByte('!')
	e.X.render(b)
}

// Binary joins operands with one operator. Operands that are themselves
// Binary are parenthesised.
type Binary struct {
	Op    string
	Terms []Expr
}

func (e Binary) render(b *strings.Builder) {
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteString(" " + e.Op + " ")
		}
		if _, nested := t.(Binary); nested {
			b.WriteByte('(')
			t.render(b)
			b.WriteByte(')')
			continue
		}
		t.render(b)
	}
}

// Field is one key/value of a composite literal.
type Field struct {
	Name  string
	Value Expr
}

// Composite is a keyed composite literal such as botkit.TextRules{MinLength: 3}.
type Composite struct {
	Type   string
	Fields []Field
}

func (e Composite) render(b *strings.Builder) {
	b.WriteString(e.Type)
	b.WriteByte('{')
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if f.Name != "" {
			b.WriteString(f.Name)
			b.WriteString(": ")
		}
		f.Value.render(b)
	}
	b.WriteByte('}')
}

// MultiComposite is a composite literal printed one element per line.
type MultiComposite struct {
	Type  string
	Elems []Expr
}

func (e MultiComposite) render(b *strings.Builder) {
	b.WriteString(e.Type)
	b.WriteString("{\n")
	for _, el := range e.Elems {
		el.render(b)
		b.WriteString(",\n")
	}
	b.WriteByte('}')
}

// Assign is "lhs := rhs" when Define is set, "lhs = rhs" otherwise.
type Assign struct {
	LHS    string
	Define bool
	RHS    Expr
}

func (s Assign) renderStmt(b *strings.Builder) {
	b.WriteString(s.LHS)
	if s.Define {
		b.WriteString(" := ")
	} else {
		b.WriteString(" = ")
	}
	s.RHS.render(b)
	b.WriteByte('\n')
}

// VarDecl is "var name type".
type VarDecl struct {
	Name string
	Type string
}

func (s VarDecl) renderStmt(b *strings.Builder) {
	b.WriteString("var " + s.Name + " " + s.Type + "\n")
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	X Expr
}

func (s ExprStmt) renderStmt(b *strings.Builder) {
	s.X.render(b)
	b.WriteByte('\n')
}

// If is an if statement. An Else holding exactly one If renders as else-if.
type If struct {
	Init Stmt
	Cond Expr
	Body []Stmt
	Else []Stmt
}

func (s If) renderStmt(b *strings.Builder) {
	b.WriteString("if ")
	if s.Init != nil {
		var init strings.Builder
		s.Init.renderStmt(&init)
		b.WriteString(strings.TrimSuffix(init.String(), "\n"))
		b.WriteString("; ")
	}
	s.Cond.render(b)
	b.WriteString(" {\n")
	renderBlock(b, s.Body)
	b.WriteByte('}')
	if len(s.Else) == 1 {
		if elif, ok := s.Else[0].(If); ok {
			b.WriteString(" else ")
			elif.renderStmt(b)
			return
		}
	}
	if len(s.Else) > 0 {
		b.WriteString(" else {\n")
		renderBlock(b, s.Else)
		b.WriteByte('}')
	}
	b.WriteByte('\n')
}

// Return returns the given values.
type Return struct {
	Values []Expr
}

func (s Return) renderStmt(b *strings.Builder) {
	b.WriteString("return")
	for i, v := range s.Values {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		v.render(b)
	}
	b.WriteByte('\n')
}

// ReturnOf returns a single value.
func ReturnOf(v Expr) Return { return Return{Values: []Expr{v}} }

// CheckErr is "if err := call; err != nil { return err }".
func CheckErr(call Expr) Stmt {
	return If{
		Init: Assign{LHS: "err", Define: true, RHS: call},
		Cond: Ident("err != nil"),
		Body: []Stmt{ReturnOf(Ident("err"))},
	}
}

// Comment is a line comment inside a block.
type Comment string

func (s Comment) renderStmt(b *strings.Builder) {
	for _, line := range strings.Split(string(s), "\n") {
		b.WriteString("// " + line + "\n")
	}
}

// Blank is an empty line separating statement groups.
type Blank struct{}

func (Blank) renderStmt(b *strings.Builder) { b.WriteByte('\n') }

func renderBlock(b *strings.Builder, stmts []Stmt) {
	for _, st := range stmts {
		st.renderStmt(b)
	}
}

// Raw is a statement given as source text.
func Raw(src string) Stmt { return ExprStmt{X: Ident(src)} }
