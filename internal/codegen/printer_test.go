package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() *File {
	return &File{
		Header:  []string{"Code generated by test. DO NOT EDIT."},
		Package: "main",
		Imports: []string{"os", "github.com/aretw0/flowbot/pkg/botkit", "context", "os"},
		Decls: []Decl{
			Span{NodeID: "welcome", Decls: []Decl{
				Func{
					Doc:     "handleWelcome handles node \"welcome\".",
					Name:    "handleWelcome",
					Params:  "s *botkit.Session",
					Results: "error",
					Body: []Stmt{
						Assign{LHS: "text", Define: true, RHS: String("Hi\nthere")},
						If{
							Cond: Binary{Op: "&&", Terms: []Expr{
								CallOf("s.Has", String("name")),
								Not{X: CallOf("s.Has", String("age"))},
							}},
							Body: []Stmt{Assign{LHS: "text", RHS: String("Back")}},
							Else: []Stmt{If{
								Cond: CallOf("s.Equals", String("a"), String("b")),
								Body: []Stmt{Assign{LHS: "text", RHS: String("B")}},
							}},
						},
						CheckErr(CallOf("s.Reply", Ident("text"), Nil)),
						ReturnOf(Nil),
					},
				},
			}},
			Var{Name: "limit", Value: Int(3)},
			Span{NodeID: "other", Decls: []Decl{
				Func{Name: "handleOther", Params: "s *botkit.Session", Results: "error", Body: []Stmt{ReturnOf(Nil)}},
				Func{Name: "aliasOther", Params: "s *botkit.Session", Results: "error", Body: []Stmt{ReturnOf(CallOf("handleOther", Ident("s")))}},
			}},
		},
	}
}

func TestPrint(t *testing.T) {
	src, spans, err := Print(sampleFile())
	require.NoError(t, err)

	text := string(src)
	assert.True(t, strings.HasPrefix(text, "// Code generated by test. DO NOT EDIT.\n\npackage main\n"))
	assert.Contains(t, text, "import (\n\t\"context\"\n\t\"os\"\n\n\t\"github.com/aretw0/flowbot/pkg/botkit\"\n)\n")
	assert.Contains(t, text, "\ttext := \"Hi\\nthere\"\n")
	assert.Contains(t, text, "if s.Has(\"name\") && !s.Has(\"age\") {")
	assert.Contains(t, text, "} else if s.Equals(\"a\", \"b\") {")
	assert.Contains(t, text, "if err := s.Reply(text, nil); err != nil {\n\t\treturn err\n\t}")
	assert.Contains(t, text, "var limit = 3\n")

	require.Len(t, spans, 2)
	for _, sp := range spans {
		chunk := text[sp.Start:sp.End]
		assert.True(t, strings.HasPrefix(chunk, "// NODE_START:"+sp.NodeID+"\n"), chunk)
		assert.True(t, strings.HasSuffix(chunk, "// NODE_END:"+sp.NodeID+"\n"), chunk)

		lines := strings.Split(text, "\n")
		assert.Equal(t, "// NODE_START:"+sp.NodeID, lines[sp.StartLine-1])
		assert.Equal(t, "// NODE_END:"+sp.NodeID, lines[sp.EndLine-1])
	}
	assert.Contains(t, text[spans[1].Start:spans[1].End], "func aliasOther(")
}

func TestPrint_InvalidCode(t *testing.T) {
	f := &File{Package: "main", Decls: []Decl{
		Func{Name: "broken", Body: []Stmt{ExprStmt{X: Ident("if {")}}},
	}}
	_, _, err := Print(f)
	assert.Error(t, err)
}

func TestBinary_NestedParens(t *testing.T) {
	var b strings.Builder
	Binary{Op: "||", Terms: []Expr{
		Binary{Op: "&&", Terms: []Expr{Ident("a"), Ident("b")}},
		Ident("c"),
	}}.render(&b)
	assert.Equal(t, "(a && b) || c", b.String())
}

func TestParseMarker(t *testing.T) {
	kind, id, ok := ParseMarker("  // NODE_START:welcome ")
	assert.True(t, ok)
	assert.Equal(t, MarkerStart, kind)
	assert.Equal(t, "welcome", id)

	kind, id, ok = ParseMarker("//NODE_END:a b")
	assert.True(t, ok)
	assert.Equal(t, MarkerEnd, kind)
	assert.Equal(t, "a b", id)

	_, _, ok = ParseMarker("// just a comment")
	assert.False(t, ok)
	_, _, ok = ParseMarker("x := 1")
	assert.False(t, ok)
}

func TestMarkerID_RoundTrip(t *testing.T) {
	for _, id := range []string{"welcome", "a b", " padded ", "two\nlines", "tab\t", `"quoted"`, `back\slash`, "", "ünïcode"} {
		kind, got, ok := ParseMarker("// " + MarkerStart + markerID(id))
		require.True(t, ok, "%q", id)
		assert.Equal(t, MarkerStart, kind)
		assert.Equal(t, id, got)
		assert.NotContains(t, markerID(id), "\n")
	}
	assert.Equal(t, "welcome", markerID("welcome"))
	assert.Equal(t, `" padded "`, markerID(" padded "))
	assert.Equal(t, `"two\nlines"`, markerID("two\nlines"))
}
