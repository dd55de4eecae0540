package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
)

// Markers bracketing the declarations of one node in emitted source.
const (
	MarkerStart = "NODE_START:"
	MarkerEnd   = "NODE_END:"
)

// SpanInfo locates one node span in printed source.
// Start and End are byte offsets covering both marker lines; lines are 1-based.
type SpanInfo struct {
	NodeID    string `json:"node_id"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Print renders f as gofmt-formatted source.
//
// Each declaration is formatted on its own, so the returned spans are exact
// offsets into the output rather than the result of searching it.
func Print(f *File) ([]byte, []SpanInfo, error) {
	var out bytes.Buffer

	head, err := formatChunk(renderHead(f))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to format file header: %w", err)
	}
	out.Write(head)

	var spans []SpanInfo
	for i, d := range f.Decls {
		var b strings.Builder
		d.renderDecl(&b)
		body, err := formatChunk(b.String())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to format declaration %d: %w\n%s", i, err, b.String())
		}

		out.WriteByte('\n')
		span, isSpan := d.(Span)
		if !isSpan {
			out.Write(body)
			continue
		}

		info := SpanInfo{NodeID: span.NodeID, Start: out.Len()}
		out.WriteString("// " + MarkerStart + markerID(span.NodeID) + "\n")
		out.Write(body)
		out.WriteString("// " + MarkerEnd + markerID(span.NodeID) + "\n")
		info.End = out.Len()
		spans = append(spans, info)
	}

	src := out.Bytes()
	for i := range spans {
		spans[i].StartLine = bytes.Count(src[:spans[i].Start], []byte("\n")) + 1
		spans[i].EndLine = bytes.Count(src[:spans[i].End], []byte("\n"))
	}
	return src, spans, nil
}

func renderHead(f *File) string {
	var b strings.Builder
	for _, line := range f.Header {
		b.WriteString("// " + line + "\n")
	}
	if len(f.Header) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString("package " + f.Package + "\n")

	std, other := importGroups(f.Imports)
	if len(std)+len(other) == 0 {
		return b.String()
	}
	b.WriteString("\nimport (\n")
	for _, p := range std {
		b.WriteString(strconv.Quote(p) + "\n")
	}
	if len(std) > 0 && len(other) > 0 {
		b.WriteByte('\n')
	}
	for _, p := range other {
		b.WriteString(strconv.Quote(p) + "\n")
	}
	b.WriteString(")\n")
	return b.String()
}

func formatChunk(src string) ([]byte, error) {
	out, err := format.Source([]byte(src))
	if err != nil {
		return nil, err
	}
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}

// markerID renders a node id for a marker comment. Ids that would not
// survive a comment line verbatim are written as a quoted Go string.
func markerID(id string) string {
	q := strconv.Quote(id)
	if id == "" || q[1:len(q)-1] != id || strings.TrimSpace(id) != id {
		return q
	}
	return id
}

// ParseMarker reports whether line is a span marker and returns its kind
// (MarkerStart or MarkerEnd) and node id.
func ParseMarker(line string) (kind, nodeID string, ok bool) {
	text := strings.TrimSpace(line)
	text, found := strings.CutPrefix(text, "//")
	if !found {
		return "", "", false
	}
	text = strings.TrimSpace(text)
	for _, m := range []string{MarkerStart, MarkerEnd} {
		id, found := strings.CutPrefix(text, m)
		if !found {
			continue
		}
		id = strings.TrimSpace(id)
		if strings.HasPrefix(id, `"`) {
			if u, err := strconv.Unquote(id); err == nil {
				id = u
			}
		}
		return m, id, true
	}
	return "", "", false
}
