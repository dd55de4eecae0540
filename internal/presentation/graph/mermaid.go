package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowbot/pkg/domain"
)

// GraphOverlay contains diagnostic data to visualize on the graph.
type GraphOverlay struct {
	// Flagged nodes are drawn with the warning style (e.g. validator issues).
	Flagged []string
	// Focus is drawn with the focus style, typically the node under inspection.
	Focus string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a flow graph.
// It applies semantic styling:
// - Start: ((Circle))
// - Moderation: [[Subroutine]]
// - Input (user_input): [/Parallelogram/]
// - Media: [(Cylinder)]
// - Default: [Rectangle]
// Edges are drawn for connections, goto buttons, condition and input
// targets, the multi-select continue button and auto-transitions (thick).
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	commands := make(map[string]string)
	for _, node := range g.Nodes {
		if cmd, _ := node.Trigger(); cmd != "" {
			if _, seen := commands[cmd]; !seen {
				commands[cmd] = node.ID
			}
		}
	}

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.Type == domain.NodeStart:
			opener, closer = "((", "))"
		case node.Type.IsModeration():
			opener, closer = "[[", "]]"
		case node.Type == domain.NodeUserInput:
			opener, closer = "[/", "/]"
		case node.Type.IsMedia():
			opener, closer = "[(", ")]"
		}

		label := node.ID
		if cmd, _ := node.Trigger(); cmd != "" {
			label = fmt.Sprintf("%s <br/> %s", node.ID, cmd)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer))

		for _, e := range edges(&node, commands) {
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, e.arrow, sanitizeMermaidID(e.to)))
		}
	}

	for _, c := range g.Connections {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(c.Source), sanitizeMermaidID(c.Target)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef flagged fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Flagged {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s flagged;\n", safeID))
			}
		}

		if overlay.Focus != "" {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", sanitizeMermaidID(overlay.Focus)))
		}
	}

	return sb.String()
}

type edge struct {
	arrow string
	to    string
}

func edges(n *domain.Node, commands map[string]string) []edge {
	var out []edge
	buttons := func(bs []domain.Button) {
		for _, b := range bs {
			to := ""
			switch b.Action {
			case domain.ActionGoto:
				to = b.Target
			case domain.ActionCommand:
				to = commands[b.Target]
			}
			if to != "" {
				out = append(out, edge{arrow: fmt.Sprintf("-- \"%s\" -->", escape(b.Text)), to: to})
			}
		}
	}

	buttons(n.Buttons())

	c := n.Content()
	if c == nil {
		return out
	}
	for _, cond := range c.ConditionalMessages {
		buttons(cond.Buttons)
		if cond.NextNodeAfterInput != "" {
			out = append(out, edge{arrow: "-. input .->", to: cond.NextNodeAfterInput})
		}
	}
	if c.InputTargetNodeID != "" {
		out = append(out, edge{arrow: "-. input .->", to: c.InputTargetNodeID})
	}
	if c.AllowMultipleSelection && c.ContinueButtonTarget != "" {
		text := c.ContinueButtonText
		if text == "" {
			text = domain.DefaultDoneText
		}
		out = append(out, edge{arrow: fmt.Sprintf("-- \"%s\" -->", escape(text)), to: c.ContinueButtonTarget})
	}
	if c.EnableAutoTransition && c.AutoTransitionTo != "" {
		out = append(out, edge{arrow: "==>", to: c.AutoTransitionTo})
	}
	return out
}

// escape replaces double quotes, which terminate Mermaid labels.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
