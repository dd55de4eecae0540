package tui

import (
	"fmt"
	"sort"
	"strings"
)

// Report summarizes one compile or validate run for the terminal.
type Report struct {
	Title    string
	Nodes    int
	Tokens   map[string]string
	Output   string
	Warnings []string
	Issues   []string
}

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)

	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Nodes | %d |\n", r.Nodes)
	fmt.Fprintf(&sb, "| Callback tokens | %d |\n", len(r.Tokens))
	if r.Output != "" {
		fmt.Fprintf(&sb, "| Output | `%s` |\n", r.Output)
	}
	sb.WriteString("\n")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s (%d)\n\n", title, len(items))
		for _, item := range items {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	section("Issues", r.Issues)
	section("Warnings", r.Warnings)

	if len(r.Issues) == 0 && len(r.Warnings) == 0 {
		sb.WriteString("No problems found.\n")
	}

	if len(r.Tokens) > 0 {
		keys := make([]string, 0, len(r.Tokens))
		for k := range r.Tokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\n## Tokens\n\n| Token | Owner |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", k, r.Tokens[k])
		}
	}
	return sb.String()
}
