/*
Package flowbot compiles visually authored conversation graphs into Telegram bot programs.

A flow is a set of nodes (messages, media, locations, contacts, moderation
actions, input prompts) joined by buttons and connections. flowbot emits one
Go handler per node on top of the botkit runtime, plus a dispatch table that
routes commands, button callbacks and free text to those handlers. A
best-effort decompiler recovers the flow from previously emitted source.

# Concept

The emitted program owns everything specific to one flow: handler bodies,
decision chains over user variables, keyboards and registrations. The botkit
runtime (pkg/botkit) owns the generic state machines: the per-user variable
store, the wait-state slot for input collection and the multi-select sets.

Every handler is delimited by marker comments:

	// NODE_START:<id>
	...
	// NODE_END:<id>

The decompiler uses these markers to attribute code back to nodes.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/flowbot"
	)

	func main() {
		c := flowbot.New()

		project, _, err := c.LoadFile("shop.json")
		if err != nil {
			log.Fatal(err)
		}

		for _, issue := range c.Validate(project) {
			log.Println(issue)
		}

		res, err := c.Compile(context.Background(), project, flowbot.CompileOptions{})
		if err != nil {
			log.Fatal(err)
		}
		os.WriteFile("bot.go", res.Source, 0o644)
	}

# Surfaces

The same operations are exposed by the flowbot CLI (cmd/flowbot), by an HTTP
service (pkg/adapters/http) and as MCP tools (pkg/adapters/mcp).
*/
package flowbot
