package flowbot_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/dsl"
)

// ExampleCompiler_Validate reports structural problems before compiling.
func ExampleCompiler_Validate() {
	message := func(id, text string, buttons ...domain.Button) domain.Node {
		return domain.Node{ID: id, Type: domain.NodeMessage, Data: &domain.MessageData{Content: domain.Content{Text: text, Buttons: buttons}}}
	}
	start := message("start", "Hello!", domain.Button{ID: "go", Text: "Go", Action: domain.ActionGoto, Target: "next"})
	start.Type = domain.NodeStart

	project := &domain.Project{
		Name: "Example",
		Sheets: []domain.Sheet{{
			ID:    "main",
			Nodes: []domain.Node{start, message("next", "Next"), message("island", "Nobody gets here")},
		}},
	}

	for _, issue := range flowbot.New().Validate(project) {
		fmt.Println(issue)
	}
	// Output:
	// node "island": node is not reachable from any entry point
}

// ExampleCompiler_Decompile compiles a flow built with the DSL and recovers it
// from the emitted program.
func ExampleCompiler_Decompile() {
	b := dsl.New("Example")
	b.Add("start").Start("Hello!").Button("Go", "next")
	b.Add("next").Text("You moved forward.")

	project, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	compiler := flowbot.New()
	res, err := compiler.Compile(context.Background(), project, flowbot.CompileOptions{})
	if err != nil {
		log.Fatal(err)
	}

	back := compiler.Decompile(res.Source)
	for _, n := range back.Project.Graph().Nodes {
		fmt.Println(n.ID, n.Type)
	}
	fmt.Println("structural:", back.Structural)
	// Output:
	// start start
	// next message
	// structural: true
}
