/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing flowbot flows.

It allows developers to define bot flows using a type-safe, fluent builder pattern
instead of relying on JSON or YAML documents exported by the editor. This is
particularly useful for generated flows, unit testing, and leveraging IDE
autocompletion/type-checking.

Example usage:

	package main

	import (
		"context"
		"os"

		"github.com/aretw0/flowbot"
		"github.com/aretw0/flowbot/pkg/domain"
		"github.com/aretw0/flowbot/pkg/dsl"
	)

	func main() {
		b := dsl.New("Greeter")

		b.Add("start").
			Start("Welcome!").
			Button("Introduce yourself", "ask_name")

		b.Add("ask_name").
			Text("What is your name?").
			Input("name").
			Validate(2, 40, "").
			Retry("Please type at least two characters.").
			Then("greet")

		b.Add("greet").
			Text("Nice to meet you!").
			When(domain.ConditionalMessage{
				Priority:     10,
				Condition:    domain.ConditionExists,
				VariableName: "name",
				MessageText:  "Nice to meet you again!",
			})

		project, err := b.Build()
		if err != nil {
			panic(err)
		}
		res, err := flowbot.New().Compile(context.Background(), project, flowbot.CompileOptions{})
		if err != nil {
			panic(err)
		}
		os.Stdout.Write(res.Source)
	}
*/
package dsl
