/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing Portico worlds.

It allows developers to define partitions and the portals between them using a type-safe, fluent
builder pattern instead of relying on Markdown, YAML or JSON files. This is particularly useful
for procedurally generated worlds and unit testing.

Example usage:

	package main

	import (
		"github.com/aretw0/portico"
		"github.com/aretw0/portico/pkg/dsl"
	)

	func main() {
		world := dsl.New()

		world.Add("hub").
			Describe("Central hub").
			Portal(1).To("forest", 1).
			Portal(2).To("cave", 1)

		world.Connect("forest", 2, "cave", 2)

		// The resulting catalog can be used as a ports.PartitionStore
		catalog, _ := world.Build()
		sys, _ := portico.New("", portico.WithStore(catalog))
		// ...
	}
*/
package dsl
