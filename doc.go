/*
Package portico manages a world split into independently loadable partitions
linked by portals.

A portal lives inside a partition and points at a portal in another (or the
same) partition. Portico moves an agent from one partition to another without
ever running two transitions at once, finds destination portals through a
self-healing lookup cache, and validates the whole portal graph offline.

# Concept

Partitions are defined in a store (by default a Loam repository of Markdown,
YAML or JSON documents) and instantiated into a world when loaded. The
transition controller unloads the active partition while loading the
destination, holds the destination at its "ready to activate" threshold until
the activation gate opens, switches it in and notifies the destination
portal's arrival observers.

# Key Features

  - Single-flight transitions: a request made while another transition runs is rejected.
  - Activation gate: hosts can hold a loaded partition back, e.g. until a fade-out ends.
  - Self-healing lookup: cached portals are re-validated on every hit.
  - Offline validation: duplicate ids, self-loops, dangling and unconnected portals.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/portico"
	)

	func main() {
		// Reads partitions from ./world
		sys, err := portico.New("./world")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := sys.Start(ctx, "hub"); err != nil {
			log.Fatal(err)
		}

		t, err := sys.Travel(ctx, "forest", 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := t.Wait(ctx); err != nil {
			log.Fatal(err)
		}

		report, err := sys.Validate(ctx, true)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("clean:", report.Clean)
	}
*/
package portico
