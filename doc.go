/*
Package espalier is a decision graph engine for inferring building-energy
model parameters from sparse building records.

A graph routes each record through condition nodes, which test record fields,
to assignment and component nodes, which set output parameters. Execution is
a breadth-first traversal in which later assignments override earlier ones.
The result carries the assigned parameters plus a trace of visited nodes,
applied components and the required parameters still unresolved.

# Concept

The graph is data: it is loaded from YAML, JSON, HCL or a Loam repository of
Markdown nodes, or built in Go with package dsl. Before anything runs, the
structural validator checks references, field names, operators and parameter
types, and enumerates paths to report parameters a path would leave
unassigned. The engine refuses to execute a graph with error findings.

# Key Features

  - Deterministic Execution: the same graph and record always give the same result.
  - Hexagonal Architecture: loaders, result stores, publishers and report sinks are ports.
  - Batch Sweeps: package sweep resolves record batches with a bounded worker pool.
  - Strict Contracts: values are checked against the field and parameter schemas.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/domain"
	)

	func main() {
		ctx := context.Background()

		eng, err := espalier.New(ctx, "./graph.yaml")
		if err != nil {
			log.Fatal(err)
		}
		if err := eng.Err(); err != nil {
			log.Fatal(err) // *domain.ValidationError listing the findings
		}

		rec := domain.Record{
			"building_typology": domain.String("single_family_detached"),
			"year_built":        domain.Int(1925),
		}
		res, err := eng.Resolve(rec, domain.Assignments{"WWR": domain.Number(0.3)})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Resolved)
	}
*/
package espalier
