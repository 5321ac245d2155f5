/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing espalier graphs.

It allows developers to define decision graphs using a type-safe, fluent builder pattern
instead of relying on external YAML, JSON or HCL files. This is particularly useful for
unit testing, generated graphs and leveraging IDE autocompletion/type-checking.

Example usage:

	b := dsl.New("residential")

	b.Component("sf_schedule").
		Name("Single family schedule").
		Set("EquipmentBase", 0.3)

	b.Condition("typology").
		Eq("building_typology", "single_family_detached", "sf").
		Default("mf")

	b.Ref("sf", "sf_schedule").Next("fuel")

	b.Assign("mf").
		Set("EquipmentBase", 0.5).
		Next("fuel")

	b.Assign("fuel").Set("HeatingFuel", "NaturalGas")

	// The first declared node is the entry unless Entry is called.
	loader, err := b.Loader()
	// ... pass loader to espalier.New(ctx, "", espalier.WithLoader(loader))
*/
package dsl
