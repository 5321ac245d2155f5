// Package schema describes both sides of the decision graph: the input
// FieldSet a record is read against and the output Parameters the graph
// assigns.
//
// Parameter values are validated through a small type system with
// built-in types (number, integer, string, bool, enum) plus lists and
// custom validators:
//
//	params := schema.MustParameters(
//	    schema.Parameter{Name: "WWR", Type: schema.NumberIn(0, 1), Required: true},
//	    schema.Parameter{Name: "HeatingFuel", Type: schema.Enum("Electricity", "NaturalGas"), Required: true},
//	)
//
//	err := params.Check(domain.Assignments{"WWR": domain.Number(1.4)})
//	// "WWR": 1.4 is above maximum 1 (got 1.4)
//
// Parameter sets can be built programmatically or loaded from documents
// (see ParameterSpec), and rendered as grouped Markdown with Describe.
//
// Field sets describe sparse input records. CheckRecord is diagnostic: it
// reports unknown categories and out-of-range numbers without ever
// blocking execution.
package schema
