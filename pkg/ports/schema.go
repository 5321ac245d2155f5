package ports

import (
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// FieldSchema resolves the input fields a condition may reference.
type FieldSchema interface {
	Lookup(name string) (schema.Field, bool)
}

// ParameterSchema resolves the output parameters a graph may assign.
// *schema.Parameters is the canonical implementation.
type ParameterSchema interface {
	Lookup(name string) (schema.Parameter, bool)
	// Required lists graph-assigned parameters every path should fill.
	Required() []string
	// Direct lists parameters supplied outside the graph.
	Direct() []string
	// CheckComplete validates a fully merged assignment map.
	CheckComplete(assignments domain.Assignments) error
}
