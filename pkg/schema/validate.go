package schema

import (
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

// Check validates assignments against the parameter set.
// Returns an *AggregateError with every failure found: unknown keys and
// type or bound violations, in key order.
func (p *Parameters) Check(assignments domain.Assignments) error {
	var errs []error
	for _, name := range sortedKeys(assignments) {
		value := assignments[name]
		param, ok := p.Lookup(name)
		if !ok {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: "not defined in schema",
				Value:  value,
			})
			continue
		}
		if err := param.Validate(value); err != nil {
			errs = append(errs, err)
		}
	}
	return aggregate(errs)
}

// CheckComplete is Check plus presence: every required and every direct
// parameter must be assigned. This is the boundary a downstream model
// constructor enforces.
func (p *Parameters) CheckComplete(assignments domain.Assignments) error {
	var errs []error
	if err := p.Check(assignments); err != nil {
		errs = append(errs, ValidationErrors(err)...)
	}

	missing := append(p.Required(), p.Direct()...)
	sort.Strings(missing)
	for _, name := range missing {
		if v, ok := assignments[name]; !ok || v.IsNull() {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: "required",
			})
		}
	}
	return aggregate(errs)
}

// Missing returns the required parameters absent from assignments, sorted.
// Direct parameters are not considered.
func (p *Parameters) Missing(assignments domain.Assignments) []string {
	var missing []string
	for _, name := range p.Required() {
		if v, ok := assignments[name]; !ok || v.IsNull() {
			missing = append(missing, name)
		}
	}
	return missing
}

func sortedKeys[M ~map[string]domain.Value](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
