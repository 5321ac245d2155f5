package schema

import (
	"fmt"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

// Parameter describes one output slot the decision graph is expected to
// fill. Direct parameters are supplied by the caller alongside the graph
// result (geometry, weather) and are never assigned by graph nodes.
type Parameter struct {
	Name        string
	Group       string
	Description string
	Unit        string
	Type        Type
	Required    bool
	Direct      bool
}

// Validate checks a single value against the parameter type.
func (p Parameter) Validate(v domain.Value) error {
	if p.Type == nil {
		return nil
	}
	if err := p.Type.Validate(v); err != nil {
		return &ValidationError{Key: p.Name, Reason: err.Error(), Value: v}
	}
	return nil
}

// Group is a named slice of parameters in declaration order.
type Group struct {
	Name       string
	Parameters []string
}

// Parameters is an ordered, name-indexed set of parameter definitions.
// The zero value and a nil pointer are both empty sets.
type Parameters struct {
	params []Parameter
	index  map[string]int
}

// NewParameters builds a parameter set. Names must be unique and non-empty.
func NewParameters(params ...Parameter) (*Parameters, error) {
	p := &Parameters{
		params: make([]Parameter, 0, len(params)),
		index:  make(map[string]int, len(params)),
	}
	var errs []error
	for _, param := range params {
		if param.Name == "" {
			errs = append(errs, fmt.Errorf("parameter with empty name"))
			continue
		}
		if param.Type == nil {
			errs = append(errs, fmt.Errorf("parameter %q: type is nil", param.Name))
			continue
		}
		if _, dup := p.index[param.Name]; dup {
			errs = append(errs, fmt.Errorf("parameter %q: declared twice", param.Name))
			continue
		}
		p.index[param.Name] = len(p.params)
		p.params = append(p.params, param)
	}
	if err := aggregate(errs); err != nil {
		return nil, err
	}
	return p, nil
}

// MustParameters is like NewParameters but panics on error. Intended for
// package-level catalogues.
func MustParameters(params ...Parameter) *Parameters {
	p, err := NewParameters(params...)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of parameters.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.params)
}

// Lookup returns the parameter with the given name.
func (p *Parameters) Lookup(name string) (Parameter, bool) {
	if p == nil {
		return Parameter{}, false
	}
	i, ok := p.index[name]
	if !ok {
		return Parameter{}, false
	}
	return p.params[i], true
}

// All returns the parameters in declaration order.
func (p *Parameters) All() []Parameter {
	if p == nil {
		return nil
	}
	return append([]Parameter(nil), p.params...)
}

// Names returns parameter names in declaration order.
func (p *Parameters) Names() []string {
	return p.collect(func(Parameter) bool { return true })
}

// Required returns the names of required, graph-assigned parameters, sorted.
func (p *Parameters) Required() []string {
	names := p.collect(func(param Parameter) bool { return param.Required && !param.Direct })
	sort.Strings(names)
	return names
}

// Direct returns the names of caller-supplied parameters, sorted.
func (p *Parameters) Direct() []string {
	names := p.collect(func(param Parameter) bool { return param.Direct })
	sort.Strings(names)
	return names
}

// Groups returns the parameter groups in order of first appearance.
// Ungrouped parameters are collected under "Other".
func (p *Parameters) Groups() []Group {
	if p == nil {
		return nil
	}
	var groups []Group
	pos := map[string]int{}
	for _, param := range p.params {
		name := param.Group
		if name == "" {
			name = "Other"
		}
		i, ok := pos[name]
		if !ok {
			i = len(groups)
			pos[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Parameters = append(groups[i].Parameters, param.Name)
	}
	return groups
}

func (p *Parameters) collect(keep func(Parameter) bool) []string {
	if p == nil {
		return nil
	}
	var names []string
	for _, param := range p.params {
		if keep(param) {
			names = append(names, param.Name)
		}
	}
	return names
}
