package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParameterSpec is the document form of a Parameter. Parameters are
// required unless marked optional; direct parameters are never reported as
// unresolved by the graph.
type ParameterSpec struct {
	Name        string   `json:"name" yaml:"name" mapstructure:"name"`
	Type        string   `json:"type" yaml:"type" mapstructure:"type"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Values      []string `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
	Group       string   `json:"group,omitempty" yaml:"group,omitempty" mapstructure:"group"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Unit        string   `json:"unit,omitempty" yaml:"unit,omitempty" mapstructure:"unit"`
	Optional    bool     `json:"optional,omitempty" yaml:"optional,omitempty" mapstructure:"optional"`
	Direct      bool     `json:"direct,omitempty" yaml:"direct,omitempty" mapstructure:"direct"`
}

// Parameter converts the document form into a Parameter.
func (s ParameterSpec) Parameter() (Parameter, error) {
	typ, err := TypeFromSpec(s.Type, s.Min, s.Max, s.Values)
	if err != nil {
		return Parameter{}, fmt.Errorf("parameter %s: %w", s.Name, err)
	}
	return Parameter{
		Name:        s.Name,
		Group:       s.Group,
		Description: s.Description,
		Unit:        s.Unit,
		Type:        typ,
		Required:    !s.Optional,
		Direct:      s.Direct,
	}, nil
}

// Spec returns the document form of the parameter.
func (p Parameter) Spec() ParameterSpec {
	spec := ParameterSpec{
		Name:        p.Name,
		Group:       p.Group,
		Description: p.Description,
		Unit:        p.Unit,
		Optional:    !p.Required,
		Direct:      p.Direct,
	}
	if p.Type == nil {
		return spec
	}
	spec.Type = p.Type.Name()
	if b, ok := p.Type.(Bounded); ok {
		spec.Min, spec.Max = b.Bounds()
	}
	if e, ok := p.Type.(Enumerated); ok {
		spec.Values = e.Values()
	}
	return spec
}

// ParametersFromSpecs parses a list of parameter documents.
func ParametersFromSpecs(specs []ParameterSpec) (*Parameters, error) {
	params := make([]Parameter, 0, len(specs))
	var errs []error
	for _, s := range specs {
		p, err := s.Parameter()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		params = append(params, p)
	}
	if err := aggregate(errs); err != nil {
		return nil, err
	}
	return NewParameters(params...)
}

// Specs returns the document form of every parameter in declaration order.
func (p *Parameters) Specs() []ParameterSpec {
	all := p.All()
	specs := make([]ParameterSpec, len(all))
	for i, param := range all {
		specs[i] = param.Spec()
	}
	return specs
}

// MarshalJSON serializes the set as a list of parameter documents.
func (p *Parameters) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.Specs())
}

// UnmarshalJSON deserializes the set from a list of parameter documents.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	var specs []ParameterSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return err
	}
	parsed, err := ParametersFromSpecs(specs)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// MarshalYAML serializes the set as a list of parameter documents.
func (p *Parameters) MarshalYAML() (any, error) {
	return p.Specs(), nil
}

// UnmarshalYAML deserializes the set from a list of parameter documents.
func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	var specs []ParameterSpec
	if err := node.Decode(&specs); err != nil {
		return err
	}
	parsed, err := ParametersFromSpecs(specs)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}
