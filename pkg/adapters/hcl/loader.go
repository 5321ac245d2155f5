// Package hcl loads decision graphs written in HCL.
//
// A graph file declares top-level attributes and one block per component
// and node, in any order:
//
//	description    = "heating"
//	entry_node_ids = ["root"]
//
//	component "gas_furnace" {
//	  assignments = { HeatingFuel = "NaturalGas", HeatingCOP = 0.8 }
//	}
//
//	condition "root" {
//	  branch {
//	    field    = "heating_fuel"
//	    operator = "eq"
//	    value    = "natural_gas"
//	    target   = "furnace"
//	  }
//	  default = "electric"
//	}
//
//	component_ref "furnace" {
//	  component = "gas_furnace"
//	}
//
//	assignment "electric" {
//	  assignments = { HeatingFuel = "Electricity" }
//	}
package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

type graphFile struct {
	Description string             `hcl:"description,optional"`
	Entries     []string           `hcl:"entry_node_ids,optional"`
	Components  []*componentBlock  `hcl:"component,block"`
	Conditions  []*conditionBlock  `hcl:"condition,block"`
	Assignments []*assignmentBlock `hcl:"assignment,block"`
	Refs        []*refBlock        `hcl:"component_ref,block"`
}

type componentBlock struct {
	ID          string         `hcl:"id,label"`
	Name        string         `hcl:"name,optional"`
	Description string         `hcl:"description,optional"`
	Assignments hcl.Expression `hcl:"assignments,optional"`
}

type conditionBlock struct {
	ID          string         `hcl:"id,label"`
	Description string         `hcl:"description,optional"`
	Branches    []*branchBlock `hcl:"branch,block"`
	Default     string         `hcl:"default,optional"`
}

type branchBlock struct {
	Field    string         `hcl:"field"`
	Operator string         `hcl:"operator"`
	Value    hcl.Expression `hcl:"value,optional"`
	Target   string         `hcl:"target"`
}

type assignmentBlock struct {
	ID          string         `hcl:"id,label"`
	Description string         `hcl:"description,optional"`
	Assignments hcl.Expression `hcl:"assignments,optional"`
	Next        []string       `hcl:"next,optional"`
}

type refBlock struct {
	ID          string   `hcl:"id,label"`
	Description string   `hcl:"description,optional"`
	Component   string   `hcl:"component"`
	Next        []string `hcl:"next,optional"`
}

// Loader implements ports.GraphLoader for a single HCL file.
type Loader struct {
	Path string
}

// New creates a loader for the HCL graph at path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// Load parses and decodes the file. Nodes keep their source order.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(l.Path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", l.Path, diags.Error())
	}
	g, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", l.Path, err)
	}
	if g.Description() == "" {
		name := filepath.Base(l.Path)
		g = domain.NewGraph(strings.TrimSuffix(name, filepath.Ext(name)), g.Components(), g.Nodes(), g.Entries())
	}
	return g, nil
}

// Parse decodes HCL source held in memory. filename is used in diagnostics.
func Parse(src []byte, filename string) (*domain.Graph, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %s", filename, diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*domain.Graph, error) {
	var cfg graphFile
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}

	components := make([]domain.Component, 0, len(cfg.Components))
	for _, b := range cfg.Components {
		assign, err := assignments(b.Assignments)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", b.ID, err)
		}
		components = append(components, domain.Component{ID: b.ID, Name: b.Name, Description: b.Description, Assignments: assign})
	}

	nodes := make([]domain.Node, 0, len(cfg.Conditions)+len(cfg.Assignments)+len(cfg.Refs))
	for _, b := range cfg.Conditions {
		n := &domain.ConditionNode{ID: b.ID, Description: b.Description, Default: b.Default}
		for i, br := range b.Branches {
			v, err := exprValue(br.Value)
			if err != nil {
				return nil, fmt.Errorf("condition %q branch %d: %w", b.ID, i, err)
			}
			n.Branches = append(n.Branches, domain.Branch{
				Condition: domain.FieldCondition{Field: br.Field, Operator: domain.Operator(br.Operator), Value: v},
				Target:    br.Target,
			})
		}
		nodes = append(nodes, n)
	}
	for _, b := range cfg.Assignments {
		assign, err := assignments(b.Assignments)
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", b.ID, err)
		}
		nodes = append(nodes, &domain.AssignmentNode{ID: b.ID, Description: b.Description, Assignments: assign, Next: b.Next})
	}
	for _, b := range cfg.Refs {
		nodes = append(nodes, &domain.ComponentRefNode{ID: b.ID, Description: b.Description, ComponentID: b.Component, Next: b.Next})
	}

	sortBySource(file, nodes)
	return domain.NewGraph(cfg.Description, components, nodes, cfg.Entries), nil
}

// sortBySource restores declaration order across block types, which gohcl
// splits into one slice per type.
func sortBySource(file *hcl.File, nodes []domain.Node) {
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return
	}
	pos := make(map[string]int)
	for i, b := range body.Blocks {
		if b.Type == "component" || len(b.Labels) == 0 {
			continue
		}
		if _, seen := pos[b.Labels[0]]; !seen {
			pos[b.Labels[0]] = i
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return pos[nodes[i].NodeID()] < pos[nodes[j].NodeID()]
	})
}

func exprValue(expr hcl.Expression) (domain.Value, error) {
	if expr == nil {
		return domain.Null(), nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return domain.Value{}, fmt.Errorf("%s", diags.Error())
	}
	return ctyToValue(val)
}

func assignments(expr hcl.Expression) (domain.Assignments, error) {
	if expr == nil {
		return domain.Assignments{}, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}
	if val.IsNull() {
		return domain.Assignments{}, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("assignments must be an object, got %s", val.Type().FriendlyName())
	}
	out := domain.Assignments{}
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		dv, err := ctyToValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k.AsString(), err)
		}
		out[k.AsString()] = dv
	}
	return out, nil
}

// ctyToValue converts a known cty value into a literal.
func ctyToValue(val cty.Value) (domain.Value, error) {
	if val.IsNull() {
		return domain.Null(), nil
	}
	if !val.IsKnown() {
		return domain.Value{}, fmt.Errorf("value is not known")
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return domain.String(val.AsString()), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return domain.Number(f), nil
	case ty == cty.Bool:
		return domain.Bool(val.True()), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var items []domain.Value
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			item, err := ctyToValue(v)
			if err != nil {
				return domain.Value{}, err
			}
			items = append(items, item)
		}
		return domain.List(items...), nil
	default:
		return domain.Value{}, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
