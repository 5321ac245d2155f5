package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	return NewGraph("sample",
		[]Component{
			{ID: "sf_schedule", Name: "Single family schedule", Assignments: Assignments{"EquipmentBase": Number(0.3)}},
			{ID: "sf_schedule", Name: "Shadowed duplicate"},
		},
		[]Node{
			&ConditionNode{
				ID: "typology",
				Branches: []Branch{
					{Condition: FieldCondition{Field: "building_typology", Operator: OpEq, Value: String("sf")}, Target: "sf"},
				},
				Default: "sf",
			},
			&ComponentRefNode{ID: "sf", ComponentID: "sf_schedule", Next: []string{"base"}},
			&AssignmentNode{ID: "base", Assignments: Assignments{"LightingBase": Number(0.2)}},
			&AssignmentNode{ID: "base", Description: "duplicate"},
		},
		[]string{"typology"},
	)
}

func TestGraph_Lookup(t *testing.T) {
	g := sampleGraph()

	n, ok := g.Node("sf")
	require.True(t, ok)
	assert.Equal(t, NodeTypeComponentRef, n.NodeType())

	_, ok = g.Node("ghost")
	assert.False(t, ok)

	c, ok := g.Component("sf_schedule")
	require.True(t, ok)
	assert.Equal(t, "Single family schedule", c.Name, "first declaration wins the index")

	first, _ := g.Node("base")
	assert.Empty(t, first.NodeDescription())

	assert.Equal(t, []string{"base"}, g.DuplicateNodeIDs())
	assert.Equal(t, []string{"sf_schedule"}, g.DuplicateComponentIDs())
	assert.Equal(t, 4, g.NodeCount())
	assert.True(t, g.IsEntry("typology"))
	assert.False(t, g.IsEntry("sf"))
}

func TestGraph_IsolatedFromCaller(t *testing.T) {
	assign := Assignments{"EquipmentBase": Number(0.3)}
	entries := []string{"a"}
	g := NewGraph("", []Component{{ID: "c", Assignments: assign}}, nil, entries)

	assign["EquipmentBase"] = Number(0.9)
	entries[0] = "mutated"

	c, _ := g.Component("c")
	assert.True(t, Number(0.3).Equal(c.Assignments["EquipmentBase"]))
	assert.Equal(t, []string{"a"}, g.Entries())

	c.Assignments["EquipmentBase"] = Number(0.9)
	again, _ := g.Component("c")
	assert.True(t, Number(0.3).Equal(again.Assignments["EquipmentBase"]), "accessor returns a copy")

	g.Components()[0].Assignments["X"] = Number(42)
	again, _ = g.Component("c")
	assert.NotContains(t, again.Assignments, "X")
}

func TestGraph_NodesIsolatedFromCaller(t *testing.T) {
	assign := &AssignmentNode{ID: "a", Assignments: Assignments{"EquipmentBase": Number(0.3)}, Next: []string{"r"}}
	ref := &ComponentRefNode{ID: "r", ComponentID: "c", Next: []string{"cond"}}
	cond := &ConditionNode{
		ID:       "cond",
		Branches: []Branch{{Condition: FieldCondition{Field: "f", Operator: OpIsMissing}, Target: "a"}},
		Default:  "a",
	}
	g := NewGraph("", nil, []Node{assign, ref, cond}, []string{"a"})

	assign.Assignments["EquipmentBase"] = Number(0.9)
	assign.Assignments["X"] = Number(42)
	assign.Next = []string{"ghost"}
	ref.Next[0] = "ghost"
	cond.Branches[0].Target = "ghost"

	n, ok := g.Node("a")
	require.True(t, ok)
	a := n.(*AssignmentNode)
	assert.True(t, Number(0.3).Equal(a.Assignments["EquipmentBase"]))
	assert.NotContains(t, a.Assignments, "X")
	assert.Equal(t, []string{"r"}, a.Successors())

	n, _ = g.Node("r")
	assert.Equal(t, []string{"cond"}, n.Successors())

	n, _ = g.Node("cond")
	assert.Equal(t, []string{"a", "a"}, n.Successors())

	listed := g.Nodes()[0].(*AssignmentNode)
	listed.Next = append(listed.Next, "ghost")
	n, _ = g.Node("a")
	assert.Equal(t, []string{"r"}, n.Successors(), "Nodes returns copies")
}

func TestNode_Successors(t *testing.T) {
	cond := &ConditionNode{
		ID: "c",
		Branches: []Branch{
			{Target: "x"},
			{Target: "y"},
		},
		Default: "z",
	}
	assert.Equal(t, []string{"x", "y", "z"}, cond.Successors())

	noDefault := &ConditionNode{ID: "c", Branches: []Branch{{Target: "x"}}}
	assert.Equal(t, []string{"x"}, noDefault.Successors())

	ref := &ComponentRefNode{ID: "r", Next: []string{"a", "b"}}
	succ := ref.Successors()
	succ[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, ref.Next, "successors are a copy")
}

type countingVisitor struct {
	conditions, assignments, refs int
}

func (v *countingVisitor) VisitCondition(*ConditionNode)       { v.conditions++ }
func (v *countingVisitor) VisitAssignment(*AssignmentNode)     { v.assignments++ }
func (v *countingVisitor) VisitComponentRef(*ComponentRefNode) { v.refs++ }

func TestNode_Accept(t *testing.T) {
	v := &countingVisitor{}
	for _, n := range sampleGraph().Nodes() {
		n.Accept(v)
	}
	assert.Equal(t, 1, v.conditions)
	assert.Equal(t, 2, v.assignments)
	assert.Equal(t, 1, v.refs)
}

func TestFindings(t *testing.T) {
	fs := Findings{
		{Kind: KindStructural, NodeID: "r", Ref: "ghost", Message: "references unknown component 'ghost'"},
		{Kind: KindCoverage, Path: []string{"a"}, Missing: []string{"x"}, Message: "path [a] leaves x unassigned"},
		{Kind: KindFieldReference, NodeID: "c", Message: "unknown field"},
	}

	assert.True(t, fs.HasErrors())
	assert.Len(t, fs.Errors(), 2)
	assert.Len(t, fs.Warnings(), 1)
	assert.Len(t, fs.OfKind(KindStructural), 1)

	err := fs.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
	assert.ErrorIs(t, err, ErrFieldReference)
	assert.False(t, errors.Is(err, ErrCoverage), "warnings are not part of the error")
	assert.Contains(t, err.Error(), "found 2 errors")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Findings, 3)

	assert.NoError(t, fs.Warnings().Err())
}

func TestStructuralError(t *testing.T) {
	err := &StructuralError{NodeID: "r", Ref: "ghost", Msg: "unknown component 'ghost'"}
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.ErrorIs(t, err, ErrStructural)
	assert.Equal(t, `structural error at node "r": unknown component 'ghost'`, err.Error())
}
