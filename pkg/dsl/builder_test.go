package dsl

import (
	"context"
	"math"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_ResidentialFlow(t *testing.T) {
	b := New("residential")

	b.Component("sf_schedule").
		Name("Single family schedule").
		Set("EquipmentBase", 0.3).
		Set("LightingBase", 0.2)

	b.Condition("typology").
		Describe("Split by typology").
		In("building_typology", []string{"single_family_detached", "single_family_attached"}, "sf").
		Missing("building_typology", "fallback").
		Default("mf")

	b.Ref("sf", "sf_schedule").Next("fuel")
	b.Assign("mf").Set("EquipmentBase", 0.5).Next("fuel")
	b.Assign("fallback").Set("EquipmentBase", 0.4)
	b.Assign("fuel").Set("HeatingFuel", "NaturalGas").Set("NFloors", 2)

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "residential", g.Description())
	assert.Equal(t, []string{"typology"}, g.Entries(), "first node is the default entry")

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.NodeID())
	}
	assert.Equal(t, []string{"typology", "sf", "mf", "fallback", "fuel"}, ids, "declaration order is kept")

	n, ok := g.Node("typology")
	require.True(t, ok)
	cond := n.(*domain.ConditionNode)
	require.Len(t, cond.Branches, 2)
	assert.Equal(t, domain.OpIn, cond.Branches[0].Condition.Operator)
	assert.True(t, cond.Branches[0].Condition.Value.Contains(domain.String("single_family_attached")))
	assert.Equal(t, domain.OpIsMissing, cond.Branches[1].Condition.Operator)
	assert.True(t, cond.Branches[1].Condition.Value.IsNull())
	assert.Equal(t, "mf", cond.Default)
	assert.Equal(t, "Split by typology", cond.Description)

	c, ok := g.Component("sf_schedule")
	require.True(t, ok)
	assert.Equal(t, "Single family schedule", c.Name)
	assert.True(t, domain.Number(0.3).Equal(c.Assignments["EquipmentBase"]))

	n, _ = g.Node("fuel")
	assert.True(t, domain.Int(2).Equal(n.(*domain.AssignmentNode).Assignments["NFloors"]))
}

func TestBuilder_RedeclareReturnsSameBuilder(t *testing.T) {
	b := New("")
	b.Assign("a").Set("X", 1)
	b.Assign("a").Set("Y", 2).Next("b")
	b.Assign("b")
	b.Entry("a", "b")

	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, []string{"a", "b"}, g.Entries())

	n, _ := g.Node("a")
	assert.Len(t, n.(*domain.AssignmentNode).Assignments, 2)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder)
		wantErr string
	}{
		{
			name: "conflicting kinds",
			build: func(b *Builder) {
				b.Assign("x")
				b.Condition("x")
			},
			wantErr: `node "x" declared as assignment and condition`,
		},
		{
			name:    "bad literal",
			build:   func(b *Builder) { b.Assign("x").Set("P", math.NaN()) },
			wantErr: `node "x": parameter P`,
		},
		{
			name:    "bad branch value",
			build:   func(b *Builder) { b.Condition("c").Eq("f", map[string]any{}, "t") },
			wantErr: `node "c": branch on f`,
		},
		{
			name:    "bad component literal",
			build:   func(b *Builder) { b.Component("k").Set("P", struct{}{}) },
			wantErr: `component "k": parameter P`,
		},
		{
			name:    "empty node id",
			build:   func(b *Builder) { b.Assign("") },
			wantErr: "node without id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("")
			tt.build(b)
			_, err := b.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuilder_Loader(t *testing.T) {
	b := New("tiny")
	b.Assign("only").Set("HeatingFuel", "Electricity")

	loader, err := b.Loader()
	require.NoError(t, err)
	g, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())

	_, err = New("").Loader()
	require.NoError(t, err, "an empty graph is left to the validator")
}
