package runtime_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(t *testing.T) *schema.Parameters {
	t.Helper()
	p, err := schema.NewParameters(
		schema.Parameter{Name: "EquipmentBase", Type: schema.NumberIn(0, 1), Required: true},
		schema.Parameter{Name: "LightingBase", Type: schema.NumberIn(0, 1), Required: true},
		schema.Parameter{Name: "FacadeCavityInsulationRValue", Type: schema.NumberIn(0, 20), Required: true},
		schema.Parameter{Name: "WWR", Type: schema.NumberIn(0, 1), Required: true, Direct: true},
	)
	require.NoError(t, err)
	return p
}

// buildingGraph routes typology to a schedule component and year_built to an
// envelope component, with a weatherization override chained after the
// pre-1940 envelope.
func buildingGraph() *domain.Graph {
	return domain.NewGraph("residential",
		[]domain.Component{
			{ID: "sf_schedule", Name: "Single family schedule", Assignments: domain.Assignments{
				"EquipmentBase": domain.Number(0.3),
				"LightingBase":  domain.Number(0.2),
			}},
			{ID: "mf_schedule", Name: "Multi family schedule", Assignments: domain.Assignments{
				"EquipmentBase": domain.Number(0.4),
				"LightingBase":  domain.Number(0.25),
			}},
			{ID: "pre1940_envelope", Assignments: domain.Assignments{"FacadeCavityInsulationRValue": domain.Number(0.5)}},
			{ID: "modern_envelope", Assignments: domain.Assignments{"FacadeCavityInsulationRValue": domain.Number(2.5)}},
			{ID: "weatherization_upgrade", Assignments: domain.Assignments{"FacadeCavityInsulationRValue": domain.Number(3.0)}},
		},
		[]domain.Node{
			&domain.ConditionNode{
				ID: "typology",
				Branches: []domain.Branch{
					{Condition: cond("building_typology", domain.OpIn, domain.Strings("single_family_detached", "single_family_attached")), Target: "sf"},
					{Condition: cond("building_typology", domain.OpIn, domain.Strings("multi_family")), Target: "mf"},
				},
				Default: "sf",
			},
			&domain.ComponentRefNode{ID: "sf", ComponentID: "sf_schedule"},
			&domain.ComponentRefNode{ID: "mf", ComponentID: "mf_schedule"},
			&domain.ConditionNode{
				ID: "era",
				Branches: []domain.Branch{
					{Condition: cond("year_built", domain.OpLt, domain.Int(1940)), Target: "pre1940"},
				},
				Default: "modern",
			},
			&domain.ComponentRefNode{ID: "pre1940", ComponentID: "pre1940_envelope", Next: []string{"weatherization"}},
			&domain.ComponentRefNode{ID: "modern", ComponentID: "modern_envelope"},
			&domain.ConditionNode{
				ID: "weatherization",
				Branches: []domain.Branch{
					{Condition: cond("weatherization_status", domain.OpEq, domain.String("weatherized")), Target: "upgrade"},
				},
			},
			&domain.ComponentRefNode{ID: "upgrade", ComponentID: "weatherization_upgrade"},
		},
		[]string{"typology", "era"},
	)
}

func TestExecute_TypologyRoutesToSchedule(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t))

	res, err := exec.Execute(buildingGraph(), domain.Record{"building_typology": domain.String("single_family_detached")})
	require.NoError(t, err)

	assert.True(t, domain.Number(0.3).Equal(res.Assignments["EquipmentBase"]))
	assert.Equal(t, []string{"sf_schedule", "modern_envelope"}, res.Trace.AppliedComponents)
	assert.Equal(t, []string{"typology", "era", "sf", "modern"}, res.Trace.Visited)
}

func TestExecute_MissingFieldFallsBackToDefault(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t))
	g := buildingGraph()

	withTypology, err := exec.Execute(g, domain.Record{"building_typology": domain.String("single_family_detached")})
	require.NoError(t, err)
	without, err := exec.Execute(g, domain.Record{})
	require.NoError(t, err)

	assert.Equal(t, withTypology.Assignments, without.Assignments)
	assert.Empty(t, without.Trace.Notes)
}

func TestExecute_OverrideLaw(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t))

	res, err := exec.Execute(buildingGraph(), domain.Record{
		"year_built":            domain.Int(1925),
		"weatherization_status": domain.String("weatherized"),
	})
	require.NoError(t, err)

	assert.True(t, domain.Number(3.0).Equal(res.Assignments["FacadeCavityInsulationRValue"]),
		"got %s", res.Assignments["FacadeCavityInsulationRValue"])
	assert.Equal(t, []string{"sf_schedule", "pre1940_envelope", "weatherization_upgrade"}, res.Trace.AppliedComponents)

	notWeatherized, err := exec.Execute(buildingGraph(), domain.Record{"year_built": domain.Int(1925)})
	require.NoError(t, err)
	assert.True(t, domain.Number(0.5).Equal(notWeatherized.Assignments["FacadeCavityInsulationRValue"]))
	assert.Contains(t, notWeatherized.Trace.Visited, "weatherization", "condition without match or default ends the path")
	assert.NotContains(t, notWeatherized.Trace.Visited, "upgrade")
}

func TestExecute_FirstMatchWins(t *testing.T) {
	g := domain.NewGraph("", nil,
		[]domain.Node{
			&domain.ConditionNode{
				ID: "root",
				Branches: []domain.Branch{
					{Condition: cond("year_built", domain.OpLt, domain.Int(2000)), Target: "a"},
					{Condition: cond("year_built", domain.OpLt, domain.Int(1950)), Target: "b"},
				},
			},
			&domain.AssignmentNode{ID: "a", Assignments: domain.Assignments{"x": domain.Int(1)}},
			&domain.AssignmentNode{ID: "b", Assignments: domain.Assignments{"x": domain.Int(2)}},
		},
		[]string{"root"},
	)

	res, err := runtime.NewExecutor(nil).Execute(g, domain.Record{"year_built": domain.Int(1900)})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a"}, res.Trace.Visited)
	assert.True(t, domain.Int(1).Equal(res.Assignments["x"]))
}

func TestExecute_FanOutVisitsAllSuccessorsInOrder(t *testing.T) {
	g := domain.NewGraph("", nil,
		[]domain.Node{
			&domain.AssignmentNode{ID: "base", Assignments: domain.Assignments{"x": domain.Int(1)}, Next: []string{"left", "right"}},
			&domain.AssignmentNode{ID: "left", Assignments: domain.Assignments{"x": domain.Int(2)}, Next: []string{"join"}},
			&domain.AssignmentNode{ID: "right", Assignments: domain.Assignments{"y": domain.Int(3)}, Next: []string{"join"}},
			&domain.AssignmentNode{ID: "join", Assignments: domain.Assignments{"z": domain.Int(4)}},
		},
		[]string{"base"},
	)

	res, err := runtime.NewExecutor(nil).Execute(g, domain.Record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "left", "right", "join"}, res.Trace.Visited, "join is visited once")
	assert.True(t, domain.Int(2).Equal(res.Assignments["x"]))
	assert.Len(t, res.Assignments, 3)
}

func TestExecute_TerminatesOnCycle(t *testing.T) {
	g := domain.NewGraph("", nil,
		[]domain.Node{
			&domain.ConditionNode{ID: "nodeA", Default: "nodeB"},
			&domain.ConditionNode{ID: "nodeB", Default: "nodeA"},
		},
		[]string{"nodeA"},
	)

	res, err := runtime.NewExecutor(nil).Execute(g, domain.Record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"nodeA", "nodeB"}, res.Trace.Visited)
}

func TestExecute_DanglingReferences(t *testing.T) {
	tests := []struct {
		name    string
		graph   *domain.Graph
		wantRef string
	}{
		{
			name: "unknown component",
			graph: domain.NewGraph("", nil,
				[]domain.Node{&domain.ComponentRefNode{ID: "r", ComponentID: "ghost"}},
				[]string{"r"}),
			wantRef: "ghost",
		},
		{
			name: "unknown successor",
			graph: domain.NewGraph("", nil,
				[]domain.Node{&domain.AssignmentNode{ID: "a", Next: []string{"nowhere"}}},
				[]string{"a"}),
			wantRef: "nowhere",
		},
		{
			name:    "unknown entry",
			graph:   domain.NewGraph("", nil, nil, []string{"start"}),
			wantRef: "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runtime.NewExecutor(nil).Execute(tt.graph, domain.Record{})
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDanglingReference)

			var serr *domain.StructuralError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.wantRef, serr.Ref)
		})
	}
}

func TestExecute_UnresolvedExcludesDirect(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t), runtime.WithDirectParameters("LightingBase"))

	res, err := exec.Execute(buildingGraph(), domain.Record{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Trace.Unresolved)

	g := domain.NewGraph("", nil, []domain.Node{&domain.AssignmentNode{ID: "a"}}, []string{"a"})
	res, err = exec.Execute(g, domain.Record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"EquipmentBase", "FacadeCavityInsulationRValue"}, res.Trace.Unresolved)
}

func TestExecute_NotesAndHooks(t *testing.T) {
	var visits []string
	var components []string
	var notes []domain.Note
	exec := runtime.NewExecutor(nil, runtime.WithHooks(domain.ExecutionHooks{
		OnNodeVisit:        func(e domain.NodeEvent) { visits = append(visits, e.NodeID+":"+e.NodeType) },
		OnComponentApplied: func(e domain.ComponentEvent) { components = append(components, e.ComponentID) },
		OnEvaluationNote:   func(n domain.Note) { notes = append(notes, n) },
	}))

	res, err := exec.Execute(buildingGraph(), domain.Record{"year_built": domain.String("unknown")})
	require.NoError(t, err)

	assert.Equal(t, []string{"typology:condition", "era:condition", "sf:component_ref", "modern:component_ref"}, visits)
	assert.Equal(t, res.Trace.AppliedComponents, components)
	require.Len(t, res.Trace.Notes, 1)
	assert.Equal(t, "era", res.Trace.Notes[0].NodeID)
	assert.Equal(t, res.Trace.Notes, notes)
}

func TestExecute_IsPure(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t))
	g := buildingGraph()
	rec := domain.Record{"year_built": domain.Int(1925), "weatherization_status": domain.String("weatherized")}

	first, err := exec.Execute(g, rec)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := exec.Execute(g, rec)
			if !assert.NoError(t, err) {
				return
			}
			data, err := json.Marshal(res)
			if assert.NoError(t, err) {
				assert.JSONEq(t, string(firstJSON), string(data))
			}
		}()
	}
	wg.Wait()

	first.Assignments["EquipmentBase"] = domain.Number(0.99)
	again, err := exec.Execute(g, rec)
	require.NoError(t, err)
	assert.True(t, domain.Number(0.3).Equal(again.Assignments["EquipmentBase"]), "results hold no references into the graph")
}

func TestMergeDirect(t *testing.T) {
	graph := domain.Assignments{"EquipmentBase": domain.Number(0.3), "WWR": domain.Number(0.2)}
	direct := domain.Assignments{"WWR": domain.Number(0.4), "NFloors": domain.Int(2)}

	merged := runtime.MergeDirect(graph, direct)

	assert.True(t, domain.Number(0.4).Equal(merged["WWR"]), "direct values win")
	assert.Len(t, merged, 3)
	assert.True(t, domain.Number(0.2).Equal(graph["WWR"]), "inputs are untouched")
}

func TestResolve(t *testing.T) {
	exec := runtime.NewExecutor(testParams(t))
	rec := domain.Record{"building_typology": domain.String("multi_family")}

	res, err := exec.Resolve(buildingGraph(), rec, domain.Assignments{"WWR": domain.Number(0.35)})
	require.NoError(t, err)
	assert.True(t, domain.Number(0.35).Equal(res.Resolved["WWR"]))
	assert.True(t, domain.Number(0.4).Equal(res.Resolved["EquipmentBase"]))

	res, err = exec.Resolve(buildingGraph(), rec, nil)
	require.Error(t, err)
	require.NotNil(t, res, "the trace is still available")
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), `"WWR": required`)

	res, err = exec.Resolve(buildingGraph(), rec, domain.Assignments{"WWR": domain.Number(1.5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "above maximum")
	assert.NotNil(t, res)
}
