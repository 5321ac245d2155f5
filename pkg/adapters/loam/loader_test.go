package loam

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/aretw0/espalier/internal/testutils"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaderFor(repo core.Repository) *Loader {
	return New(loam.NewTypedRepository[NodeMetadata](repo))
}

func TestLoader_Load(t *testing.T) {
	_, repo := testutils.SetupGraphRepo(t, map[string]string{
		"root.md": `---
type: condition
entry: true
branches:
  - condition:
      field: heating_fuel
      operator: eq
      value: natural_gas
    target: furnace.md
default: electric
---
Route on the reported heating fuel.`,
		"furnace.md": `---
type: component_ref
component_id: gas_furnace
next: [electric]
---`,
		"electric.json": `{
  "type": "assignment",
  "description": "Electric resistance fallback",
  "assignments": {"HeatingCOP": 1, "HeatingFuel": "Electricity"}
}`,
		"gas_furnace.md": `---
type: component
name: Gas furnace
assignments:
  HeatingFuel: NaturalGas
  HeatingCOP: 0.8
---
Standard natural gas furnace.`,
	})

	g, err := loaderFor(repo).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"root"}, g.Entries())
	assert.Equal(t, 3, g.NodeCount())

	n, ok := g.Node("root")
	require.True(t, ok)
	cond := n.(*domain.ConditionNode)
	assert.Equal(t, "Route on the reported heating fuel.", cond.Description, "body becomes the description")
	require.Len(t, cond.Branches, 1)
	assert.Equal(t, "furnace", cond.Branches[0].Target, "extensions are trimmed from references")
	assert.True(t, domain.String("natural_gas").Equal(cond.Branches[0].Condition.Value))

	n, ok = g.Node("electric")
	require.True(t, ok)
	assert.Equal(t, "Electric resistance fallback", n.NodeDescription())
	assert.True(t, domain.Int(1).Equal(n.(*domain.AssignmentNode).Assignments["HeatingCOP"]))

	c, ok := g.Component("gas_furnace")
	require.True(t, ok)
	assert.Equal(t, "Gas furnace", c.Name)
	assert.Equal(t, "Standard natural gas furnace.", c.Description)
	assert.True(t, domain.Number(0.8).Equal(c.Assignments["HeatingCOP"]))
}

func TestLoader_ListNodes_NormalizesIDs(t *testing.T) {
	_, repo := testutils.SetupGraphRepo(t, map[string]string{
		"start.md": `---
id: start.md
type: assignment
---
Hello`,
		"choice.json": `{
  "id": "choice.json",
  "type": "assignment"
}`,
		"implicit.md": `---
type: assignment
---
ID is implied from filename`,
	})

	ids, err := loaderFor(repo).ListNodes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"choice", "implicit", "start"}, ids)
}

func TestLoader_DetectsCollisions(t *testing.T) {
	_, repo := testutils.SetupGraphRepo(t, map[string]string{
		"foo.md": `---
id: foo
type: assignment
---
Explicit ID`,
		"foo.json": `{
  "id": "foo",
  "type": "assignment"
}`,
	})

	_, err := loaderFor(repo).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestLoader_RejectsUnknownNodeType(t *testing.T) {
	_, repo := testutils.SetupGraphRepo(t, map[string]string{
		"odd.md": `---
type: prompt
---
Not a decision node`,
	})

	_, err := loaderFor(repo).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "prompt"`)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"only.md": `---
type: assignment
entry: true
assignments:
  NFloors: 2
---`,
	})

	l, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), l.Description)

	g, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, g.Entries())
}
