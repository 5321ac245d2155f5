package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGraph = `
entry_node_ids: [typology]
nodes:
  - id: typology
    type: condition
    branches:
      - condition: {field: building_typology, operator: eq, value: sf}
        target: sf
    default: mf
  - id: sf
    type: assignment
    assignments: {HeatingFuel: NaturalGas}
  - id: mf
    type: assignment
    assignments: {HeatingFuel: Electricity}
`

const testParams = `
- name: HeatingFuel
  type: enum
  values: [NaturalGas, Electricity, Propane]
- name: WWR
  type: number
  min: 0
  max: 1
  direct: true
`

// project writes a graph, a parameter catalogue and an espalier.toml into a
// temp dir and makes it the working directory.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("graph.yaml", testGraph)
	write("params.yaml", testParams)
	write("espalier.toml", "graph = \"graph.yaml\"\nparameters = \"params.yaml\"\ndirect = [\"WWR\"]\nlog_level = \"error\"\n")
	t.Chdir(dir)
	t.Setenv("NO_COLOR", "1")
	return dir
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := project(t)

	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 error(s)")
	assert.Contains(t, out, "Graph is valid!")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
entry_node_ids: [root]
nodes:
  - id: root
    type: component_ref
    component_id: ghost
`), 0644))
	out, err = execute(t, "validate", broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "[structural]")
}

func TestRunCommand(t *testing.T) {
	dir := project(t)

	out, err := execute(t, "run", "--record", `{"id": "b1", "building_typology": "sf", "WWR": 0.25}`)
	require.NoError(t, err)

	var got struct {
		RecordID string         `json:"record_id"`
		Resolved map[string]any `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "b1", got.RecordID)
	assert.Equal(t, "NaturalGas", got.Resolved["HeatingFuel"])
	assert.Equal(t, 0.25, got.Resolved["WWR"])

	_, err = execute(t, "run", "--record", `{"building_typology": "sf"}`)
	assert.ErrorContains(t, err, "not constructible", "WWR is direct and required")

	baseline := filepath.Join(dir, "baseline.yaml")
	require.NoError(t, os.WriteFile(baseline, []byte(`
entry_node_ids: [root]
nodes:
  - id: root
    type: assignment
    assignments: {HeatingFuel: Propane}
`), 0644))
	out, err = execute(t, "run", "--record", `{"building_typology": "mf", "WWR": 0.4}`, "--baseline", baseline)
	require.NoError(t, err)
	var diff struct {
		Diff struct {
			Changed map[string]struct {
				Before any `json:"before"`
				After  any `json:"after"`
			} `json:"changed"`
		} `json:"diff"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &diff))
	assert.Equal(t, "Propane", diff.Diff.Changed["HeatingFuel"].Before)
	assert.Equal(t, "Electricity", diff.Diff.Changed["HeatingFuel"].After)
}

func TestRunCommand_RecordRequired(t *testing.T) {
	project(t)
	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "a record is required")
}

func TestGraphCommand(t *testing.T) {
	project(t)

	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart TD")
	assert.NotContains(t, out, "classDef visited")

	out, err = execute(t, "graph", "--record", `{"building_typology": "sf"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "classDef visited")
}

func TestSweepCommand(t *testing.T) {
	dir := project(t)
	records := filepath.Join(dir, "records.yaml")
	require.NoError(t, os.WriteFile(records, []byte(`
- {id: a, building_typology: sf, WWR: 0.2}
- {id: b, building_typology: mf, WWR: 0.3}
- {id: c, building_typology: mf}
`), 0644))
	summary := filepath.Join(dir, "summary.md")

	out, err := execute(t, "sweep", "--records", records, "--run-id", "test-run", "--out", summary)
	require.NoError(t, err)
	assert.Contains(t, out, "# Sweep test-run")
	assert.Contains(t, out, "- **Failed**: 1")

	written, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(written), "`c`")

	_, err = execute(t, "sweep", "--records", records, "--fail-on-error")
	assert.ErrorContains(t, err, "1 of 3 records failed")
}

func TestSchemaCommand(t *testing.T) {
	project(t)

	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "**HeatingFuel**")

	out, err = execute(t, "schema", "--json")
	require.NoError(t, err)
	var doc struct {
		Parameters []map[string]any `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Parameters, 2)
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "espalier version")
}
