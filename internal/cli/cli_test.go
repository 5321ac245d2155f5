package cli

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/testutils"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphYAML = `
description: heating
entry_node_ids: [root]
nodes:
  - id: root
    type: condition
    branches:
      - condition: {field: typology, operator: eq, value: sf}
        target: gas
    default: electric
  - id: gas
    type: assignment
    assignments: {HeatingFuel: NaturalGas}
  - id: electric
    type: assignment
    assignments: {HeatingFuel: Electricity}
`

const paramsYAML = `
- name: HeatingFuel
  type: enum
  values: [NaturalGas, Electricity]
  group: Heating
- name: NFloors
  type: integer
  group: Geometry
  direct: true
`

func TestNewEngine(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Graph = testutils.WriteFile(t, dir, "heating.yaml", graphYAML)
	cfg.Parameters = testutils.WriteFile(t, dir, "params.yaml", paramsYAML)

	eng, err := NewEngine(context.Background(), cfg, "", logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, eng.Err())
	assert.Equal(t, 2, eng.Parameters().Len())

	res, err := eng.Resolve(domain.Record{"typology": domain.String("sf")}, domain.Assignments{"NFloors": domain.Int(1)})
	require.NoError(t, err)
	assert.True(t, domain.String("NaturalGas").Equal(res.Resolved["HeatingFuel"]))
}

func TestNewEngine_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewEngine(context.Background(), config.Default(), "", logging.NewNop())
	assert.ErrorContains(t, err, "no graph given")

	cfg := config.Default()
	cfg.Parameters = filepath.Join(dir, "absent.yaml")
	_, err = NewEngine(context.Background(), cfg, testutils.WriteFile(t, dir, "g.yaml", graphYAML), logging.NewNop())
	assert.Error(t, err)
}

func TestOpenInfra_Disabled(t *testing.T) {
	in, err := OpenInfra(context.Background(), config.Default(), logging.NewNop())
	require.NoError(t, err)
	defer in.Close()

	assert.Nil(t, in.Store)
	assert.Nil(t, in.Publisher)
	assert.Nil(t, in.Sink)
	assert.Empty(t, in.SweepOptions())
}

func TestOpenInfra_Stores(t *testing.T) {
	mr := miniredis.RunT(t)
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tests := []struct {
		name       string
		configure  func(c *config.Config)
		wantLocker bool
	}{
		{name: "memory", configure: func(c *config.Config) { c.Results.Backend = "memory" }},
		{name: "file", configure: func(c *config.Config) {
			c.Results.Backend = "file"
			c.Results.Dir = t.TempDir()
		}},
		{name: "redis", configure: func(c *config.Config) {
			c.Results.Backend = "redis"
			c.Redis.Addr = mr.Addr()
			c.Redis.TTL = time.Hour
		}, wantLocker: true},
		{name: "encrypted file", configure: func(c *config.Config) {
			c.Results.Backend = "file"
			c.Results.Dir = t.TempDir()
			c.Results.Key = base64.StdEncoding.EncodeToString(key)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.configure(cfg)

			in, err := OpenInfra(context.Background(), cfg, logging.NewNop())
			require.NoError(t, err)
			defer in.Close()

			require.NotNil(t, in.Store)
			assert.Equal(t, tt.wantLocker, in.Locker != nil)

			ctx := context.Background()
			require.NoError(t, in.Store.Save(ctx, &domain.Outcome{RunID: "run-x", RecordID: "a"}))
			ids, err := in.Store.List(ctx, "run-x")
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids)
		})
	}
}

func TestOpenInfra_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Results.Backend = "memory"
	cfg.Results.Key = "c2hvcnQ="
	_, err := OpenInfra(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "results.key")

	cfg = config.Default()
	cfg.Results.Backend = "redis"
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cfg.Redis.Addr = mr.Addr()
	mr.Close()
	_, err = OpenInfra(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "redis at")
}

func TestSignalContext_CancelElsewhere(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}

func TestSignalContext_Interrupted(t *testing.T) {
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	assert.NoError(t, sc.Interrupted(nil))
	err := errors.New("boom")
	assert.Same(t, err, sc.Interrupted(err), "no signal leaves the error untouched")
}
