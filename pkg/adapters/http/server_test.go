package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/espalier"
	httpAdapter "github.com/aretw0/espalier/pkg/adapters/http"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParameters() *schema.Parameters {
	return schema.MustParameters(
		schema.Parameter{Name: "HeatingFuel", Group: "Heating", Type: schema.Enum("NaturalGas", "Electricity"), Required: true},
		schema.Parameter{Name: "EquipmentBase", Group: "Equipment", Type: schema.NumberIn(0, 1), Required: true},
		schema.Parameter{Name: "NFloors", Group: "Geometry", Type: schema.Integer(), Direct: true},
	)
}

func testGraph() *domain.Graph {
	return domain.NewGraph("heating",
		nil,
		[]domain.Node{
			&domain.ConditionNode{
				ID: "root",
				Branches: []domain.Branch{
					{Condition: domain.FieldCondition{Field: "typology", Operator: domain.OpEq, Value: domain.String("sf")}, Target: "sf"},
				},
				Default: "mf",
			},
			&domain.AssignmentNode{ID: "sf", Assignments: domain.Assignments{
				"HeatingFuel":   domain.String("NaturalGas"),
				"EquipmentBase": domain.Number(0.3),
			}},
			&domain.AssignmentNode{ID: "mf", Assignments: domain.Assignments{
				"HeatingFuel":   domain.String("Electricity"),
				"EquipmentBase": domain.Number(0.5),
			}},
		},
		[]string{"root"},
	)
}

func newServer(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	eng, err := espalier.New(context.Background(), "",
		espalier.WithGraph(testGraph()),
		espalier.WithParameters(testParameters()),
	)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	return httpAdapter.NewHandler(eng, httpAdapter.WithRegistry(reg)), reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpAdapter.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "heating", resp.Graph)
	assert.Equal(t, 3, resp.Nodes)
	assert.Zero(t, resp.Errors)
	assert.True(t, resp.Executable)
}

func TestExecute(t *testing.T) {
	h, _ := newServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, resp httpAdapter.ExecuteResponse)
	}{
		{
			name:       "complete",
			body:       `{"record": {"typology": "sf"}, "direct": {"NFloors": 2}}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp httpAdapter.ExecuteResponse) {
				require.NotNil(t, resp.Resolution)
				assert.Empty(t, resp.Error)
				assert.True(t, domain.String("NaturalGas").Equal(resp.Resolution.Resolved["HeatingFuel"]))
				assert.True(t, domain.Int(2).Equal(resp.Resolution.Resolved["NFloors"]))
				assert.Equal(t, []string{"root", "sf"}, resp.Resolution.Result.Trace.Visited)
			},
		},
		{
			name:       "default branch",
			body:       `{"record": {}, "direct": {"NFloors": 1}}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp httpAdapter.ExecuteResponse) {
				assert.True(t, domain.String("Electricity").Equal(resp.Resolution.Resolved["HeatingFuel"]))
			},
		},
		{
			name:       "missing direct parameter",
			body:       `{"record": {"typology": "sf"}}`,
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, resp httpAdapter.ExecuteResponse) {
				require.NotNil(t, resp.Resolution, "partial resolution is returned")
				assert.Contains(t, resp.Error, "NFloors")
			},
		},
		{
			name:       "malformed body",
			body:       `{"record": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/execute", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check == nil {
				return
			}
			var resp httpAdapter.ExecuteResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			tt.check(t, resp)
		})
	}
}

func TestExecute_InvalidGraph(t *testing.T) {
	broken := domain.NewGraph("broken", nil,
		[]domain.Node{&domain.ComponentRefNode{ID: "ref", ComponentID: "ghost"}},
		[]string{"ref"},
	)
	eng, err := espalier.New(context.Background(), "",
		espalier.WithGraph(broken),
		espalier.WithParameters(testParameters()),
	)
	require.NoError(t, err)
	h := httpAdapter.NewHandler(eng)

	w := do(t, h, "POST", "/execute", `{"record": {}}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "GET", "/findings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var findings domain.Findings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &findings))
	assert.NotEmpty(t, findings.OfKind(domain.KindStructural))
}

func TestValidate(t *testing.T) {
	h, _ := newServer(t)

	valid := `{
		"description": "candidate",
		"entry_node_ids": ["root"],
		"nodes": [
			{"id": "root", "type": "assignment", "assignments": {"HeatingFuel": "NaturalGas", "EquipmentBase": 0.2}}
		]
	}`
	w := do(t, h, "POST", "/validate", valid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp httpAdapter.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	dangling := `{
		"entry_node_ids": ["root"],
		"nodes": [{"id": "root", "type": "component_ref", "component_id": "ghost"}]
	}`
	w = do(t, h, "POST", "/validate", dangling)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Findings)

	w = do(t, h, "POST", "/validate", `{"nodes": [{"id": "x", "type": "loop"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphViews(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "GET", "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "heating", doc["description"])
	assert.Len(t, doc["nodes"], 3)

	w = do(t, h, "GET", "/graph/mermaid", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "flowchart TD"))

	w = do(t, h, "GET", "/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "HeatingFuel")
}

func TestReload(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, "POST", "/reload", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsAndOpenAPI(t *testing.T) {
	h, _ := newServer(t)
	do(t, h, "GET", "/health", "")

	w := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `espalier_http_requests_total{method="GET",route="/health",status="200"} 1`)

	w = do(t, h, "GET", "/openapi.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/execute"`)

	require.NoError(t, httpAdapter.OpenAPI().Validate(context.Background()))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newServer(t)
	req := httptest.NewRequest("OPTIONS", "/execute", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
