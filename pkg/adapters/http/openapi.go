package http

import (
	"github.com/aretw0/espalier"
	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI describes the HTTP API.
func OpenAPI() *openapi3.T {
	value := openapi3.NewSchema()
	value.Description = "string, number, bool, null or a list of those"
	valueMap := openapi3.NewObjectSchema().WithAdditionalProperties(value)
	strings := openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())

	finding := openapi3.NewObjectSchema().
		WithProperty("kind", openapi3.NewStringSchema()).
		WithProperty("node_id", openapi3.NewStringSchema()).
		WithProperty("ref", openapi3.NewStringSchema()).
		WithProperty("path", strings).
		WithProperty("missing", strings).
		WithProperty("message", openapi3.NewStringSchema())
	findings := openapi3.NewArraySchema().WithItems(finding)

	trace := openapi3.NewObjectSchema().
		WithProperty("visited", strings).
		WithProperty("applied_components", strings).
		WithProperty("unresolved", strings)
	result := openapi3.NewObjectSchema().
		WithProperty("assignments", valueMap).
		WithProperty("trace", trace)
	resolution := openapi3.NewObjectSchema().
		WithProperty("result", result).
		WithProperty("resolved", valueMap)

	health := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("graph", openapi3.NewStringSchema()).
		WithProperty("nodes", openapi3.NewIntegerSchema()).
		WithProperty("components", openapi3.NewIntegerSchema()).
		WithProperty("errors", openapi3.NewIntegerSchema()).
		WithProperty("warnings", openapi3.NewIntegerSchema()).
		WithProperty("executable", openapi3.NewBoolSchema())

	errorBody := openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())

	execRequest := openapi3.NewObjectSchema().
		WithProperty("record", valueMap).
		WithProperty("direct", valueMap)
	execRequest.Required = []string{"record"}
	execResponse := openapi3.NewObjectSchema().
		WithProperty("resolution", resolution).
		WithProperty("error", openapi3.NewStringSchema())

	graphDoc := openapi3.NewObjectSchema().
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("entry_node_ids", strings).
		WithProperty("components", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())).
		WithProperty("nodes", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))
	validateResponse := openapi3.NewObjectSchema().
		WithProperty("valid", openapi3.NewBoolSchema()).
		WithProperty("findings", findings)

	schemaResponse := openapi3.NewObjectSchema().
		WithProperty("fields", openapi3.NewObjectSchema()).
		WithProperty("parameters", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))

	paths := openapi3.NewPaths(
		openapi3.WithPath("/health", &openapi3.PathItem{
			Get: operation("getHealth", "Graph status", nil, jsonResponse("Graph status", health)),
		}),
		openapi3.WithPath("/graph", &openapi3.PathItem{
			Get: operation("getGraph", "Loaded graph as a document", nil, jsonResponse("Graph document", graphDoc)),
		}),
		openapi3.WithPath("/graph/mermaid", &openapi3.PathItem{
			Get: operation("getMermaid", "Loaded graph as a Mermaid flowchart", nil,
				openapi3.WithStatus(200, &openapi3.ResponseRef{Value: openapi3.NewResponse().
					WithDescription("Mermaid source").
					WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}))})),
		}),
		openapi3.WithPath("/findings", &openapi3.PathItem{
			Get: operation("getFindings", "Validation findings of the loaded graph", nil, jsonResponse("Findings", findings)),
		}),
		openapi3.WithPath("/schema", &openapi3.PathItem{
			Get: operation("getSchema", "Input fields and output parameters", nil, jsonResponse("Schemas", schemaResponse)),
		}),
		openapi3.WithPath("/execute", &openapi3.PathItem{
			Post: operation("execute", "Execute the graph against one record", execRequest,
				jsonResponse("Resolution", execResponse),
				errorResponse(400, "Invalid request", errorBody),
				errorResponse(409, "Graph has validation errors", errorBody),
				openapi3.WithStatus(422, &openapi3.ResponseRef{Value: openapi3.NewResponse().
					WithDescription("Resolution incomplete").WithJSONSchema(execResponse)})),
		}),
		openapi3.WithPath("/validate", &openapi3.PathItem{
			Post: operation("validate", "Validate a graph document", graphDoc,
				jsonResponse("Findings", validateResponse),
				errorResponse(400, "Invalid graph document", errorBody)),
		}),
		openapi3.WithPath("/reload", &openapi3.PathItem{
			Post: operation("reload", "Reload the graph from its source", nil,
				jsonResponse("Graph status", health),
				errorResponse(500, "Reload failed", errorBody)),
		}),
	)

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Espalier API",
			Version: espalier.Version,
		},
		Paths: paths,
	}
}

func operation(id, summary string, body *openapi3.Schema, responses ...openapi3.NewResponsesOption) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchema(body)}
	}
	op.Responses = openapi3.NewResponses(responses...)
	return op
}

func jsonResponse(desc string, s *openapi3.Schema) openapi3.NewResponsesOption {
	return openapi3.WithStatus(200, &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription(desc).
		WithJSONSchema(s)})
}

func errorResponse(status int, desc string, s *openapi3.Schema) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription(desc).
		WithJSONSchema(s)})
}
