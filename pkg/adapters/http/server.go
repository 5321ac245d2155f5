package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/internal/logging"
	graphview "github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies. Graph documents are the largest payload.
const maxBodyBytes = 4 << 20

// Engine is the part of the espalier engine served over HTTP.
// *espalier.Engine implements it.
type Engine interface {
	Graph() *domain.Graph
	Findings() domain.Findings
	Fields() *schema.FieldSet
	Parameters() *schema.Parameters
	Resolve(rec domain.Record, direct domain.Assignments) (*domain.Resolution, error)
	Validate(g *domain.Graph) domain.Findings
	Reload(ctx context.Context) error
}

// Server serves one engine.
type Server struct {
	Engine   Engine
	logger   *slog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry exposes the collectors of reg on /metrics and registers the
// HTTP collectors there. Sweep metrics can share the same registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "espalier_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)
	s.latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "espalier_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	s.registry.MustRegister(s.requests, s.latency)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.Health)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph/mermaid", s.GetMermaid)
	r.Get("/findings", s.GetFindings)
	r.Get("/schema", s.GetSchema)
	r.Post("/execute", s.Execute)
	r.Post("/validate", s.ValidateGraph)
	r.Post("/reload", s.Reload)

	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		data, err := OpenAPI().MarshalJSON()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, "failed to render OpenAPI document", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Espalier API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Graph      string `json:"graph"`
	Nodes      int    `json:"nodes"`
	Components int    `json:"components"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
	Executable bool   `json:"executable"`
}

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Record domain.Record      `json:"record"`
	Direct domain.Assignments `json:"direct,omitempty"`
}

// ExecuteResponse is returned by POST /execute. Error is set when the merged
// parameters are incomplete or invalid; Resolution is kept for inspection.
type ExecuteResponse struct {
	Resolution *domain.Resolution `json:"resolution,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Valid    bool            `json:"valid"`
	Findings domain.Findings `json:"findings"`
}

// SchemaResponse is returned by GET /schema.
type SchemaResponse struct {
	Fields     *schema.FieldSet   `json:"fields,omitempty"`
	Parameters *schema.Parameters `json:"parameters"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	g := s.Engine.Graph()
	findings := s.Engine.Findings()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Graph:      g.Description(),
		Nodes:      g.NodeCount(),
		Components: len(g.Components()),
		Errors:     len(findings.Errors()),
		Warnings:   len(findings.Warnings()),
		Executable: !findings.HasErrors(),
	})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, dto.FromDomain(s.Engine.Graph()))
}

// GetMermaid handles GET /graph/mermaid.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graphview.GenerateMermaid(s.Engine.Graph(), nil))
}

// GetFindings handles GET /findings.
func (s *Server) GetFindings(w http.ResponseWriter, r *http.Request) {
	findings := s.Engine.Findings()
	if findings == nil {
		findings = domain.Findings{}
	}
	s.writeJSON(w, http.StatusOK, findings)
}

// GetSchema handles GET /schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, SchemaResponse{
		Fields:     s.Engine.Fields(),
		Parameters: s.Engine.Parameters(),
	})
}

// Execute handles POST /execute.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.Record == nil {
		body.Record = domain.Record{}
	}

	resolution, err := s.Engine.Resolve(body.Record, body.Direct)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.fail(w, http.StatusConflict, "graph is not executable", err)
			return
		}
		if resolution == nil {
			s.fail(w, http.StatusInternalServerError, "execution failed", err)
			return
		}
		s.logger.Debug("resolution incomplete", "err", err)
		s.writeJSON(w, http.StatusUnprocessableEntity, ExecuteResponse{Resolution: resolution, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, ExecuteResponse{Resolution: resolution})
}

// ValidateGraph handles POST /validate. The body is a graph document.
func (s *Server) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	doc, err := dto.DecodeGraph(raw)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid graph document", err)
		return
	}
	g, err := doc.ToDomain()
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid graph document", err)
		return
	}

	findings := s.Engine.Validate(g)
	if findings == nil {
		findings = domain.Findings{}
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: !findings.HasErrors(), Findings: findings})
}

// Reload handles POST /reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reload(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, "reload failed", err)
		return
	}
	s.Health(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Warn(msg, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}
