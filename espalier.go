package espalier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/hcl"
	loamAdapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/aretw0/espalier/pkg/schema/building"
)

// Engine is the high-level entry point for the espalier library.
// It loads a graph, validates it and executes records against it.
// An Engine is safe for concurrent use; Reload swaps the graph atomically.
type Engine struct {
	loader   ports.GraphLoader
	state    atomic.Pointer[snapshot]
	fields   *schema.FieldSet
	params   *schema.Parameters
	executor *runtime.Executor
	hooks    domain.ExecutionHooks
	direct   []string
	valOpts  []validator.Option
	logger   *slog.Logger
	Name     string
}

// snapshot pairs a graph with its findings so readers never see one
// without the other.
type snapshot struct {
	graph    *domain.Graph
	findings domain.Findings
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing path-based detection.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithGraph uses an already built graph.
func WithGraph(g *domain.Graph) Option {
	return func(e *Engine) {
		e.loader = memory.New(g)
	}
}

// WithFields sets the input field schema. Without it, condition fields are
// not checked against a schema.
func WithFields(fs *schema.FieldSet) Option {
	return func(e *Engine) {
		e.fields = fs
	}
}

// WithParameters sets the output parameter schema (default: the building
// catalogue).
func WithParameters(p *schema.Parameters) Option {
	return func(e *Engine) {
		e.params = p
	}
}

// WithDirectParameters marks extra parameters as supplied outside the graph.
func WithDirectParameters(names ...string) Option {
	return func(e *Engine) {
		e.direct = append(e.direct, names...)
	}
}

// WithoutCoverage skips the coverage analysis during validation.
func WithoutCoverage() Option {
	return func(e *Engine) {
		e.valOpts = append(e.valOpts, validator.WithoutCoverage())
	}
}

// WithPathBudget bounds the coverage path enumeration.
func WithPathBudget(n int) Option {
	return func(e *Engine) {
		e.valOpts = append(e.valOpts, validator.WithPathBudget(n))
	}
}

// WithExecutionHooks registers traversal observers.
func WithExecutionHooks(hooks domain.ExecutionHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New loads and validates a graph.
//
// The loader is picked from the path: a directory is read as a Loam
// repository of Markdown nodes, ".hcl" files as HCL, and ".yaml", ".yml" or
// ".json" files as graph documents. If WithLoader or WithGraph is provided,
// path may be empty and is only used as a name.
//
// Validation findings do not make New fail. Execute refuses to run while
// Findings contains errors.
func New(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.params == nil {
		eng.params = building.Parameters()
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		loader, err := LoaderFor(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if path != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	eng.executor = runtime.NewExecutor(eng.params,
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithDirectParameters(eng.direct...),
	)

	if err := eng.Reload(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

// Reload loads the graph again and revalidates it. On error the previous
// graph stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	g, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	findings := e.Validate(g)
	e.state.Store(&snapshot{graph: g, findings: findings})

	e.logger.Info("graph loaded",
		"nodes", g.NodeCount(),
		"components", len(g.Components()),
		"errors", len(findings.Errors()),
		"warnings", len(findings.Warnings()))
	return nil
}

// Watch reloads the graph whenever the loader reports a change, until ctx
// is done. It returns an error if the loader cannot be watched. Reload
// failures are logged and keep the previous graph.
func (e *Engine) Watch(ctx context.Context) error {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return fmt.Errorf("loader %T does not support watching", e.loader)
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for id := range changes {
			e.logger.Debug("graph source changed", "id", id)
			if err := e.Reload(ctx); err != nil {
				e.logger.Error("reload failed", "err", err)
			}
		}
	}()
	return nil
}

// LoaderFor picks a GraphLoader from a path as described in New.
func LoaderFor(path string) (ports.GraphLoader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if info.IsDir() {
		l, err := loamAdapter.Open(path)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcl.New(path), nil
	case ".yaml", ".yml", ".json":
		return file.New(path), nil
	default:
		return nil, fmt.Errorf("unsupported graph file %s", path)
	}
}

// Graph returns the loaded graph.
func (e *Engine) Graph() *domain.Graph { return e.state.Load().graph }

// Fields returns the input field schema, or nil.
func (e *Engine) Fields() *schema.FieldSet { return e.fields }

// Parameters returns the output parameter schema.
func (e *Engine) Parameters() *schema.Parameters { return e.params }

// Findings returns every validation finding.
func (e *Engine) Findings() domain.Findings {
	return append(domain.Findings(nil), e.state.Load().findings...)
}

// Err returns a *domain.ValidationError when the graph has error findings.
func (e *Engine) Err() error { return e.state.Load().findings.Err() }

// Execute runs the graph against one record.
func (e *Engine) Execute(rec domain.Record) (*domain.Result, error) {
	st := e.state.Load()
	if err := st.findings.Err(); err != nil {
		return nil, err
	}
	return e.executor.Execute(st.graph, rec)
}

// Resolve runs the graph, merges direct parameters and checks the merged
// map against the parameter schema.
func (e *Engine) Resolve(rec domain.Record, direct domain.Assignments) (*domain.Resolution, error) {
	st := e.state.Load()
	if err := st.findings.Err(); err != nil {
		return nil, err
	}
	return e.executor.Resolve(st.graph, rec, direct)
}

// Validate checks any graph against the engine's schemas and validation
// options without loading it.
func (e *Engine) Validate(g *domain.Graph) domain.Findings {
	valOpts := append([]validator.Option{
		validator.WithLogger(e.logger),
		validator.WithDirectParameters(e.direct...),
	}, e.valOpts...)
	var fields ports.FieldSchema
	if e.fields != nil {
		fields = e.fields
	}
	return validator.Validate(g, fields, e.params, valOpts...)
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader {
	return e.loader
}
