package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/file"
)

// NewEngine initializes an engine with standard CLI conventions: the graph
// path from the argument or the config, optional field and parameter
// schemas, and the configured direct parameters.
func NewEngine(ctx context.Context, cfg *config.Config, graphPath string, logger *slog.Logger, extra ...espalier.Option) (*espalier.Engine, error) {
	if graphPath == "" {
		graphPath = cfg.Graph
	}
	if graphPath == "" {
		return nil, fmt.Errorf("no graph given: pass a path or set graph in the config")
	}

	opts := []espalier.Option{espalier.WithLogger(logger)}
	if cfg.Fields != "" {
		fields, err := file.LoadFields(cfg.Fields)
		if err != nil {
			return nil, err
		}
		opts = append(opts, espalier.WithFields(fields))
	}
	if cfg.Parameters != "" {
		params, err := file.LoadParameters(cfg.Parameters)
		if err != nil {
			return nil, err
		}
		opts = append(opts, espalier.WithParameters(params))
	}
	if len(cfg.Direct) > 0 {
		opts = append(opts, espalier.WithDirectParameters(cfg.Direct...))
	}
	opts = append(opts, extra...)

	engine, err := espalier.New(ctx, graphPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
