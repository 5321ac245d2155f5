package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader for a single YAML or JSON document.
type Loader struct {
	Path string
}

// New creates a loader for the graph document at path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and decodes the document. Reference problems are not checked
// here; the validator reports them.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := decodeFile(l.Path, &raw); err != nil {
		return nil, err
	}
	doc, err := dto.DecodeGraph(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	g, err := doc.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	if g.Description() == "" {
		g = domain.NewGraph(trimExtension(filepath.Base(l.Path)), g.Components(), g.Nodes(), g.Entries())
	}
	return g, nil
}

// decodeFile unmarshals a YAML or JSON file chosen by extension. JSON
// numbers are kept as json.Number so integers survive exactly.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported file extension %q for %s", ext, path)
	}
	return nil
}

func trimExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
