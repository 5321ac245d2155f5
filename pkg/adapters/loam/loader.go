package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of Markdown/JSON/YAML documents to the
// GraphLoader interface. Each document is one node or component.
type Loader struct {
	Repo        *loam.TypedRepository[NodeMetadata]
	Description string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a strict, read-only Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	l := New(loam.NewTypedRepository[NodeMetadata](repo))
	l.Description = filepath.Base(absPath)
	return l, nil
}

type entry struct {
	id   string
	path string
	meta NodeMetadata
	body string
}

// Load reads every document and assembles the graph. Documents are ordered
// by id; entry nodes are the ones flagged with `entry: true`.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	entries := make([]entry, 0, len(docs))
	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		body := doc.Content
		if doc.Data.Description == "" && body == "" {
			// List only carries metadata; the body needs a direct lookup.
			full, err := l.Repo.Get(ctx, doc.ID)
			if err != nil {
				return nil, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			body = full.Content
		}
		entries = append(entries, entry{id: id, path: doc.ID, meta: doc.Data, body: body})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	var (
		components []domain.Component
		nodes      []domain.Node
		entryIDs   []string
	)
	for _, e := range entries {
		description := e.meta.Description
		if description == "" {
			description = strings.TrimSpace(e.body)
		}

		assignments, err := domain.AssignmentsFromMap(e.meta.Assignments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.path, err)
		}

		if e.meta.Type == TypeComponent {
			components = append(components, domain.Component{
				ID:          e.id,
				Name:        e.meta.Name,
				Description: description,
				Assignments: assignments,
			})
			continue
		}

		var branches []dto.Branch
		if len(e.meta.Branches) > 0 {
			if err := dto.Decode(e.meta.Branches, &branches); err != nil {
				return nil, fmt.Errorf("%s: invalid branches: %w", e.path, err)
			}
			for i := range branches {
				branches[i].Target = trimExtension(branches[i].Target)
			}
		}
		node, err := dto.Node{
			ID:          e.id,
			Type:        e.meta.Type,
			Description: description,
			Branches:    branches,
			Default:     trimExtension(e.meta.Default),
			Assignments: assignments,
			ComponentID: trimExtension(e.meta.ComponentID),
			Next:        trimAll(e.meta.Next),
		}.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.path, err)
		}
		nodes = append(nodes, node)
		if e.meta.Entry {
			entryIDs = append(entryIDs, e.id)
		}
	}

	return domain.NewGraph(l.Description, components, nodes, entryIDs), nil
}

// ListNodes lists the ids of all documents in the repository.
func (l *Loader) ListNodes(ctx context.Context) ([]string, error) {
	g, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, n.NodeID())
	}
	return ids, nil
}

// Watch reports the ids of documents that changed until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func trimAll(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = trimExtension(id)
	}
	return out
}
