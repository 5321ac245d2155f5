package loam

// NodeMetadata is the frontmatter of one document in a graph repository.
// A document describes either a node (type condition, assignment or
// component_ref) or a reusable component (type component). The Markdown
// body is used as the description when none is given.
type NodeMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Type        string `json:"type" mapstructure:"type"`
	Entry       bool   `json:"entry" mapstructure:"entry"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`

	// Condition nodes
	Branches []map[string]any `json:"branches" mapstructure:"branches"`
	Default  string           `json:"default" mapstructure:"default"`

	// Assignment nodes and components
	Assignments map[string]any `json:"assignments" mapstructure:"assignments"`

	// Component references
	ComponentID string `json:"component_id" mapstructure:"component_id"`

	Next []string `json:"next" mapstructure:"next"`
}

// TypeComponent marks a document holding a component instead of a node.
const TypeComponent = "component"
