package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventNodeVisit        EventType = "node_visit"
	EventComponentApplied EventType = "component_applied"
	EventEvaluationNote   EventType = "evaluation_note"
	EventRecordResolved   EventType = "record_resolved"
	EventRecordFailed     EventType = "record_failed"
	EventSweepFinished    EventType = "sweep_finished"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// NodeEvent reports a node visited during execution.
type NodeEvent struct {
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

// ComponentEvent reports a component merged during execution.
type ComponentEvent struct {
	NodeID      string `json:"node_id"`
	ComponentID string `json:"component_id"`
}

// RecordEvent reports the outcome of one record in a sweep.
type RecordEvent struct {
	EventBase
	RecordID   string   `json:"record_id"`
	Visited    int      `json:"visited"`
	Unresolved []string `json:"unresolved,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// SweepEvent reports a finished sweep.
type SweepEvent struct {
	EventBase
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// ExecutionHooks observe a traversal without influencing it. Nil hooks are
// skipped. Hooks run on the executing goroutine.
type ExecutionHooks struct {
	OnNodeVisit        func(NodeEvent)
	OnComponentApplied func(ComponentEvent)
	OnEvaluationNote   func(Note)
}
