package domain

import "time"

// Note is a non-fatal diagnostic raised while evaluating a condition, such
// as a numeric operator applied to a string. The condition resolved false.
type Note struct {
	NodeID   string   `json:"node_id,omitempty"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Message  string   `json:"message"`
}

// Trace is the audit trail of one execution.
type Trace struct {
	// Visited lists node ids in visitation order.
	Visited []string `json:"visited"`
	// AppliedComponents lists component ids in application order.
	AppliedComponents []string `json:"applied_components"`
	// Unresolved lists required parameters absent from the assignments, sorted.
	Unresolved []string `json:"unresolved"`
	// Notes lists evaluation diagnostics in the order they were raised.
	Notes []Note `json:"notes,omitempty"`
}

// Result is the output of executing a graph against one record. It holds no
// references into the graph.
type Result struct {
	Assignments Assignments `json:"assignments"`
	Trace       Trace       `json:"trace"`
}

// Outcome is the persisted result of one record in a sweep. Resolved holds
// the graph assignments merged with direct parameters; Error is set when
// execution or resolution failed.
type Outcome struct {
	RunID     string      `json:"run_id"`
	RecordID  string      `json:"record_id"`
	Result    *Result     `json:"result,omitempty"`
	Resolved  Assignments `json:"resolved,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Resolution is an execution result merged with the caller's direct
// parameters: the map handed to downstream model construction.
type Resolution struct {
	Result   *Result     `json:"result"`
	Resolved Assignments `json:"resolved"`
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	return &Result{
		Assignments: r.Assignments.Clone(),
		Trace: Trace{
			Visited:           append([]string(nil), r.Trace.Visited...),
			AppliedComponents: append([]string(nil), r.Trace.AppliedComponents...),
			Unresolved:        append([]string(nil), r.Trace.Unresolved...),
			Notes:             append([]Note(nil), r.Trace.Notes...),
		},
	}
}

// Clone returns a deep copy of the outcome.
func (o *Outcome) Clone() *Outcome {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Result = o.Result.Clone()
	cp.Resolved = o.Resolved.Clone()
	return &cp
}
