package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Category sentinels. Every finding and typed error unwraps to one of them
// so callers can branch with errors.Is.
var (
	ErrStructural     = errors.New("structural error")
	ErrSchema         = errors.New("schema error")
	ErrFieldReference = errors.New("field reference error")
	ErrCoverage       = errors.New("coverage warning")
	ErrEvaluation     = errors.New("evaluation note")
)

// ErrDanglingReference is returned by execution when a node or component id
// does not resolve. It only happens for graphs that skipped validation.
var ErrDanglingReference = fmt.Errorf("%w: dangling reference", ErrStructural)

// ErrResultNotFound is returned by result stores for unknown keys.
var ErrResultNotFound = errors.New("result not found")

// StructuralError reports a broken reference met at execution time.
type StructuralError struct {
	NodeID string
	Ref    string
	Msg    string
}

func (e *StructuralError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("structural error: %s", e.Msg)
	}
	return fmt.Sprintf("structural error at node %q: %s", e.NodeID, e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrDanglingReference }

// ValidationError aggregates the error-severity findings of a graph.
type ValidationError struct {
	Findings Findings
}

func (e *ValidationError) Error() string {
	errs := e.Findings.Errors()
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, f := range errs {
		lines[i] = f.Error()
	}
	return fmt.Sprintf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

// Unwrap exposes every error finding, so errors.Is matches any category
// present in the graph.
func (e *ValidationError) Unwrap() []error {
	errs := e.Findings.Errors()
	out := make([]error, len(errs))
	for i, f := range errs {
		out[i] = f
	}
	return out
}
