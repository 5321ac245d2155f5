package domain

import (
	"fmt"
	"strings"
)

// FindingKind classifies a validation finding.
type FindingKind string

const (
	KindStructural     FindingKind = "structural"
	KindSchema         FindingKind = "schema"
	KindFieldReference FindingKind = "field_reference"
	KindCoverage       FindingKind = "coverage"
	KindEvaluation     FindingKind = "evaluation"
)

// Severity decides whether a finding blocks execution.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity is derived from the kind: coverage and evaluation findings are
// warnings, everything else is an error.
func (k FindingKind) Severity() Severity {
	switch k {
	case KindCoverage, KindEvaluation:
		return SeverityWarning
	default:
		return SeverityError
	}
}

func (k FindingKind) sentinel() error {
	switch k {
	case KindStructural:
		return ErrStructural
	case KindSchema:
		return ErrSchema
	case KindFieldReference:
		return ErrFieldReference
	case KindCoverage:
		return ErrCoverage
	default:
		return ErrEvaluation
	}
}

// Finding is one structured validation result. It implements error so it
// can travel through error-returning APIs, but the validator returns it as
// data.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	NodeID  string      `json:"node_id,omitempty"`
	Ref     string      `json:"ref,omitempty"`
	Path    []string    `json:"path,omitempty"`
	Missing []string    `json:"missing,omitempty"`
	Message string      `json:"message"`
}

func (f Finding) Severity() Severity { return f.Kind.Severity() }

func (f Finding) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f Finding) Unwrap() error { return f.Kind.sentinel() }

// Findings is the ordered output of a validation pass.
type Findings []Finding

// Errors returns the findings that block execution.
func (fs Findings) Errors() Findings { return fs.filter(SeverityError) }

// Warnings returns the non-blocking findings.
func (fs Findings) Warnings() Findings { return fs.filter(SeverityWarning) }

// HasErrors reports whether execution must be refused.
func (fs Findings) HasErrors() bool {
	for _, f := range fs {
		if f.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// OfKind returns the findings of one kind.
func (fs Findings) OfKind(kind FindingKind) Findings {
	var out Findings
	for _, f := range fs {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Err returns a *ValidationError when any error finding exists, else nil.
func (fs Findings) Err() error {
	if !fs.HasErrors() {
		return nil
	}
	return &ValidationError{Findings: fs}
}

func (fs Findings) String() string {
	lines := make([]string, len(fs))
	for i, f := range fs {
		lines[i] = fmt.Sprintf("[%s] %s", f.Severity(), f.Error())
	}
	return strings.Join(lines, "\n")
}

func (fs Findings) filter(sev Severity) Findings {
	var out Findings
	for _, f := range fs {
		if f.Severity() == sev {
			out = append(out, f)
		}
	}
	return out
}
