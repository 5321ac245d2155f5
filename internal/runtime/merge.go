package runtime

import (
	"github.com/aretw0/espalier/pkg/domain"
)

// MergeDirect combines graph assignments with caller-supplied direct
// parameters into a new map. Direct values win on conflict. Neither input is
// modified.
func MergeDirect(assignments, direct domain.Assignments) domain.Assignments {
	out := make(domain.Assignments, len(assignments)+len(direct))
	for k, v := range assignments {
		out[k] = v
	}
	for k, v := range direct {
		out[k] = v
	}
	return out
}

// Resolve executes the graph, merges the direct parameters and checks the
// merged map against the parameter schema. Execution errors are returned as
// is. When the merged map is not constructible the resolution is still
// returned together with the schema error, so callers can inspect the trace.
func (e *Executor) Resolve(g *domain.Graph, rec domain.Record, direct domain.Assignments) (*domain.Resolution, error) {
	result, err := e.Execute(g, rec)
	if err != nil {
		return nil, err
	}
	res := &domain.Resolution{
		Result:   result,
		Resolved: MergeDirect(result.Assignments, direct),
	}
	if e.params == nil {
		return res, nil
	}
	if err := e.params.CheckComplete(res.Resolved); err != nil {
		e.logger.Debug("record not constructible", "err", err)
		return res, err
	}
	return res, nil
}
