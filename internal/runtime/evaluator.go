package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Evaluate resolves a single condition against a record. It never fails:
// malformed conditions and type mismatches resolve to false and return a
// Note describing why. A missing field only satisfies is_missing.
func Evaluate(cond domain.FieldCondition, rec domain.Record) (bool, *domain.Note) {
	op := cond.Operator
	if !op.Known() {
		return false, note(cond, "unknown operator %q", op)
	}

	value, present := rec.Lookup(cond.Field)
	switch op {
	case domain.OpIsMissing:
		return !present, nil
	case domain.OpIsNotMissing:
		return present, nil
	}

	if !present {
		return false, nil
	}
	if cond.Value.IsNull() {
		return false, note(cond, "operator %s requires an operand", op)
	}

	switch op {
	case domain.OpEq:
		return value.Equal(cond.Value), nil
	case domain.OpNeq:
		return !value.Equal(cond.Value), nil
	case domain.OpLt, domain.OpLte, domain.OpGt, domain.OpGte:
		return compare(cond, value)
	case domain.OpIn, domain.OpNotIn:
		if cond.Value.Kind() != domain.KindList {
			return false, note(cond, "operator %s requires a list operand, got %s", op, cond.Value.Kind())
		}
		member := cond.Value.Contains(value)
		if op == domain.OpIn {
			return member, nil
		}
		return !member, nil
	case domain.OpContains:
		return contains(cond, value)
	}
	return false, note(cond, "unhandled operator %q", op)
}

func compare(cond domain.FieldCondition, value domain.Value) (bool, *domain.Note) {
	left, ok := value.AsNumber()
	if !ok {
		return false, note(cond, "operator %s needs a numeric field, got %s", cond.Operator, value.Kind())
	}
	right, ok := cond.Value.AsNumber()
	if !ok {
		return false, note(cond, "operator %s needs a numeric operand, got %s", cond.Operator, cond.Value.Kind())
	}
	switch cond.Operator {
	case domain.OpLt:
		return left < right, nil
	case domain.OpLte:
		return left <= right, nil
	case domain.OpGt:
		return left > right, nil
	default:
		return left >= right, nil
	}
}

func contains(cond domain.FieldCondition, value domain.Value) (bool, *domain.Note) {
	switch value.Kind() {
	case domain.KindString:
		s, _ := value.AsString()
		sub, ok := cond.Value.AsString()
		if !ok {
			return false, note(cond, "contains on a string field needs a string operand, got %s", cond.Value.Kind())
		}
		return strings.Contains(s, sub), nil
	case domain.KindList:
		return value.Contains(cond.Value), nil
	default:
		return false, note(cond, "contains needs a string or list field, got %s", value.Kind())
	}
}

func note(cond domain.FieldCondition, format string, args ...any) *domain.Note {
	return &domain.Note{
		Field:    cond.Field,
		Operator: cond.Operator,
		Message:  fmt.Sprintf(format, args...),
	}
}
