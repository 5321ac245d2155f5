package domain

import "fmt"

// Operator is the comparison applied by a FieldCondition.
type Operator string

const (
	OpEq           Operator = "eq"
	OpNeq          Operator = "neq"
	OpLt           Operator = "lt"
	OpLte          Operator = "lte"
	OpGt           Operator = "gt"
	OpGte          Operator = "gte"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpContains     Operator = "contains"
	OpIsMissing    Operator = "is_missing"
	OpIsNotMissing Operator = "is_not_missing"
)

// Operators lists every supported operator in documentation order.
var Operators = []Operator{
	OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn, OpContains, OpIsMissing, OpIsNotMissing,
}

// Known reports whether op is a supported operator.
func (op Operator) Known() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// NeedsOperand is false only for the missingness operators.
func (op Operator) NeedsOperand() bool {
	return op != OpIsMissing && op != OpIsNotMissing
}

// Numeric reports whether op orders numbers.
func (op Operator) Numeric() bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// FieldCondition is a single predicate over one record field.
type FieldCondition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    Value    `json:"value,omitzero" yaml:"value,omitempty"`
}

func (c FieldCondition) String() string {
	if !c.Operator.NeedsOperand() {
		return fmt.Sprintf("%s %s", c.Field, c.Operator)
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
}

// Branch routes to Target when Condition holds.
type Branch struct {
	Condition FieldCondition `json:"condition" yaml:"condition"`
	Target    string         `json:"target" yaml:"target"`
}

// Record is one sparse input row.
type Record map[string]Value

// Lookup returns the field value, treating explicit null as absent.
func (r Record) Lookup(field string) (Value, bool) {
	v, ok := r[field]
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// RecordFromMap converts decoded row data into a Record.
func RecordFromMap(raw map[string]any) (Record, error) {
	out := make(Record, len(raw))
	for k, r := range raw {
		v, err := FromAny(r)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Row is one record of a batch together with its id and the direct
// parameters supplied alongside it.
type Row struct {
	ID     string      `json:"id"`
	Record Record      `json:"record"`
	Direct Assignments `json:"direct,omitempty"`
}
