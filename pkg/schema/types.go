package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Type defines the contract for parameter value validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "number", "enum").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value domain.Value) error
}

// Bounded is implemented by numeric types with optional inclusive bounds.
type Bounded interface {
	Bounds() (min, max *float64)
}

// Enumerated is implemented by types restricted to a fixed set of strings.
type Enumerated interface {
	Values() []string
}

// --- Built-in Type Implementations ---

// NumberType validates finite numbers within optional inclusive bounds.
type NumberType struct {
	min, max *float64
}

func (t *NumberType) Name() string                 { return "number" }
func (t *NumberType) Bounds() (*float64, *float64) { return t.min, t.max }

func (t *NumberType) Validate(value domain.Value) error {
	n, ok := value.AsNumber()
	if !ok {
		return fmt.Errorf("expected number, got %s", value.Kind())
	}
	return checkBounds(n, t.min, t.max)
}

// IntegerType validates whole numbers within optional inclusive bounds.
type IntegerType struct {
	min, max *float64
}

func (t *IntegerType) Name() string                 { return "integer" }
func (t *IntegerType) Bounds() (*float64, *float64) { return t.min, t.max }

func (t *IntegerType) Validate(value domain.Value) error {
	n, ok := value.AsNumber()
	if !ok {
		return fmt.Errorf("expected integer, got %s", value.Kind())
	}
	if n != math.Trunc(n) {
		return fmt.Errorf("expected integer, got fractional number %v", n)
	}
	return checkBounds(n, t.min, t.max)
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value domain.Value) error {
	if _, ok := value.AsString(); !ok {
		return fmt.Errorf("expected string, got %s", value.Kind())
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value domain.Value) error {
	if _, ok := value.AsBool(); !ok {
		return fmt.Errorf("expected bool, got %s", value.Kind())
	}
	return nil
}

// EnumType validates strings drawn from a fixed set.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string     { return "enum" }
func (t *EnumType) Values() []string { return append([]string(nil), t.values...) }

func (t *EnumType) Validate(value domain.Value) error {
	s, ok := value.AsString()
	if !ok {
		return fmt.Errorf("expected one of %v, got %s", t.values, value.Kind())
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, t.values)
}

// ListType validates lists of a specific element type.
type ListType struct {
	elemType Type
}

func (t *ListType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *ListType) Validate(value domain.Value) error {
	items, ok := value.AsList()
	if !ok {
		return fmt.Errorf("expected list, got %s", value.Kind())
	}

	// Validate each element
	for i, item := range items {
		if err := t.elemType.Validate(item); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(domain.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value domain.Value) error {
	return t.validate(value)
}

func checkBounds(n float64, min, max *float64) error {
	if min != nil && n < *min {
		return fmt.Errorf("%v is below minimum %v", n, *min)
	}
	if max != nil && n > *max {
		return fmt.Errorf("%v is above maximum %v", n, *max)
	}
	return nil
}

// --- Factory Functions ---

// Number creates an unbounded number type.
func Number() Type { return &NumberType{} }

// NumberIn creates a number type with inclusive bounds.
func NumberIn(min, max float64) Type { return &NumberType{min: &min, max: &max} }

// Integer creates an unbounded integer type.
func Integer() Type { return &IntegerType{} }

// IntegerIn creates an integer type with inclusive bounds.
func IntegerIn(min, max float64) Type { return &IntegerType{min: &min, max: &max} }

// String creates a string type validator.
func String() Type { return &StringType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Enum creates a type accepting only the given strings.
func Enum(values ...string) Type {
	return &EnumType{values: append([]string(nil), values...)}
}

// List creates a list type validator for elements of the given type.
func List(elemType Type) Type {
	return &ListType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(domain.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "number", "integer", "string", "bool" and lists such as "[string]".
// "float" and "int" are accepted as aliases. Bounds and enum values are
// attached by TypeFromSpec.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	// Handle list types: [string], [number], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return List(elemType), nil
	}

	switch typeStr {
	case "number", "float":
		return Number(), nil
	case "integer", "int":
		return Integer(), nil
	case "string":
		return String(), nil
	case "bool", "boolean":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// TypeFromSpec builds a Type from a type name plus optional bounds and enum
// values, as found in parameter documents.
func TypeFromSpec(typeStr string, min, max *float64, values []string) (Type, error) {
	switch strings.TrimSpace(typeStr) {
	case "enum":
		if len(values) == 0 {
			return nil, fmt.Errorf("enum type requires values")
		}
		return Enum(values...), nil
	case "number", "float":
		if min != nil && max != nil && *min > *max {
			return nil, fmt.Errorf("invalid bounds [%v, %v]", *min, *max)
		}
		return &NumberType{min: min, max: max}, nil
	case "integer", "int":
		if min != nil && max != nil && *min > *max {
			return nil, fmt.Errorf("invalid bounds [%v, %v]", *min, *max)
		}
		return &IntegerType{min: min, max: max}, nil
	}
	if len(values) > 0 {
		return nil, fmt.Errorf("values are only allowed on enum types, got %s", typeStr)
	}
	return ParseType(typeStr)
}

// describeType renders the compact form used in schema descriptions, e.g.
// "number [ge=0, le=1]" or "one of: [a b]".
func describeType(t Type) string {
	if e, ok := t.(Enumerated); ok {
		return fmt.Sprintf("one of: %v", e.Values())
	}
	name := t.Name()
	if b, ok := t.(Bounded); ok {
		min, max := b.Bounds()
		var constraints []string
		if min != nil {
			constraints = append(constraints, "ge="+strconv.FormatFloat(*min, 'g', -1, 64))
		}
		if max != nil {
			constraints = append(constraints, "le="+strconv.FormatFloat(*max, 'g', -1, 64))
		}
		if len(constraints) > 0 {
			name += " [" + strings.Join(constraints, ", ") + "]"
		}
	}
	return name
}
