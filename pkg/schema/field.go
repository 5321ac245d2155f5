package schema

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// FieldType classifies an input field.
type FieldType string

const (
	FieldCategorical FieldType = "categorical"
	FieldNumeric     FieldType = "numeric"
	FieldPlaintext   FieldType = "plaintext"
)

// Field is a named input slot of a record.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"field_type" yaml:"field_type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	DataQuality string    `json:"data_quality_description,omitempty" yaml:"data_quality_description,omitempty"`
	Categories  []string  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Min         *float64  `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	Max         *float64  `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Unit        string    `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Supplementary is an extra block of context shipped with a field set.
type Supplementary struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Format  string `json:"format_hint,omitempty" yaml:"format_hint,omitempty"`
}

// FieldSet is the input schema: the fields a record may carry plus the
// free-form context describing where the records come from.
type FieldSet struct {
	Fields        []Field         `json:"fields" yaml:"fields"`
	Context       string          `json:"context,omitempty" yaml:"context,omitempty"`
	Region        string          `json:"region_description,omitempty" yaml:"region_description,omitempty"`
	BuildingStock string          `json:"building_stock_description,omitempty" yaml:"building_stock_description,omitempty"`
	Supplementary []Supplementary `json:"supplementary_context,omitempty" yaml:"supplementary_context,omitempty"`
}

// Lookup returns the field with the given name. The first declaration wins.
func (s *FieldSet) Lookup(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns field names in declaration order.
func (s *FieldSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks the definition itself: unique names, categories for
// categorical fields and a consistent range for numeric fields.
func (s *FieldSet) Validate() error {
	if s == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			errs = append(errs, &ValidationError{Key: f.Name, Reason: "field name is empty"})
			continue
		}
		if seen[f.Name] {
			errs = append(errs, &ValidationError{Key: f.Name, Reason: "field name is not unique"})
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldCategorical:
			if len(f.Categories) == 0 {
				errs = append(errs, &ValidationError{Key: f.Name, Reason: "categorical field requires categories"})
			}
		case FieldNumeric:
			if f.Min == nil || f.Max == nil {
				errs = append(errs, &ValidationError{Key: f.Name, Reason: "numeric field requires min_value and max_value"})
			} else if *f.Min > *f.Max {
				errs = append(errs, &ValidationError{Key: f.Name, Reason: fmt.Sprintf("min_value %v exceeds max_value %v", *f.Min, *f.Max)})
			}
		case FieldPlaintext:
		default:
			errs = append(errs, &ValidationError{Key: f.Name, Reason: fmt.Sprintf("unknown field type %q", f.Type)})
		}
	}
	return aggregate(errs)
}

// CheckValue reports whether a single record value fits the field.
func (f Field) CheckValue(v domain.Value) error {
	if v.IsNull() {
		return nil
	}
	switch f.Type {
	case FieldCategorical:
		s, ok := v.AsString()
		if !ok {
			return fmt.Errorf("expected category string, got %s", v.Kind())
		}
		for _, c := range f.Categories {
			if c == s {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %v", s, f.Categories)
	case FieldNumeric:
		n, ok := v.AsNumber()
		if !ok {
			return fmt.Errorf("expected number, got %s", v.Kind())
		}
		return checkBounds(n, f.Min, f.Max)
	case FieldPlaintext:
		if _, ok := v.AsString(); !ok {
			return fmt.Errorf("expected text, got %s", v.Kind())
		}
	}
	return nil
}

// CheckRecord diagnoses a record against the field set: unknown fields,
// unknown categories, out-of-range numbers and wrong types. Missing fields
// are fine since records are sparse.
func (s *FieldSet) CheckRecord(rec domain.Record) error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, name := range sortedKeys(rec) {
		v := rec[name]
		f, ok := s.Lookup(name)
		if !ok {
			errs = append(errs, &ValidationError{Key: name, Reason: "not defined in field set", Value: v})
			continue
		}
		if err := f.CheckValue(v); err != nil {
			errs = append(errs, &ValidationError{Key: name, Reason: err.Error(), Value: v})
		}
	}
	return aggregate(errs)
}
