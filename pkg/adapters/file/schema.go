package file

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/schema"
)

// LoadFields reads a field set document (YAML or JSON) and validates it.
func LoadFields(path string) (*schema.FieldSet, error) {
	var fs schema.FieldSet
	if err := decodeFile(path, &fs); err != nil {
		return nil, err
	}
	if err := fs.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fs, nil
}

// LoadParameters reads a parameter catalogue document: a list of parameter
// specs in YAML or JSON.
func LoadParameters(path string) (*schema.Parameters, error) {
	var params schema.Parameters
	if err := decodeFile(path, &params); err != nil {
		return nil, err
	}
	return &params, nil
}
