// Package idgen generates short, URL-safe ids for sweep runs and lock tokens.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RunPrefix is prepended to run ids.
const RunPrefix = "run-"

// Alphabet defines the character set used for the random portion of an id.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 12

// New returns a random id without prefix.
func New() (string, error) {
	return WithPrefix("")
}

// RunID returns a new sweep run id.
func RunID() (string, error) {
	return WithPrefix(RunPrefix)
}

// WithPrefix returns a new random id with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
