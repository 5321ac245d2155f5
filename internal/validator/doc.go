// Package validator checks a decision graph before it is executed.
//
// Validate aggregates every finding in one pass. Errors (structural, schema,
// field reference) block execution; coverage warnings do not.
package validator
