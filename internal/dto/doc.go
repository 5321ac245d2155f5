// Package dto holds the document forms of the domain types and their
// conversions, shared by loaders and transport adapters.
package dto
