// Package file reads graphs, schemas and record batches from local YAML,
// JSON and CSV files, and stores sweep outcomes as JSON files.
package file
