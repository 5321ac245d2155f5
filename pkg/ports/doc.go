/*
Package ports defines the driven ports (interfaces) around the espalier core.

These interfaces decouple graph validation and execution from external
implementations, allowing the core to work with various graph sources,
result stores, event buses and report destinations.

# Key Interfaces

  - FieldSchema / ParameterSchema: the input and output schemas consumed by
    the validator and executor.
  - GraphLoader: Builds a Graph from a source (files, HCL, Loam, memory).
  - ResultStore: Persists per-record sweep outcomes.
  - Publisher: Emits sweep events to a message bus.
  - ReportSink: Stores rendered reports (e.g. object storage).
*/
package ports
