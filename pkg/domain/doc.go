/*
Package domain contains the core domain models of the espalier decision graph.

It defines the graph arena, the closed set of node variants, literal values,
records, execution results and validation findings. This package is kept pure
and free of I/O, following Hexagonal Architecture principles: loaders build a
Graph, the validator and executor receive it explicitly.

# Key Entities

  - Graph: immutable id-keyed arena of Nodes and Components plus entry ids.
  - Node: ConditionNode, AssignmentNode or ComponentRefNode (sealed).
  - Value: tagged literal (string, number, bool, null, list).
  - Record: one sparse input row; absent and null fields are "missing".
  - Result: assignments plus the Trace of one execution.
  - Finding: structured validator output, error or warning by kind.
*/
package domain
