// Package graph renders decision graphs as Mermaid flowcharts and Markdown
// reports.
package graph
