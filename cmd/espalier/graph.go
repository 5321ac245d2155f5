package main

import (
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [graph]",
	Short: "Export the decision graph visualization",
	Long: `Outputs a Mermaid flowchart of the decision graph. With --record the
nodes visited for that record are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, _, err := openEngine(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if cmd.Flags().Changed("record") || cmd.Flags().Changed("record-file") {
			row, err := readRow(cmd, cfg.Direct)
			if err != nil {
				return err
			}
			res, err := eng.Execute(row.Record)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromTrace(res.Trace)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addRecordFlags(graphCmd)
}
