package main

import (
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [graph]",
	Short: "Print a Markdown report of the graph",
	Long:  `Summarizes the graph: parameter group coverage, components, nodes and validation findings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := openEngine(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}

		md := graph.GenerateReport(eng.Graph(), eng.Findings(), eng.Parameters(), eng.Fields())
		plain, _ := cmd.Flags().GetBool("plain")
		render := tui.NewRenderer(!plain && tui.ShouldUseColor())
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("plain", false, "Print raw Markdown")
}
