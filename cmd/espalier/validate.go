package main

import (
	"fmt"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph]",
	Short: "Check the graph for consistency",
	Long: `Checks references, field names, operators and assigned values against the
schemas, then enumerates root-to-leaf paths and reports parameters a path
leaves unassigned. Exits non-zero when any error finding is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []espalier.Option
		if noCoverage, _ := cmd.Flags().GetBool("no-coverage"); noCoverage {
			opts = append(opts, espalier.WithoutCoverage())
		}
		if budget, _ := cmd.Flags().GetInt("path-budget"); budget > 0 {
			opts = append(opts, espalier.WithPathBudget(budget))
		}

		eng, _, _, err := openEngine(cmd.Context(), cmd, args, opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		findings := eng.Findings()
		tui.PrintFindings(out, findings, tui.ShouldUseColor())
		if findings.HasErrors() {
			return fmt.Errorf("validation failed with %d errors", len(findings.Errors()))
		}
		fmt.Fprintln(out, "Graph is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("no-coverage", false, "Skip the path coverage analysis")
	validateCmd.Flags().Int("path-budget", 0, "Maximum number of paths enumerated by the coverage analysis")
}
