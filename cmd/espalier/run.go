package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/spf13/cobra"
)

// runOutput is printed by the run command.
type runOutput struct {
	RecordID string                 `json:"record_id"`
	Result   *domain.Result         `json:"result,omitempty"`
	Resolved domain.Assignments     `json:"resolved,omitempty"`
	Baseline domain.Assignments     `json:"baseline,omitempty"`
	Diff     *domain.AssignmentDiff `json:"diff,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [graph]",
	Short: "Resolve one record against the graph",
	Long: `Executes the graph for a single record, merges its direct parameters and
prints the result, the resolved parameters and the trace as JSON. With
--baseline the same record is resolved against a second graph and the
parameter differences are reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, cfg, logger, err := openEngine(ctx, cmd, args)
		if err != nil {
			return err
		}
		row, err := readRow(cmd, cfg.Direct)
		if err != nil {
			return err
		}

		res, resolveErr := eng.Resolve(row.Record, row.Direct)
		if res == nil {
			return resolveErr
		}
		out := runOutput{RecordID: row.ID, Result: res.Result, Resolved: res.Resolved}
		if resolveErr != nil {
			out.Error = resolveErr.Error()
		}

		if baselinePath, _ := cmd.Flags().GetString("baseline"); baselinePath != "" {
			base, err := cli.NewEngine(ctx, cfg, baselinePath, logger)
			if err != nil {
				return err
			}
			baseRes, err := base.Resolve(row.Record, row.Direct)
			if baseRes == nil {
				return err
			}
			out.Baseline = baseRes.Resolved
			out.Diff = domain.Diff(baseRes.Resolved, out.Resolved)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		if resolveErr != nil {
			return fmt.Errorf("record %s is not constructible", row.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRecordFlags(runCmd)
	runCmd.Flags().String("baseline", "", "Graph to compare the resolved parameters against")
}
