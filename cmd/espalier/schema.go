package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/aretw0/espalier/pkg/schema/building"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Describe the field and parameter schemas",
	Long: `Prints the configured input fields and output parameters. Without a
parameters file in the config the building catalogue is described.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		params := building.Parameters()
		if cfg.Parameters != "" {
			if params, err = file.LoadParameters(cfg.Parameters); err != nil {
				return err
			}
		}
		var fields *schema.FieldSet
		if cfg.Fields != "" {
			if fields, err = file.LoadFields(cfg.Fields); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Fields     *schema.FieldSet   `json:"fields,omitempty"`
				Parameters *schema.Parameters `json:"parameters"`
			}{fields, params})
		}

		md := ""
		if fields != nil {
			md += "# Fields\n\n" + fields.Describe() + "\n"
		}
		md += "# Parameters\n\n" + params.Describe()
		rendered, err := tui.NewRenderer(tui.ShouldUseColor())(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().Bool("json", false, "Print the schemas as JSON")
}
