package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().String("record", "", "Record as a JSON object")
	cmd.Flags().String("record-file", "", "Path to a JSON or YAML file holding one record")
	cmd.MarkFlagsMutuallyExclusive("record", "record-file")
}

// readRow decodes the record given by --record or --record-file. Fields
// named in direct are moved to the row's direct parameters.
func readRow(cmd *cobra.Command, direct []string) (domain.Row, error) {
	inline, _ := cmd.Flags().GetString("record")
	path, _ := cmd.Flags().GetString("record-file")

	var raw map[string]any
	switch {
	case inline != "":
		if err := decodeJSON([]byte(inline), &raw); err != nil {
			return domain.Row{}, fmt.Errorf("invalid --record: %w", err)
		}
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Row{}, err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &raw)
		default:
			err = decodeJSON(data, &raw)
		}
		if err != nil {
			return domain.Row{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return domain.Row{}, fmt.Errorf("a record is required: use --record or --record-file")
	}

	rows, err := file.Rows([]map[string]any{raw}, direct)
	if err != nil {
		return domain.Row{}, err
	}
	return rows[0], nil
}

func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
