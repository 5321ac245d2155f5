package file

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// IDField is the column naming a record. Rows without it are numbered by
// position.
const IDField = "id"

// LoadRecords reads a batch of records. Supported formats, by extension:
// .csv, .json (array of objects), .jsonl/.ndjson and .yaml/.yml (list).
// Columns named in direct are moved out of the record into Row.Direct.
func LoadRecords(path string, direct []string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	var raws []map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		raws, err = readCSV(f)
	case ".json":
		dec := json.NewDecoder(f)
		dec.UseNumber()
		err = dec.Decode(&raws)
	case ".jsonl", ".ndjson":
		raws, err = readJSONLines(f)
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&raws)
	default:
		err = fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records from %s: %w", path, err)
	}
	return Rows(raws, direct)
}

// Rows converts decoded row maps into domain rows.
func Rows(raws []map[string]any, direct []string) ([]domain.Row, error) {
	isDirect := make(map[string]bool, len(direct))
	for _, name := range direct {
		isDirect[name] = true
	}

	rows := make([]domain.Row, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, raw := range raws {
		id := strconv.Itoa(i)
		if v, ok := raw[IDField]; ok && v != nil {
			id = fmt.Sprint(v)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("row %d: duplicate id %q (first seen at row %d)", i, id, prev)
		}
		seen[id] = i

		row := domain.Row{ID: id, Record: domain.Record{}}
		for k, rv := range raw {
			if k == IDField {
				continue
			}
			v, err := domain.FromAny(rv)
			if err != nil {
				return nil, fmt.Errorf("row %s: field %s: %w", id, k, err)
			}
			if isDirect[k] {
				if row.Direct == nil {
					row.Direct = domain.Assignments{}
				}
				row.Direct[k] = v
				continue
			}
			row.Record[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readCSV decodes a header row plus data rows. Empty and NaN cells are
// absent; cells that parse as finite numbers become numbers.
func readCSV(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var out []map[string]any
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(header))
		for i, cell := range cells {
			if cell == "" {
				continue
			}
			if n, err := strconv.ParseFloat(cell, 64); err == nil && header[i] != IDField {
				if math.IsNaN(n) {
					continue
				}
				if !math.IsInf(n, 0) {
					row[header[i]] = n
					continue
				}
			}
			row[header[i]] = cell
		}
		out = append(out, row)
	}
}

func readJSONLines(r io.Reader) ([]map[string]any, error) {
	var out []map[string]any
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, row)
	}
	return out, scanner.Err()
}
