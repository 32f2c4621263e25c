// Package records converts downloaded report CSV text into ordered rows
// and serializes them back out as JSON or CSV files.
package records

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// Table is a parsed report: the header columns in their original order,
// and one map per data row keyed by column name.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ParseCSV reads an entire CSV document. The first record is the header;
// every following record becomes a row keyed by the header columns. Rows
// shorter than the header leave the missing cells absent; a row with
// more cells than the header is an error, since the extra cells have no
// column to land in.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // the platform pads some exports unevenly

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("records: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("records: csv has no header row")
	}

	t := &Table{Headers: records[0]}
	for n, rec := range records[1:] {
		if len(rec) > len(t.Headers) {
			return nil, fmt.Errorf("records: row %d has %d cells but the header has %d columns",
				n+2, len(rec), len(t.Headers))
		}
		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteJSON serializes the rows as a pretty-printed JSON array.
func WriteJSON(w io.Writer, rows []map[string]string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("records: write json: %w", err)
	}
	return nil
}

// WriteCSV serializes the table back to CSV, columns in header order.
// Cells missing from a row are written empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("records: write csv: %w", err)
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			rec[i] = row[h]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("records: write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("records: write csv: %w", err)
	}
	return nil
}
