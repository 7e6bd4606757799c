package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

const utf8BOM = "\uFEFF"

// Table is the tabular data a session keeps for download.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0
}

// Source supplies the last table cached for a session.
type Source interface {
	Last(ctx context.Context) (*Table, bool, error)
}

// Filename follows LDdata-{Mon}{DD}-{YYYY}_{HH:MM:SS}.csv.
func Filename(now time.Time) string {
	return "LDdata-" + now.Format("Jan02-2006") + "_" + now.Format("15:04:05") + ".csv"
}

// Encode writes the table as UTF-8 CSV with a byte order mark and a header
// row. No row-index column is added.
func Encode(table *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(table.Columns))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Export serializes the last cached table of src. ok is false when there is
// nothing cached yet, in which case the export is a no-op.
func Export(ctx context.Context, src Source, now time.Time) (filename string, data []byte, ok bool, err error) {
	table, found, err := src.Last(ctx)
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to load cached result: %w", err)
	}
	if !found || table.Empty() {
		return "", nil, false, nil
	}

	data, err = Encode(table)
	if err != nil {
		return "", nil, false, err
	}
	return Filename(now), data, true, nil
}
