package resolver

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bmex-dev/leveldensity/internal/isotope"
)

const (
	colZ          = "Z"
	colA          = "A"
	colDatafile   = "Datafile"
	colValidation = "Validation"

	defaultValidation = "yes"
)

// IndexRecord is one row of the global index table.
type IndexRecord struct {
	Z          int
	A          int
	Validation string
	// Fields holds every output column by name, Z, A and Validation included.
	Fields map[string]string
}

// IndexTable is the index subset for one isotope. Columns keeps the source
// column order minus Datafile.
type IndexTable struct {
	Columns []string      `json:"columns"`
	Records []IndexRecord `json:"records"`
}

func (t IndexTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = rec.Fields[col]
		}
		rows = append(rows, row)
	}
	return rows
}

func (r IndexRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields)
}

// parseIndex reads the index CSV. Rows without a Datafile entry are dropped,
// the Datafile column is removed, blank Validation values become "yes" and
// only rows whose Z and A equal the isotope are kept.
func parseIndex(r io.Reader, iso isotope.Isotope) (IndexTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return IndexTable{Columns: []string{}, Records: []IndexRecord{}}, nil
	}
	if err != nil {
		return IndexTable{}, fmt.Errorf("failed to read index header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	for _, required := range []string{colZ, colA, colDatafile} {
		if _, ok := pos[required]; !ok {
			return IndexTable{}, fmt.Errorf("index is missing column %q", required)
		}
	}

	table := IndexTable{Records: []IndexRecord{}}
	for _, name := range header {
		if name == colDatafile || name == "" {
			continue
		}
		table.Columns = append(table.Columns, name)
	}
	if _, ok := pos[colValidation]; !ok {
		table.Columns = append(table.Columns, colValidation)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return IndexTable{}, fmt.Errorf("failed to read index row: %w", err)
		}

		field := func(name string) string {
			i, ok := pos[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if field(colDatafile) == "" {
			continue
		}
		z, okZ := parseIntegral(field(colZ))
		a, okA := parseIntegral(field(colA))
		if !okZ || !okA || z != iso.Z || a != iso.A {
			continue
		}

		rec := IndexRecord{
			Z:          z,
			A:          a,
			Validation: field(colValidation),
			Fields:     make(map[string]string, len(table.Columns)),
		}
		if rec.Validation == "" {
			rec.Validation = defaultValidation
		}
		for _, name := range table.Columns {
			rec.Fields[name] = field(name)
		}
		rec.Fields[colValidation] = rec.Validation

		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// parseIntegral accepts "26" as well as float renderings such as "26.0".
func parseIntegral(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f {
		return 0, false
	}
	return int(f), true
}
