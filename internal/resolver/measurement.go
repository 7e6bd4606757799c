package resolver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMalformedFile = errors.New("malformed measurement file")

// Point is one row of a measurement file after the extra column is dropped.
type Point struct {
	Energy      float64 `json:"energy"`
	Density     float64 `json:"density"`
	Uncertainty float64 `json:"uncertainty"`
}

// MeasurementSet holds the rows parsed from one CSV file of an isotope folder.
type MeasurementSet struct {
	File    string   `json:"file"`
	Columns []string `json:"columns"`
	Points  []Point  `json:"points"`
}

func (m MeasurementSet) Rows() [][]string {
	rows := make([][]string, 0, len(m.Points))
	for _, p := range m.Points {
		rows = append(rows, []string{formatFloat(p.Energy), formatFloat(p.Density), formatFloat(p.Uncertainty)})
	}
	return rows
}

// parseMeasurements reads a headerless measurement CSV. Lines starting with
// '#' are comments, columns past the third are ignored and rows with a blank
// value among the first three are dropped.
func parseMeasurements(r io.Reader) ([]Point, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var points []Point
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		line++

		if blankRecord(record) {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected at least 3", ErrMalformedFile, line, len(record))
		}

		var values [3]float64
		missing := false
		for i := 0; i < 3; i++ {
			field := strings.TrimSpace(record[i])
			if field == "" {
				missing = true
				break
			}
			values[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %q is not a number", ErrMalformedFile, line, i+1, field)
			}
		}
		if missing {
			continue
		}

		points = append(points, Point{Energy: values[0], Density: values[1], Uncertainty: values[2]})
	}

	return points, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
