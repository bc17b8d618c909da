// Package csvio reads and writes the weight log CSV format:
//
//	Date,Weight (kg),Notes/Mood
//	05/01/24,80.4,tired
//
// Dates are DD/MM/YY. An empty weight is a day without a measurement.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format of the Date column.
const DateLayout = "02/01/06"

// looseDateLayout accepts days and months without a leading zero.
const looseDateLayout = "2/1/06"

// Column names.
const (
	ColDate   = "Date"
	ColWeight = "Weight (kg)"
	ColNote   = "Notes/Mood"
)

// ErrInvalidCSV is returned when the input has no usable header.
var ErrInvalidCSV = errors.New("csv: invalid input")

// Header is the header row written by Write.
var Header = []string{ColDate, ColWeight, ColNote}

// Record is one parsed row.
type Record struct {
	Date   time.Time
	Weight *float64
	Note   string
}

// RowError is a row that was skipped, with the 1-based line it came from.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

// Read parses every row of r. Malformed rows are skipped and returned as
// RowErrors; only an unusable header or an I/O failure fails the whole read.
func Read(r io.Reader) ([]Record, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty input", ErrInvalidCSV)
		}
		return nil, nil, fmt.Errorf("%w: read header: %w", ErrInvalidCSV, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	dateCol, ok := cols[ColDate]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q column", ErrInvalidCSV, ColDate)
	}
	weightCol, ok := cols[ColWeight]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q column", ErrInvalidCSV, ColWeight)
	}
	noteCol, hasNote := cols[ColNote]

	var recs []Record
	var skipped []RowError
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped = append(skipped, RowError{Line: pe.Line, Err: pe.Err.Error()})
				continue
			}
			return recs, skipped, fmt.Errorf("csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, dateCol, weightCol, noteCol, hasNote)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err.Error()})
			continue
		}
		recs = append(recs, rec)
	}
	return recs, skipped, nil
}

func parseRow(row []string, dateCol, weightCol, noteCol int, hasNote bool) (Record, error) {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var rec Record
	d, err := time.Parse(DateLayout, field(dateCol))
	if err != nil {
		if d, err = time.Parse(looseDateLayout, field(dateCol)); err != nil {
			return rec, fmt.Errorf("invalid date %q", field(dateCol))
		}
	}
	rec.Date = d

	if raw := field(weightCol); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return rec, fmt.Errorf("invalid weight %q", raw)
		}
		if w <= 0 {
			return rec, fmt.Errorf("weight must be > 0, got %v", w)
		}
		rec.Weight = &w
	}
	if hasNote {
		rec.Note = field(noteCol)
	}
	return rec, nil
}

// Write emits the header and one row per record.
func Write(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range recs {
		weight := ""
		if r.Weight != nil {
			weight = strconv.FormatFloat(*r.Weight, 'f', -1, 64)
		}
		if err := cw.Write([]string{r.Date.Format(DateLayout), weight, r.Note}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
