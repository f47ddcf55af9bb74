// Package loader reads delimited text files into tables.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/celebrum-ta-go/internal/classifier"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ErrEmptyInput is returned when the reader holds no records at all.
var ErrEmptyInput = errors.New("loader: empty input")

// DefaultDateLayouts are tried in order when inferring time columns.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// Options controls how a CSV stream is read.
type Options struct {
	HasHeader bool
	// Delimiter defaults to ','.
	Delimiter rune
	// DateLayouts defaults to DefaultDateLayouts. An empty non-nil slice
	// disables time inference.
	DateLayouts []string
}

func DefaultOptions() Options {
	return Options{HasHeader: true, Delimiter: ','}
}

// ReadCSV parses r into a table. Headerless columns are named col_0, col_1
// and so on. Each column becomes int, float, time or string, whichever is
// the narrowest kind every non-empty cell parses as. Empty cells are null.
func ReadCSV(r io.Reader, opts Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loader: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	var names []string
	if opts.HasHeader {
		names = records[0]
		records = records[1:]
	} else {
		names = make([]string, len(records[0]))
		for i := range names {
			names[i] = fmt.Sprintf("col_%d", i)
		}
	}

	layouts := opts.DateLayouts
	if layouts == nil {
		layouts = DefaultDateLayouts
	}

	cols := make([]*table.Series, len(names))
	for j, name := range names {
		cells := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		cols[j] = inferColumn(strings.TrimSpace(name), cells, layouts)
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return t, nil
}

// ReadFinancialCSV reads r, classifies its columns and renames the mapped
// ones to date, open, high, low, close and volume.
func ReadFinancialCSV(r io.Reader, opts Options) (*table.Table, classifier.FinancialColumns, error) {
	t, err := ReadCSV(r, opts)
	if err != nil {
		return nil, classifier.FinancialColumns{}, err
	}
	fc := classifier.Classify(t, opts.HasHeader)
	out, err := classifier.Canonicalize(t, fc)
	if err != nil {
		return nil, fc, err
	}
	return out, fc, nil
}

func inferColumn(name string, cells []string, layouts []string) *table.Series {
	valid := make([]bool, len(cells))
	for i, c := range cells {
		valid[i] = c != ""
	}

	if ints, ok := parseAll(cells, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }); ok {
		return table.NewInt(name, ints).WithNulls(valid)
	}
	if floats, ok := parseAll(cells, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }); ok {
		return table.NewFloat(name, floats).WithNulls(valid)
	}
	for _, layout := range layouts {
		if times, ok := parseAll(cells, func(s string) (time.Time, error) { return time.Parse(layout, s) }); ok {
			return table.NewTime(name, times).WithNulls(valid)
		}
	}
	return table.NewString(name, cells).WithNulls(valid)
}

// parseAll parses every non-empty cell; ok is false when any cell fails or
// when there are no non-empty cells.
func parseAll[T any](cells []string, parse func(string) (T, error)) ([]T, bool) {
	out := make([]T, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			continue
		}
		v, err := parse(c)
		if err != nil {
			return nil, false
		}
		out[i] = v
		seen = true
	}
	return out, seen
}
