package gateway

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// rowSource yields the rows of one table as strings, in header order.
type rowSource interface {
	next() ([]string, error)
	close() error
}

// tableReader reads a header-addressed table row by row. Tables named
// *.parquet are decoded as parquet, anything else as CSV.
type tableReader struct {
	name    string
	rows    rowSource
	columns map[string]int
}

func newTableReader(name string, r io.Reader, required ...string) (*tableReader, error) {
	var (
		rows   rowSource
		header []string
		err    error
	)
	if isParquet(name) {
		rows, header, err = newParquetRows(name, r)
	} else {
		rows, header, err = newCSVRows(name, r)
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	var missing []string
	for _, c := range required {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		rows.close()
		return nil, fmt.Errorf("%w: %s lacks columns %s", domain.ErrSchema, name, strings.Join(missing, ", "))
	}
	return &tableReader{name: name, rows: rows, columns: columns}, nil
}

func (t *tableReader) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// next returns the next row. A row that cannot be decoded is reported with
// errRowMalformed so callers can skip it and keep reading.
func (t *tableReader) next() ([]string, error) {
	return t.rows.next()
}

func (t *tableReader) close() error {
	return t.rows.close()
}

type csvRows struct {
	name string
	r    *csv.Reader
}

func newCSVRows(name string, r io.Reader) (*csvRows, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s is empty", domain.ErrSchema, name)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	return &csvRows{name: name, r: cr}, header, nil
}

func (c *csvRows) next() ([]string, error) {
	row, err := c.r.Read()
	if err == nil {
		return row, nil
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return nil, fmt.Errorf("%w: %s: %v", errRowMalformed, c.name, perr)
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
}

func (c *csvRows) close() error { return nil }

var errRowMalformed = fmt.Errorf("%w: invalid row", domain.ErrMalformedRecord)

func (t *tableReader) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseID(column, s string) (int64, error) {
	// pandas writes integer columns containing nulls as floats, e.g. "123.0".
	s = strings.TrimSuffix(s, ".0")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, column, s)
	}
	return v, nil
}

func parseCount(column, s string) (int, error) {
	v, err := parseID(column, s)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses an optional timestamp; an empty value yields nil.
func parseTime(column, s string) (*time.Time, error) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") || strings.EqualFold(s, "null") {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, column, s)
}

func parseBool(column, s string) (bool, error) {
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, column, s)
	}
	return v, nil
}
