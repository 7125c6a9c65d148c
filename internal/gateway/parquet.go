package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

const parquetBatchSize = 256

func isParquet(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".parquet")
}

// parquetColumn says how values of one leaf column are rendered.
type parquetColumn struct {
	unit time.Duration // timestamp unit, 0 when not a timestamp
	date bool
}

// parquetRows streams the rows of a parquet file, one row group at a time,
// rendering every value the way the CSV export of the same table spells it.
type parquetRows struct {
	name    string
	columns []parquetColumn
	groups  []parquet.RowGroup
	current parquet.Rows
	buf     []parquet.Row
	n, pos  int
}

func newParquetRows(name string, r io.Reader) (*parquetRows, []string, error) {
	ra, size, err := readerAt(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	f, err := parquet.OpenFile(ra, size)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet file %s: %w", name, err)
	}

	schema := f.Schema()
	paths := schema.Columns()
	header := make([]string, len(paths))
	columns := make([]parquetColumn, len(paths))
	for i, path := range paths {
		header[i] = strings.Join(path, ".")
		leaf, ok := schema.Lookup(path...)
		if !ok {
			continue
		}
		lt := leaf.Node.Type().LogicalType()
		switch {
		case lt == nil:
		case lt.Timestamp != nil:
			switch {
			case lt.Timestamp.Unit.Millis != nil:
				columns[i].unit = time.Millisecond
			case lt.Timestamp.Unit.Micros != nil:
				columns[i].unit = time.Microsecond
			default:
				columns[i].unit = time.Nanosecond
			}
		case lt.Date != nil:
			columns[i].date = true
		}
	}

	return &parquetRows{
		name:    name,
		columns: columns,
		groups:  f.RowGroups(),
		buf:     make([]parquet.Row, parquetBatchSize),
	}, header, nil
}

// readerAt gives random access to r, which parquet needs to read the footer
// first. Local files are used in place; anything else is buffered.
func readerAt(r io.Reader) (io.ReaderAt, int64, error) {
	if f, ok := r.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, 0, err
		}
		return f, info.Size(), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func (p *parquetRows) next() ([]string, error) {
	for {
		if p.pos < p.n {
			row := p.buf[p.pos]
			p.pos++
			return p.render(row), nil
		}
		if p.current == nil {
			if len(p.groups) == 0 {
				return nil, io.EOF
			}
			p.current = p.groups[0].Rows()
			p.groups = p.groups[1:]
		}
		n, err := p.current.ReadRows(p.buf)
		p.n, p.pos = n, 0
		if errors.Is(err, io.EOF) {
			p.current.Close()
			p.current = nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.name, err)
		}
	}
}

func (p *parquetRows) render(row parquet.Row) []string {
	out := make([]string, len(p.columns))
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(out) {
			continue
		}
		out[c] = p.columns[c].format(v)
	}
	return out
}

func (p *parquetRows) close() error {
	if p.current == nil {
		return nil
	}
	err := p.current.Close()
	p.current = nil
	return err
}

func (c parquetColumn) format(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		if c.date {
			return time.Unix(int64(v.Int32())*24*60*60, 0).UTC().Format(time.DateOnly)
		}
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		if c.unit > 0 {
			return epoch(v.Int64(), c.unit).Format(time.RFC3339Nano)
		}
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}

func epoch(n int64, unit time.Duration) time.Time {
	switch unit {
	case time.Millisecond:
		return time.UnixMilli(n).UTC()
	case time.Microsecond:
		return time.UnixMicro(n).UTC()
	}
	return time.Unix(0, n).UTC()
}
