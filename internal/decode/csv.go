package decode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// csvReader streams delimited-text rows. The whole file is never held in
// memory; each call to Next reads one record from the underlying reader.
type csvReader struct {
	r      *csv.Reader
	header []string
	index  int
}

func newCSVReader(r io.Reader) (*csvReader, error) {
	cr := csv.NewReader(r)
	// Column-count anomalies are per-row diagnostics, not decode failures.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", ErrCorruptFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	return &csvReader{r: cr, header: header}, nil
}

func (c *csvReader) Header() []string { return c.header }

func (c *csvReader) Next() (*Row, error) {
	record, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// One broken line must not stop the batch.
			c.index++
			return &Row{Index: c.index, Fields: map[string]string{}, Malformed: err.Error()}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	c.index++
	row := &Row{Index: c.index, Fields: make(map[string]string, len(c.header))}
	if len(record) != len(c.header) {
		row.Malformed = fmt.Sprintf("expected %d columns, got %d", len(c.header), len(record))
	}
	for i, name := range c.header {
		if i < len(record) {
			row.Fields[name] = record[i]
		}
	}
	return row, nil
}

func (c *csvReader) Close() error { return nil }
