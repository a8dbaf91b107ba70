package decode

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxReader streams rows of the first sheet of a workbook through
// excelize's row iterator.
type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	index  int
	closed bool
}

func newXLSXReader(r io.Reader) (*xlsxReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrCorruptFile)
	}

	// Only the first sheet is considered.
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("%w: missing header row", ErrCorruptFile)
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	return &xlsxReader{file: f, rows: rows, header: header}, nil
}

func (x *xlsxReader) Header() []string { return x.header }

func (x *xlsxReader) Next() (*Row, error) {
	if x.closed {
		return nil, io.EOF
	}
	if !x.rows.Next() {
		err := x.rows.Error()
		x.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return nil, io.EOF
	}

	x.index++
	cols, err := x.rows.Columns()
	if err != nil {
		return &Row{Index: x.index, Fields: map[string]string{}, Malformed: err.Error()}, nil
	}

	// Sheet rows are ragged by nature: trailing empty cells are trimmed by
	// the reader, so short rows are not structural anomalies. Cells beyond
	// the header width are ignored.
	row := &Row{Index: x.index, Fields: make(map[string]string, len(x.header))}
	for i, name := range x.header {
		if i < len(cols) {
			row.Fields[name] = cols[i]
		}
	}
	return row, nil
}

func (x *xlsxReader) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	x.rows.Close()
	return x.file.Close()
}
