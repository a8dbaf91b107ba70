// Package decode turns uploaded tabular files into an ordered stream of
// header-keyed rows. It does structural extraction only; semantic
// validation belongs to the normalize package.
package decode

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies the declared kind of an uploaded file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat means the declared format is not recognized.
	// It is returned before any row is read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrCorruptFile means no tabular structure could be extracted at all.
	ErrCorruptFile = errors.New("corrupt file")
)

// Row is one decoded data row. Index is 1-based within the data rows
// (the header row is not counted). Malformed carries a structural anomaly
// such as a wrong column count; a malformed row is surfaced to the caller
// instead of aborting the batch.
type Row struct {
	Index     int
	Fields    map[string]string
	Malformed string
}

// RowReader streams decoded rows in file order. Next returns io.EOF when
// the input is exhausted. Callers must Close the reader when done.
type RowReader interface {
	Header() []string
	Next() (*Row, error)
	Close() error
}

// Open returns a streaming reader over the input for the declared format.
// Unknown formats fail with ErrUnsupportedFormat; input whose structure
// cannot be parsed fails with ErrCorruptFile.
func Open(r io.Reader, format Format) (RowReader, error) {
	switch format {
	case FormatCSV:
		return newCSVReader(r)
	case FormatXLSX:
		return newXLSXReader(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromFilename maps an uploaded file's extension to a Format.
// Legacy .xls uploads are routed to the spreadsheet reader; payloads it
// cannot open fail later as ErrCorruptFile.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}
