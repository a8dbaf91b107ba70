// Package normalize maps decoded rows onto the canonical contact shape and
// enforces required-field presence.
package normalize

import (
	"fmt"
	"io"

	"github.com/leadsplit/backend/internal/decode"
	"github.com/leadsplit/backend/internal/types"
)

// Required source columns. Matching is exact and case-sensitive; there is
// no synonym table.
const (
	FieldFirstName = "FirstName"
	FieldPhone     = "Phone"
	FieldNotes     = "Notes"
)

// Policy controls what an invalid row does to the batch.
type Policy string

const (
	// PolicyRejectBatch aborts the whole ingestion on the first invalid row.
	PolicyRejectBatch Policy = "reject-batch"
	// PolicySkipRow drops invalid rows, reports them as diagnostics and
	// lets the valid rows proceed.
	PolicySkipRow Policy = "skip-row"
)

// ParsePolicy validates a configured policy string.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyRejectBatch, PolicySkipRow:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("invalid ingest policy %q", s)
	}
}

// MissingFieldError reports a row that lacks a required value.
type MissingFieldError struct {
	Row   int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %d: missing required field %q", e.Row, e.Field)
}

// RowDiagnostic describes a row dropped during a skip-row ingestion.
type RowDiagnostic struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Normalize maps one decoded row onto a ContactRecord. Absent or
// empty-string required values fail with *MissingFieldError. No phone
// format validation and no trimming happen here.
func Normalize(row *decode.Row) (types.ContactRecord, error) {
	first := row.Fields[FieldFirstName]
	if first == "" {
		return types.ContactRecord{}, &MissingFieldError{Row: row.Index, Field: FieldFirstName}
	}
	phone := row.Fields[FieldPhone]
	if phone == "" {
		return types.ContactRecord{}, &MissingFieldError{Row: row.Index, Field: FieldPhone}
	}
	return types.ContactRecord{
		FirstName: first,
		Phone:     phone,
		Notes:     row.Fields[FieldNotes],
	}, nil
}

// Run drains the reader and normalizes every row under the given policy.
// Under PolicyRejectBatch the first invalid row aborts with its error and
// nothing is returned; under PolicySkipRow invalid rows become diagnostics
// and the valid rows are returned in input order.
func Run(rr decode.RowReader, policy Policy) ([]types.ContactRecord, []RowDiagnostic, error) {
	var records []types.ContactRecord
	var diags []RowDiagnostic

	for {
		row, err := rr.Next()
		if err == io.EOF {
			return records, diags, nil
		}
		if err != nil {
			return nil, nil, err
		}

		record, nerr := Normalize(row)
		if nerr != nil {
			if policy == PolicyRejectBatch {
				return nil, nil, nerr
			}
			reason := nerr.Error()
			if row.Malformed != "" {
				reason = fmt.Sprintf("%s (%s)", reason, row.Malformed)
			}
			diags = append(diags, RowDiagnostic{Row: row.Index, Reason: reason})
			continue
		}
		records = append(records, record)
	}
}
