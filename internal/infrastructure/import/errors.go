package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeRequired    = "REQUIRED"
	ErrCodeInvalidType = "INVALID_TYPE"
	ErrCodeInvalidEnum = "INVALID_VALUE"
	ErrCodeTooLong     = "TOO_LONG"
	ErrCodeDuplicate   = "DUPLICATE_IN_FILE"
	ErrCodeRule        = "RULE_VIOLATION"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
	ErrTooManyRows     = errors.New("CSV file has too many rows")
)

// RowError is a problem with one cell or row of the upload
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps at most a fixed number of row errors but counts all
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection keeping up to maxErrors entries
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors seen, including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether any error was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// Result summarises an import run
type Result struct {
	TotalRows   int        `json:"total_rows"`
	ValidRows   int        `json:"valid_rows"`
	ErrorRows   int        `json:"error_rows"`
	Imported    int        `json:"imported"`
	DryRun      bool       `json:"dry_run"`
	Errors      []RowError `json:"errors"`
	TotalErrors int        `json:"total_errors"`
	IsTruncated bool       `json:"is_truncated,omitempty"`
}

// SetErrors copies the collection into the result
func (r *Result) SetErrors(ec *ErrorCollection) {
	r.Errors = ec.Errors()
	r.TotalErrors = ec.TotalCount()
	r.IsTruncated = ec.IsTruncated()
}
