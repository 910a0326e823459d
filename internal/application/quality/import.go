package quality

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/qcms/backend/internal/domain/shared"
	csvimport "github.com/qcms/backend/internal/infrastructure/import"
)

const maxReportedImportErrors = 100

// runImport parses r, validates every row and inserts the valid ones with
// insert in a single call. build turns a rule-checked row into a model;
// violations beyond the column rules are reported through v with ok=false.
// A dry run stops after validation.
func runImport[T any](
	ctx context.Context,
	r io.Reader,
	rules []csvimport.FieldRule,
	maxRows int,
	dryRun bool,
	build func(row *csvimport.Row, v *csvimport.Validator) (entity T, ok bool),
	insert func(ctx context.Context, rows []T) error,
) (*csvimport.Result, error) {
	parser, err := csvimport.NewParser(r, csvimport.WithMaxRows(maxRows))
	if err != nil {
		return nil, importError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, importError(err)
	}
	if missing := parser.MissingHeaders(csvimport.RequiredColumns(rules)); len(missing) > 0 {
		fields := make([]shared.FieldError, len(missing))
		for i, col := range missing {
			fields[i] = shared.FieldError{Field: col, Message: "missing column"}
		}
		return nil, shared.NewValidationError("CSV file is missing required columns: "+strings.Join(missing, ", "), fields...)
	}

	rows, err := parser.ReadAll()
	if err != nil {
		return nil, importError(err)
	}

	v := csvimport.NewValidator(rules, maxReportedImportErrors)
	result := &csvimport.Result{TotalRows: len(rows), DryRun: dryRun}
	valid := make([]T, 0, len(rows))
	for _, row := range rows {
		if !v.ValidateRow(row) {
			result.ErrorRows++
			continue
		}
		entity, ok := build(row, v)
		if !ok {
			result.ErrorRows++
			continue
		}
		valid = append(valid, entity)
	}
	result.ValidRows = len(valid)
	result.SetErrors(v.Errors())

	if dryRun || len(valid) == 0 {
		return result, nil
	}
	if err := insert(ctx, valid); err != nil {
		return nil, err
	}
	result.Imported = len(valid)
	return result, nil
}

// importError maps parser failures to validation errors; anything else is
// passed through as an internal failure
func importError(err error) error {
	for _, known := range []error{
		csvimport.ErrEmptyFile,
		csvimport.ErrInvalidEncoding,
		csvimport.ErrMissingHeader,
		csvimport.ErrNoDataRows,
		csvimport.ErrTooManyRows,
	} {
		if errors.Is(err, known) {
			return shared.NewValidationError(err.Error())
		}
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return shared.NewValidationError("Malformed CSV file: " + err.Error())
	}
	return err
}
