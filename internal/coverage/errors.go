package coverage

import (
	"errors"
	"fmt"
)

// ErrLoad matches every *LoadError via errors.Is.
var ErrLoad = errors.New("load failed")

var (
	// ErrSheetNotFound is wrapped when the named sheet is absent from the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrMissingColumn is wrapped when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidNumber is wrapped when Reach or AVE holds non-numeric text.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrBadDate is returned by DailyTrendline when a Date cell is not in the export format.
	ErrBadDate = errors.New("invalid date")
)

// LoadError reports a workbook that could not be read into a table.
type LoadError struct {
	Source string
	Sheet  string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to read workbook: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports ErrLoad as a match so callers need not type-assert.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

func loadErr(source, sheet string, err error) error {
	return &LoadError{Source: source, Sheet: sheet, Err: err}
}
