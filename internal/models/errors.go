package models

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is wrapped by every ColumnError
var ErrMissingColumn = errors.New("required column missing")

// ColumnError reports a required column that a table does not carry
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("required column missing: %s", e.Column)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}
