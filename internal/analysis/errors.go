package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch indicates two datasets cannot be compared row by row.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrDegenerateInput indicates a statistic is undefined for the input,
	// e.g. correlation over a constant sequence.
	ErrDegenerateInput = errors.New("degenerate input")
)

// LengthMismatchError reports the two row counts involved.
type LengthMismatchError struct {
	A, B int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch: %d vs %d rows", e.A, e.B)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }
