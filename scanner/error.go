package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrStackUnderflow is returned by Pop when only the bottom start
	// condition remains.
	ErrStackUnderflow = errors.New("start condition stack underflow")

	// ErrUnknownCondition is returned when a condition name does not
	// exist in the program.
	ErrUnknownCondition = errors.New("unknown start condition")
)

// NoMatchError reports input that no rule of the active start condition
// matches. The cursor is left at Pos so the caller can recover, usually
// by skipping a byte.
type NoMatchError struct {
	Pos  int
	Cond string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no rule matches at offset %d in condition %s", e.Pos, e.Cond)
}
