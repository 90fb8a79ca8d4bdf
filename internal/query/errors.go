package query

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownInstruction = errors.New("do not understand query")
	ErrNoFilePath         = errors.New("no file path supplied")
	ErrUnknownProperty    = errors.New("unknown property")
)

// ParseError is the fatal error of a query. Its message always ends with the
// offending line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v\nProblem line: \"%s\"", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EvaluationError is raised when a custom function throws while searching.
// It never invalidates the query.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("Error: Search failed.\nThe error message was:\n    \"%v\"", e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// instructionError is a parse failure with a message written for the user
func instructionError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
