package stylesheet

import "fmt"

// Op identifies the stage at which a stylesheet failed.
type Op string

const (
	// OpLoad means the template could not be read.
	OpLoad Op = "load"

	// OpSyntax means the template could not be parsed.
	OpSyntax Op = "syntax"

	// OpRuntime means the template failed while executing.
	OpRuntime Op = "runtime"
)

// Error is returned for any stylesheet failure.
type Error struct {
	Path string
	Op   Op
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("stylesheet %s error (%s): %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
