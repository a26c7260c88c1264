package render

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
)

// Common errors returned by renderers.
var (
	// ErrUnknownParser is returned when no backend exists for a parser type.
	ErrUnknownParser = errors.New("unknown document parser type")

	// ErrBackendUnavailable is returned when a parser backend was not configured.
	ErrBackendUnavailable = errors.New("parser backend not configured")

	// ErrEmptyDocument is returned when a backend produced no output.
	ErrEmptyDocument = errors.New("renderer produced an empty document")

	// ErrClosed is returned when using a closed ChromeConverter.
	ErrClosed = errors.New("chrome converter is closed")
)

// Error is a rendering failure with the parser that raised it.
type Error struct {
	Parser directive.ParserType
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("render %s document: %v", e.Parser, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError returns err as an *Error for parser, leaving existing *Error values alone.
func wrapError(parser directive.ParserType, err error) error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{Parser: parser, Err: err}
}
