package parser

import (
	"errors"
	"fmt"

	"github.com/cyra/squidnorm/internal/webproxy"
)

var (
	// ErrFormatMismatch means the line does not belong to this parser's vendor
	// or shape. A dispatcher should try the next parser.
	ErrFormatMismatch = errors.New("log format not recognized")

	// ErrParse means the line has this parser's shape but its content is
	// malformed.
	ErrParse = errors.New("malformed log line")

	// ErrUnknownParser is returned when an unsupported parser name is requested.
	ErrUnknownParser = errors.New("unknown parser")
)

// Error is the failure of a single parse attempt. Log is the input exactly as
// it was handed to the parser.
type Error struct {
	Kind   error
	Parser string
	Log    *webproxy.Log
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Parser, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Parser, e.Kind)
}

// Is matches the error kind sentinels.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFormatMismatch reports whether err is a format mismatch.
func IsFormatMismatch(err error) bool {
	return errors.Is(err, ErrFormatMismatch)
}

// IsParseError reports whether err is a structural parse error.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// KindOf returns a short label for the error kind, for logs and metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case IsFormatMismatch(err):
		return "format_mismatch"
	case IsParseError(err):
		return "parse_error"
	default:
		return "other"
	}
}

func mismatch(parser string, log *webproxy.Log, reason error) error {
	return &Error{Kind: ErrFormatMismatch, Parser: parser, Log: log, Err: reason}
}

func malformed(parser string, log *webproxy.Log, reason error) error {
	return &Error{Kind: ErrParse, Parser: parser, Log: log, Err: reason}
}
