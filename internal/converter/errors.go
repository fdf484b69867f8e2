package converter

import (
	"errors"
	"fmt"

	"github.com/nconklindev/tabula/internal/types"
)

// ErrUnknownFormat indicates the input file extension is not recognized.
var ErrUnknownFormat = errors.New("couldn't determine file format")

// ErrUnsupportedTarget indicates the requested output format is not supported.
var ErrUnsupportedTarget = errors.New("unsupported output format")

// Reasons reported by ParseError, one per source format.
const (
	ReasonMalformedCSV   = "malformed delimited text"
	ReasonUnrecoverable  = "unrecoverable object notation"
	ReasonNotTabular     = "object notation is not tabular"
	ReasonUnreadableXLSX = "unreadable spreadsheet container"
)

// ParseError represents a structural decode failure of a source file.
type ParseError struct {
	Format types.Format
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.Format, e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format types.Format, reason string, err error) *ParseError {
	return &ParseError{
		Format: format,
		Reason: reason,
		Err:    err,
	}
}

// TargetError reports an output format name that could not be used.
type TargetError struct {
	Name string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %q (must be csv, json, or xlsx)", ErrUnsupportedTarget, e.Name)
}

func (e *TargetError) Unwrap() error {
	return ErrUnsupportedTarget
}

// Warning is a non-fatal integrity signal attached to a successful read.
type Warning string

// WarningTrailingData is reported when malformed object notation was
// salvaged by recovery.
const WarningTrailingData Warning = "the file was not well-formed; trailing data was removed"
