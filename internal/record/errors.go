package record

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

var (
	ErrUnsupportedVariant = errors.New("unsupported file type")
	ErrFormatMismatch     = errors.New("file records do not match file definition")
	ErrOutOfRange         = errors.New("field extends past the end of line")
	ErrAttributeNotFound  = errors.New("record element is missing a field")
	ErrMalformedDocument  = errors.New("malformed xml document")
)

// UnsupportedVariantError is returned by New for a file type it has no parser for.
type UnsupportedVariantError struct {
	FileType definition.FileType
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("file_definition is configured for unsupported file_type: %s", e.FileType)
}

func (e *UnsupportedVariantError) Is(target error) bool { return target == ErrUnsupportedVariant }

// FormatMismatchError reports a delimited line whose token count differs from
// the number of declared fields. Line is 1-based and counts the header.
type FormatMismatchError struct {
	Line   int
	Tokens int
	Fields int
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("line %d: %s: got %d values, want %d", e.Line, ErrFormatMismatch, e.Tokens, e.Fields)
}

func (e *FormatMismatchError) Is(target error) bool { return target == ErrFormatMismatch }

// OutOfRangeError reports a fixed-width field whose end offset lies beyond the
// trimmed line.
type OutOfRangeError struct {
	Line   int
	Field  string
	End    int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("line %d: field %s extends past the end of line (end %d, line length %d)",
		e.Line, e.Field, e.End, e.Length)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// AttributeNotFoundError reports an XML record element without the child
// element for a declared field. Record is the 0-based element index.
type AttributeNotFoundError struct {
	Record  int
	Element string
	Field   string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("%s %d: no child element %q", e.Element, e.Record, e.Field)
}

func (e *AttributeNotFoundError) Is(target error) bool { return target == ErrAttributeNotFound }
