package definition

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput marks a definitions document that cannot be used at all,
	// such as one without a file_definitions key.
	ErrMalformedInput = errors.New("malformed definitions input")

	// ErrValidation marks a single definition entry that is missing or has an
	// invalid property.
	ErrValidation = errors.New("invalid file definition")
)

// MalformedInputError reports a defect in the document itself.
type MalformedInputError struct {
	Key    string // Top-level key involved, if any
	Reason string
	Err    error // Underlying decode error, if any
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed definitions")
	if e.Key != "" {
		b.WriteString(": ")
		b.WriteString(e.Key)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ValidationError reports the first defect found in one entry of file_definitions.
//
// Entry is the zero-based index of the entry, or -1 when a single entry was
// validated on its own. Path locates a nested object inside the entry
// ("export_definition", "field_definitions[2]") and is empty for top-level
// properties of the entry.
type ValidationError struct {
	Entry    int
	Path     string
	Property string
	Message  string
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.Entry >= 0 {
		parts = append(parts, fmt.Sprintf("%s[%d]", KeyFileDefinitions, e.Entry))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func missing(property, message string) *ValidationError {
	if message == "" {
		message = property + " is a required property"
	}
	return &ValidationError{Entry: -1, Property: property, Message: message}
}

func invalid(property, format string, args ...any) *ValidationError {
	return &ValidationError{
		Entry:    -1,
		Property: property,
		Message:  property + " " + fmt.Sprintf(format, args...),
	}
}

// at places err inside the nested object path. Only validation errors carry a
// location; anything else is returned unchanged.
func at(err error, path string) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	if ve.Path == "" {
		ve.Path = path
	} else {
		ve.Path = path + "." + ve.Path
	}
	return ve
}
