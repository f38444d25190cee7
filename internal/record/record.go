// Package record extracts records from the lines of an input file according to
// a file definition.
//
// Each file type has its own extraction rules:
//
//   - DELIMITED: every line is split on the literal delimiter; token i is the
//     value of field i. No quoting or escaping is recognised.
//   - FIXED: every field is cut from its [start, start+length) slot.
//   - XML: the lines are joined into one document and each direct child of the
//     root named after the record element becomes a record.
//
// Any structural mismatch aborts the whole file. Parsers never skip bad lines
// and never return partial results.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

// Field is one extracted value.
type Field struct {
	Name  string
	Value string
}

// Record is one parsed row or element. Fields keep the declaration order of
// the file definition.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object with fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result pairs a source file name with the records parsed from it.
type Result struct {
	FileName string   `json:"file_name"`
	Records  []Record `json:"records"`
}

// Parser turns the lines of one file into a Result.
type Parser interface {
	Process(fileName string, lines []string) (Result, error)
}

// New returns the parser for the definition's file type. The definition is
// only read.
func New(def *definition.FileDefinition) (Parser, error) {
	switch def.FileType() {
	case definition.Delimited:
		return newDelimited(def), nil
	case definition.Fixed:
		return newFixed(def), nil
	case definition.XML:
		p, err := newXML(def)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, &UnsupportedVariantError{FileType: def.FileType()}
	}
}

// bodyLines drops the header line when the definition declares one. A file
// without the declared header line is a format mismatch. The caller's slice
// is left untouched.
func bodyLines(lines []string, hasHeader bool) (body []string, offset int, err error) {
	if !hasHeader {
		return lines, 0, nil
	}
	if len(lines) == 0 {
		return nil, 0, fmt.Errorf("%w: header line missing", ErrFormatMismatch)
	}
	return lines[1:], 1, nil
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
