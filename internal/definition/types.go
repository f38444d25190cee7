// Package definition turns a declarative definitions document into validated,
// immutable file definitions.
//
// A definitions document has a single required key, file_definitions, holding an
// ordered list of entries. Each entry describes a file mask, a layout (delimited,
// fixed-width or XML), the fields to extract and where the resulting records go.
//
// Construction is fail-fast: the first defect anywhere in the list aborts the whole
// load, so callers never see a partial list. Presence checks run in a fixed order
// and the first missing property is reported, which keeps error messages stable.
package definition

import (
	"maps"
	"slices"
)

// FileType selects the record extraction behaviour for a file definition.
type FileType string

const (
	Delimited FileType = "DELIMITED"
	Fixed     FileType = "FIXED"
	XML       FileType = "XML"
)

// ExportType selects the destination of parsed records.
type ExportType string

const (
	ExportAPI      ExportType = "API"
	ExportDatabase ExportType = "DATABASE"
	ExportFile     ExportType = "FILE"
	ExportQueue    ExportType = "QUEUE"
)

// FieldDefinition describes one column or attribute of a record.
//
// StartPosition and FieldLength are only meaningful for fixed-width files and are
// zero otherwise. XMLNodeName is stored when present but record lookup in XML
// documents is always done by Name.
type FieldDefinition struct {
	Name          string
	StartPosition int
	FieldLength   int
	XMLNodeName   string
}

// End returns the exclusive end offset of a fixed-width field.
func (f FieldDefinition) End() int {
	return f.StartPosition + f.FieldLength
}

// ExportDefinition describes where processed records are sent.
type ExportDefinition struct {
	Type               ExportType
	APIURL             string
	DBConnectionString string
	OutputFilePath     string
	HTTPHeaders        map[string]string
	CollectionName     string
	DatabaseName       string

	// Queue exports
	AMQPURL      string
	ExchangeName string
	RoutingKey   string
}

// FileDefinition is one ingestion rule. It is built once by Parse and never
// modified afterwards; accessors hand out copies of the mutable parts.
type FileDefinition struct {
	fileMask           string
	fileType           FileType
	description        string
	delimiter          string
	hasHeader          bool
	encoding           string
	inputDirectory     string
	completedDirectory string
	recordElementName  string
	fields             []FieldDefinition
	export             ExportDefinition
}

func (d *FileDefinition) FileMask() string { return d.fileMask }
func (d *FileDefinition) FileType() FileType { return d.fileType }
func (d *FileDefinition) Description() string { return d.description }
func (d *FileDefinition) Delimiter() string { return d.delimiter }
func (d *FileDefinition) HasHeader() bool { return d.hasHeader }
func (d *FileDefinition) Encoding() string { return d.encoding }
func (d *FileDefinition) InputDirectory() string { return d.inputDirectory }
func (d *FileDefinition) CompletedDirectory() string { return d.completedDirectory }
func (d *FileDefinition) RecordElementName() string { return d.recordElementName }

// Fields returns the field definitions in declaration order.
func (d *FileDefinition) Fields() []FieldDefinition {
	return slices.Clone(d.fields)
}

// FieldCount returns the number of declared fields without copying them.
func (d *FileDefinition) FieldCount() int {
	return len(d.fields)
}

// Export returns the export definition. The header map is a copy.
func (d *FileDefinition) Export() ExportDefinition {
	e := d.export
	e.HTTPHeaders = maps.Clone(d.export.HTTPHeaders)
	if e.HTTPHeaders == nil {
		e.HTTPHeaders = map[string]string{}
	}
	return e
}
