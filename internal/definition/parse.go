package definition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"golang.org/x/text/encoding/htmlindex"
)

// Parse builds the file definitions listed under file_definitions in raw.
//
// A document without file_definitions is rejected with a MalformedInputError.
// Any defect in an entry stops the load and is returned as a ValidationError
// carrying the entry index; no partial list is ever returned.
func Parse(raw map[string]any) ([]*FileDefinition, error) {
	value, ok := raw[KeyFileDefinitions]
	if !ok {
		return nil, &MalformedInputError{Key: KeyFileDefinitions, Reason: "missing required key"}
	}
	entries, ok := value.([]any)
	if !ok {
		return nil, &MalformedInputError{Key: KeyFileDefinitions, Reason: "must be a list"}
	}

	defs := make([]*FileDefinition, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, &ValidationError{Entry: i, Message: "entry must be an object"}
		}
		def, err := NewFileDefinition(obj)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Entry = i
			}
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Validate runs the presence checks for one entry in their fixed order and
// reports the first missing property.
func Validate(entry map[string]any) error {
	if _, ok := entry[KeyFileMask]; !ok {
		return missing(KeyFileMask, "")
	}
	fileType, ok := entry[KeyFileType]
	if !ok {
		return missing(KeyFileType, "")
	}
	if _, ok := entry[KeyDelimiter]; !ok && fileType == string(Delimited) {
		return missing(KeyDelimiter, KeyDelimiter+" is a required property for delimited files")
	}
	if isEmptyList(entry[KeyFieldDefinitions]) {
		return missing(KeyFieldDefinitions, "")
	}
	if _, ok := entry[KeyRecordElementName]; !ok && fileType == string(XML) {
		return missing(KeyRecordElementName, KeyRecordElementName+" is a required property for xml files")
	}
	if _, ok := entry[KeyExportDefinition]; !ok {
		return missing(KeyExportDefinition, "")
	}
	return nil
}

// NewFileDefinition validates and builds a single entry. Errors it returns
// carry an Entry index of -1.
func NewFileDefinition(entry map[string]any) (*FileDefinition, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}

	d := &FileDefinition{}
	var err error

	if d.fileMask, err = requiredString(entry, KeyFileMask); err != nil {
		return nil, err
	}
	fileType, err := requiredString(entry, KeyFileType)
	if err != nil {
		return nil, err
	}
	d.fileType = FileType(fileType)

	exportObj, ok := entry[KeyExportDefinition].(map[string]any)
	if !ok {
		return nil, invalid(KeyExportDefinition, "must be an object")
	}
	if d.export, err = NewExportDefinition(exportObj); err != nil {
		return nil, at(err, KeyExportDefinition)
	}
	if d.export.Type == ExportQueue && d.export.RoutingKey == "" {
		d.export.RoutingKey = d.fileMask
	}

	if d.hasHeader, err = optionalBool(entry, KeyHasHeader); err != nil {
		return nil, err
	}
	if d.inputDirectory, err = optionalString(entry, KeyInputDirectory, ""); err != nil {
		return nil, err
	}
	if d.completedDirectory, err = optionalString(entry, KeyCompletedDirectory,
		filepath.Join(d.inputDirectory, DefaultCompletedDirName)); err != nil {
		return nil, err
	}
	if d.description, err = optionalString(entry, KeyFileDescription, ""); err != nil {
		return nil, err
	}
	if d.delimiter, err = optionalString(entry, KeyDelimiter, ""); err != nil {
		return nil, err
	}
	if d.fileType == Delimited && d.delimiter == "" {
		return nil, invalid(KeyDelimiter, "must not be empty")
	}
	if d.fileType == XML {
		if d.recordElementName, err = requiredString(entry, KeyRecordElementName); err != nil {
			return nil, err
		}
		if d.recordElementName == "" {
			return nil, invalid(KeyRecordElementName, "must not be empty")
		}
	}

	if d.encoding, err = optionalString(entry, KeyEncoding, DefaultEncoding); err != nil {
		return nil, err
	}
	if _, err := htmlindex.Get(d.encoding); err != nil {
		return nil, invalid(KeyEncoding, "%q is not a supported encoding", d.encoding)
	}

	if d.fields, err = newFieldDefinitions(entry[KeyFieldDefinitions], d.fileType); err != nil {
		return nil, err
	}
	return d, nil
}

func newFieldDefinitions(value any, fileType FileType) ([]FieldDefinition, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, invalid(KeyFieldDefinitions, "must be a list")
	}

	fields := make([]FieldDefinition, 0, len(list))
	seen := make(map[string]int, len(list))
	for i, item := range list {
		path := fmt.Sprintf("%s[%d]", KeyFieldDefinitions, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, at(&ValidationError{Entry: -1, Message: "field definition must be an object"}, path)
		}
		field, err := NewFieldDefinition(obj, fileType)
		if err != nil {
			return nil, at(err, path)
		}
		if first, dup := seen[field.Name]; dup {
			return nil, at(invalid(KeyFieldName, "%q is already declared by %s[%d]",
				field.Name, KeyFieldDefinitions, first), path)
		}
		seen[field.Name] = i
		fields = append(fields, field)
	}
	return fields, nil
}

// NewFieldDefinition builds one field. start_position and field_length are
// only read, and then both required, for fixed-width files.
func NewFieldDefinition(obj map[string]any, fileType FileType) (FieldDefinition, error) {
	if _, ok := obj[KeyFieldName]; !ok {
		return FieldDefinition{}, missing(KeyFieldName, "field_name is required for a valid FieldDefinition")
	}
	if fileType == Fixed {
		_, hasStart := obj[KeyStartPosition]
		_, hasLength := obj[KeyFieldLength]
		if !hasStart || !hasLength {
			property := KeyStartPosition
			if hasStart {
				property = KeyFieldLength
			}
			return FieldDefinition{}, missing(property,
				"start_position and field_length are required for a fixed position file")
		}
	}

	var (
		f   FieldDefinition
		err error
	)
	if f.Name, err = requiredString(obj, KeyFieldName); err != nil {
		return FieldDefinition{}, err
	}
	if f.Name == "" {
		return FieldDefinition{}, invalid(KeyFieldName, "must not be empty")
	}
	if fileType == Fixed {
		if f.StartPosition, err = nonNegativeInt(obj, KeyStartPosition); err != nil {
			return FieldDefinition{}, err
		}
		if f.FieldLength, err = nonNegativeInt(obj, KeyFieldLength); err != nil {
			return FieldDefinition{}, err
		}
	}
	if f.XMLNodeName, err = optionalString(obj, KeyXMLNodeName, ""); err != nil {
		return FieldDefinition{}, err
	}
	return f, nil
}

// NewExportDefinition builds an export definition. Only the companion property
// of the declared export type is required; unknown export types are accepted
// here and rejected when an exporter is created.
func NewExportDefinition(obj map[string]any) (ExportDefinition, error) {
	exportType, ok := obj[KeyExportType]
	if !ok {
		return ExportDefinition{}, missing(KeyExportType, "")
	}

	absent := func(key string) bool {
		_, present := obj[key]
		return !present
	}
	switch {
	case exportType == string(ExportAPI) && absent(KeyAPIURL):
		return ExportDefinition{}, missing(KeyAPIURL,
			fmt.Sprintf("%s is a required property for an %s of %s", KeyAPIURL, KeyExportType, ExportAPI))
	case exportType == string(ExportDatabase) && absent(KeyDBConnectionString):
		return ExportDefinition{}, missing(KeyDBConnectionString,
			fmt.Sprintf("%s is a required property for %s of %s", KeyDBConnectionString, KeyExportType, ExportDatabase))
	case exportType == string(ExportFile) && absent(KeyOutputFilePath):
		return ExportDefinition{}, missing(KeyOutputFilePath,
			fmt.Sprintf("%s is required for %s of %s", KeyOutputFilePath, KeyExportType, ExportFile))
	case exportType == string(ExportQueue) && absent(KeyAMQPURL):
		return ExportDefinition{}, missing(KeyAMQPURL,
			fmt.Sprintf("%s is a required property for %s of %s", KeyAMQPURL, KeyExportType, ExportQueue))
	}

	var (
		e   ExportDefinition
		err error
	)
	typeName, err := requiredString(obj, KeyExportType)
	if err != nil {
		return ExportDefinition{}, err
	}
	e.Type = ExportType(typeName)

	optional := []struct {
		key string
		dst *string
	}{
		{KeyAPIURL, &e.APIURL},
		{KeyDBConnectionString, &e.DBConnectionString},
		{KeyOutputFilePath, &e.OutputFilePath},
		{KeyCollectionName, &e.CollectionName},
		{KeyDatabaseName, &e.DatabaseName},
		{KeyAMQPURL, &e.AMQPURL},
		{KeyExchangeName, &e.ExchangeName},
		{KeyRoutingKey, &e.RoutingKey},
	}
	for _, s := range optional {
		if *s.dst, err = optionalString(obj, s.key, ""); err != nil {
			return ExportDefinition{}, err
		}
	}

	if e.HTTPHeaders, err = stringMap(obj, KeyHTTPHeaders); err != nil {
		return ExportDefinition{}, err
	}
	return e, nil
}

// isEmptyList reports whether a field_definitions value counts as absent:
// missing, null or an empty list.
func isEmptyList(v any) bool {
	if v == nil {
		return true
	}
	list, ok := v.([]any)
	return ok && len(list) == 0
}

func requiredString(obj map[string]any, key string) (string, error) {
	s, ok := obj[key].(string)
	if !ok {
		return "", invalid(key, "must be a string")
	}
	return s, nil
}

func optionalString(obj map[string]any, key, fallback string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(key, "must be a string")
	}
	return s, nil
}

func optionalBool(obj map[string]any, key string) (bool, error) {
	v, ok := obj[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, invalid(key, "must be a boolean")
	}
	return b, nil
}

func nonNegativeInt(obj map[string]any, key string) (int, error) {
	n, ok := toInt(obj[key])
	if !ok {
		return 0, invalid(key, "must be an integer")
	}
	if n < 0 {
		return 0, invalid(key, "must not be negative")
	}
	return n, nil
}

// toInt accepts the integer representations produced by the JSON and YAML
// decoders as well as hand-built maps.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func stringMap(obj map[string]any, key string) (map[string]string, error) {
	result := map[string]string{}
	v, ok := obj[key]
	if !ok {
		return result, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(key, "must be an object")
	}
	for name, value := range m {
		s, ok := value.(string)
		if !ok {
			return nil, invalid(key, "value for %q must be a string", name)
		}
		result[name] = s
	}
	return result, nil
}
