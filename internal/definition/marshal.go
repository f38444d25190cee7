package definition

import "encoding/json"

// MarshalJSON renders the definition in the shape of a definitions entry, so
// the output can be fed back into Parse.
func (d *FileDefinition) MarshalJSON() ([]byte, error) {
	entry := map[string]any{
		KeyFileMask:           d.fileMask,
		KeyFileType:           string(d.fileType),
		KeyHasHeader:          d.hasHeader,
		KeyInputDirectory:     d.inputDirectory,
		KeyCompletedDirectory: d.completedDirectory,
		KeyEncoding:           d.encoding,
		KeyFieldDefinitions:   fieldEntries(d.fields, d.fileType),
		KeyExportDefinition:   exportEntry(d.export),
	}
	if d.description != "" {
		entry[KeyFileDescription] = d.description
	}
	if d.fileType == Delimited || d.delimiter != "" {
		entry[KeyDelimiter] = d.delimiter
	}
	if d.fileType == XML {
		entry[KeyRecordElementName] = d.recordElementName
	}
	return json.Marshal(entry)
}

func fieldEntries(fields []FieldDefinition, fileType FileType) []map[string]any {
	out := make([]map[string]any, len(fields))
	for i, f := range fields {
		m := map[string]any{KeyFieldName: f.Name}
		if fileType == Fixed {
			m[KeyStartPosition] = f.StartPosition
			m[KeyFieldLength] = f.FieldLength
		}
		if f.XMLNodeName != "" {
			m[KeyXMLNodeName] = f.XMLNodeName
		}
		out[i] = m
	}
	return out
}

func exportEntry(e ExportDefinition) map[string]any {
	m := map[string]any{KeyExportType: string(e.Type)}
	optional := map[string]string{
		KeyAPIURL:             e.APIURL,
		KeyDBConnectionString: e.DBConnectionString,
		KeyOutputFilePath:     e.OutputFilePath,
		KeyCollectionName:     e.CollectionName,
		KeyDatabaseName:       e.DatabaseName,
		KeyAMQPURL:            e.AMQPURL,
		KeyExchangeName:       e.ExchangeName,
		KeyRoutingKey:         e.RoutingKey,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	switch e.Type {
	case ExportAPI:
		m[KeyAPIURL] = e.APIURL
	case ExportDatabase:
		m[KeyDBConnectionString] = e.DBConnectionString
	case ExportFile:
		m[KeyOutputFilePath] = e.OutputFilePath
	case ExportQueue:
		m[KeyAMQPURL] = e.AMQPURL
	}
	if len(e.HTTPHeaders) > 0 {
		m[KeyHTTPHeaders] = e.HTTPHeaders
	}
	return m
}
