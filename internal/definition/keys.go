package definition

// Keys recognised in a definitions document. All keys are flat string literals.
const (
	KeyFileDefinitions    = "file_definitions"
	KeyFileMask           = "file_mask"
	KeyFileType           = "file_type"
	KeyFileDescription    = "file_description"
	KeyDelimiter          = "delimiter"
	KeyHasHeader          = "has_header"
	KeyEncoding           = "encoding"
	KeyInputDirectory     = "input_directory"
	KeyCompletedDirectory = "completed_directory"
	KeyRecordElementName  = "record_element_name"
	KeyFieldDefinitions   = "field_definitions"
	KeyExportDefinition   = "export_definition"

	KeyFieldName     = "field_name"
	KeyStartPosition = "start_position"
	KeyFieldLength   = "field_length"
	KeyXMLNodeName   = "xml_node_name"

	KeyExportType         = "export_type"
	KeyAPIURL             = "api_url"
	KeyDBConnectionString = "db_connection_string"
	KeyOutputFilePath     = "output_file_path"
	KeyHTTPHeaders        = "http_headers"
	KeyCollectionName     = "collection_name"
	KeyDatabaseName       = "database_name"
	KeyAMQPURL            = "amqp_url"
	KeyExchangeName       = "exchange_name"
	KeyRoutingKey         = "routing_key"
)

// DefaultCompletedDirName is joined onto input_directory when
// completed_directory is omitted.
const DefaultCompletedDirName = "completed"

// DefaultEncoding is used when a file definition omits encoding.
const DefaultEncoding = "utf-8"
