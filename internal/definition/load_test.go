package definition

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const jsonDefinitions = `{
  "file_definitions": [
    {
      "file_mask": "People-*.txt",
      "file_type": "FIXED",
      "file_description": "nightly people extract",
      "has_header": true,
      "input_directory": "/srv/in",
      "completed_directory": "/srv/done",
      "encoding": "windows-1252",
      "field_definitions": [
        {"field_name": "name", "start_position": 0, "field_length": 13},
        {"field_name": "age", "start_position": 13, "field_length": 9},
        {"field_name": "dob", "start_position": 22, "field_length": 10}
      ],
      "export_definition": {
        "export_type": "DATABASE",
        "db_connection_string": "mongodb://localhost:27017",
        "database_name": "gnarly_test",
        "collection_name": "People"
      }
    }
  ]
}`

const yamlDefinitions = `
file_definitions:
  - file_mask: "Orders-*.xml"
    file_type: XML
    record_element_name: order
    field_definitions:
      - field_name: id
      - field_name: total
        xml_node_name: amount
    export_definition:
      export_type: API
      api_url: https://example.test/orders
      http_headers:
        api-key: abc123
`

func TestParseJSON(t *testing.T) {
	defs, err := ParseJSON([]byte(jsonDefinitions))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	d := defs[0]

	if d.FileType() != Fixed || !d.HasHeader() || d.Encoding() != "windows-1252" {
		t.Errorf("unexpected definition: type=%q header=%v encoding=%q", d.FileType(), d.HasHeader(), d.Encoding())
	}
	if d.Description() != "nightly people extract" {
		t.Errorf("Description() = %q", d.Description())
	}
	if d.CompletedDirectory() != "/srv/done" {
		t.Errorf("CompletedDirectory() = %q, want /srv/done", d.CompletedDirectory())
	}

	want := []FieldDefinition{
		{Name: "name", StartPosition: 0, FieldLength: 13},
		{Name: "age", StartPosition: 13, FieldLength: 9},
		{Name: "dob", StartPosition: 22, FieldLength: 10},
	}
	if !reflect.DeepEqual(d.Fields(), want) {
		t.Errorf("Fields() = %+v, want %+v", d.Fields(), want)
	}

	e := d.Export()
	if e.Type != ExportDatabase || e.DatabaseName != "gnarly_test" || e.CollectionName != "People" {
		t.Errorf("Export() = %+v", e)
	}
}

func TestParseYAML(t *testing.T) {
	defs, err := ParseYAML([]byte(yamlDefinitions))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	d := defs[0]
	if d.FileType() != XML || d.RecordElementName() != "order" {
		t.Errorf("type=%q record=%q", d.FileType(), d.RecordElementName())
	}
	if got := d.Export().HTTPHeaders["api-key"]; got != "abc123" {
		t.Errorf("HTTPHeaders[api-key] = %q, want abc123", got)
	}
	if got := d.Fields()[1].XMLNodeName; got != "amount" {
		t.Errorf("XMLNodeName = %q, want amount", got)
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"file_definitions": [`},
		{"array document", `[]`},
		{"missing key", `{"definitions": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("ParseJSON() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestParseJSON_FractionalPosition(t *testing.T) {
	data := `{"file_definitions": [{
		"file_mask": "*.txt", "file_type": "FIXED",
		"field_definitions": [{"field_name": "a", "start_position": 1.5, "field_length": 2}],
		"export_definition": {"export_type": "FILE", "output_file_path": "out.jsonl"}
	}]}`

	var ve *ValidationError
	_, err := ParseJSON([]byte(data))
	if !errors.As(err, &ve) || ve.Property != KeyStartPosition {
		t.Fatalf("ParseJSON() error = %v, want start_position validation error", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "file_definitions.json")
	if err := os.WriteFile(jsonPath, []byte(jsonDefinitions), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "file_definitions.yml")
	if err := os.WriteFile(yamlPath, []byte(yamlDefinitions), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		defs, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s) error = %v", path, err)
		}
		if len(defs) != 1 {
			t.Errorf("LoadFile(%s) returned %d definitions, want 1", path, len(defs))
		}
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	for _, doc := range []string{jsonDefinitions} {
		defs, err := ParseJSON([]byte(doc))
		if err != nil {
			t.Fatalf("ParseJSON() error = %v", err)
		}

		out, err := json.Marshal(map[string]any{KeyFileDefinitions: defs})
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		again, err := ParseJSON(out)
		if err != nil {
			t.Fatalf("ParseJSON(round trip) error = %v\n%s", err, out)
		}
		if !reflect.DeepEqual(defs, again) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", again[0], defs[0])
		}
	}

	defs, err := ParseYAML([]byte(yamlDefinitions))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	out, err := json.Marshal(map[string]any{KeyFileDefinitions: defs})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := ParseJSON(out)
	if err != nil {
		t.Fatalf("ParseJSON(round trip) error = %v", err)
	}
	if !reflect.DeepEqual(defs, again) {
		t.Errorf("YAML round trip mismatch:\n got %+v\nwant %+v", again[0], defs[0])
	}
}
