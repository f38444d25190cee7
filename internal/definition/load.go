package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a definitions document from path and parses it. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) ([]*FileDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON definitions document and parses it.
func ParseJSON(data []byte) ([]*FileDefinition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedInputError{Reason: "invalid JSON", Err: err}
	}
	return parseDocument(doc)
}

// ParseYAML decodes a YAML definitions document and parses it.
func ParseYAML(data []byte) ([]*FileDefinition, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedInputError{Reason: "invalid YAML", Err: err}
	}
	return parseDocument(doc)
}

func parseDocument(doc any) ([]*FileDefinition, error) {
	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, &MalformedInputError{Reason: "document must be an object"}
	}
	return Parse(raw)
}
