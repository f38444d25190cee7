package process

import (
	"time"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

// Pass summarises one Execute call.
type Pass struct {
	RunID           string              `json:"run_id"`
	DefinitionsFile string              `json:"definitions_file"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	Definitions     []DefinitionOutcome `json:"definitions"`

	// Error is set when the definitions file could not be loaded.
	Error *ErrorInfo `json:"error,omitempty"`

	definitions []*definition.FileDefinition
}

// DefinitionOutcome is the result of running one definition.
type DefinitionOutcome struct {
	FileMask   string                `json:"file_mask"`
	FileType   definition.FileType   `json:"file_type"`
	ExportType definition.ExportType `json:"export_type"`
	Files      []FileOutcome         `json:"files"`
	Error      *ErrorInfo            `json:"error,omitempty"`
}

// FileOutcome describes an input file that was exported and archived.
type FileOutcome struct {
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Bytes      int64  `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
}

// OK reports whether the pass loaded its definitions and every definition
// ran to completion.
func (p *Pass) OK() bool {
	if p.Error != nil {
		return false
	}
	for _, d := range p.Definitions {
		if d.Error != nil {
			return false
		}
	}
	return true
}

// FileCount returns the number of files processed successfully.
func (p *Pass) FileCount() int {
	n := 0
	for _, d := range p.Definitions {
		n += len(d.Files)
	}
	return n
}

// LoadedDefinitions returns the definitions the pass ran.
func (p *Pass) LoadedDefinitions() []*definition.FileDefinition {
	return p.definitions
}
