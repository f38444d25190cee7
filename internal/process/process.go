// Package process runs file definitions: it discovers input files, parses
// them, exports the records and archives the inputs.
//
// A pass loads the definitions document, then runs each definition in order.
// A failing definition stops at the file that failed; later definitions still
// run. Files already exported and archived stay archived.
package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/export"
	"github.com/JonMunkholm/fileripper/internal/logging"
	"github.com/JonMunkholm/fileripper/internal/metrics"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// Options configures a Processor.
type Options struct {
	// DefinitionsFile is read at the start of every pass.
	DefinitionsFile string

	// Exporters creates the exporter for a definition. Required.
	Exporters export.Factory

	// Archiver defaults to MoveToCompleted.
	Archiver Archiver
}

// Processor executes passes and remembers the outcome of the last one.
type Processor struct {
	definitionsFile string
	newExporter     export.Factory
	archive         Archiver
	now             func() time.Time

	mu   sync.RWMutex
	last *Pass
}

// New creates a Processor.
func New(opts Options) *Processor {
	archive := opts.Archiver
	if archive == nil {
		archive = MoveToCompleted
	}
	return &Processor{
		definitionsFile: opts.DefinitionsFile,
		newExporter:     opts.Exporters,
		archive:         archive,
		now:             time.Now,
	}
}

// DefinitionError records which definition, and which file of it, stopped.
type DefinitionError struct {
	FileMask string
	File     string
	Err      error
}

func (e *DefinitionError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("definition %s: %s: %v", e.FileMask, e.File, e.Err)
	}
	return fmt.Sprintf("definition %s: %v", e.FileMask, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// Execute runs one pass over every definition in the definitions file. It
// returns the pass summary and the joined definition failures. A definitions
// file that cannot be loaded fails the whole pass.
func (p *Processor) Execute(ctx context.Context) (*Pass, error) {
	pass := &Pass{
		RunID:           uuid.NewString(),
		DefinitionsFile: p.definitionsFile,
		StartedAt:       p.now(),
	}
	ctx = logging.WithRunID(ctx, pass.RunID)
	logger := logging.FromContext(ctx)
	logger.Info("pass started", "definitions_file", p.definitionsFile)

	defs, err := definition.LoadFile(p.definitionsFile)
	if err != nil {
		info := Classify(err)
		pass.Error = &info
		p.finish(pass)
		logger.Error("failed to load definitions", "error", err, "code", info.Code)
		return pass, err
	}
	pass.definitions = defs

	var errs []error
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		outcome, err := p.ProcessDefinition(ctx, def)
		if err != nil {
			info := Classify(err)
			outcome.Error = &info
			metrics.DefinitionFailures.WithLabelValues(def.FileMask(), info.Code).Inc()
			logging.WithFields(ctx, "file_mask", def.FileMask()).Error("definition failed",
				"error", err,
				"code", info.Code,
			)
			errs = append(errs, err)
		}
		pass.Definitions = append(pass.Definitions, outcome)
	}

	p.finish(pass)
	logger.Info("pass completed",
		"definitions", len(defs),
		"files", pass.FileCount(),
		"failed", len(errs),
		"duration_ms", pass.FinishedAt.Sub(pass.StartedAt).Milliseconds(),
	)
	return pass, errors.Join(errs...)
}

// ProcessDefinition runs a single definition. The exporter is only created
// when there is at least one input file.
func (p *Processor) ProcessDefinition(ctx context.Context, def *definition.FileDefinition) (DefinitionOutcome, error) {
	outcome := DefinitionOutcome{
		FileMask:   def.FileMask(),
		FileType:   def.FileType(),
		ExportType: def.Export().Type,
	}
	fail := func(file string, err error) (DefinitionOutcome, error) {
		return outcome, &DefinitionError{FileMask: def.FileMask(), File: file, Err: err}
	}

	parser, err := record.New(def)
	if err != nil {
		return fail("", err)
	}

	files, err := Discover(def)
	if err != nil {
		return fail("", err)
	}
	if len(files) == 0 {
		logging.WithFields(ctx, "file_mask", def.FileMask()).Debug("no input files")
		return outcome, nil
	}

	exp, err := p.newExporter(ctx, def.Export())
	if err != nil {
		return fail("", err)
	}
	defer exp.Close()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return fail(filepath.Base(path), err)
		}
		file, err := p.processFile(ctx, def, parser, exp, path)
		if err != nil {
			metrics.FilesProcessed.WithLabelValues(def.FileMask(), "failed").Inc()
			return fail(filepath.Base(path), err)
		}
		metrics.FilesProcessed.WithLabelValues(def.FileMask(), "ok").Inc()
		outcome.Files = append(outcome.Files, file)
	}
	return outcome, nil
}

func (p *Processor) processFile(ctx context.Context, def *definition.FileDefinition, parser record.Parser,
	exp export.Exporter, path string) (FileOutcome, error) {
	start := p.now()
	name := filepath.Base(path)
	logger := logging.WithFields(ctx, "file_mask", def.FileMask(), "file", name)
	logger.Info("processing file")

	lines, size, err := record.ReadFile(path, def.Encoding())
	if err != nil {
		return FileOutcome{}, err
	}
	metrics.BytesRead.WithLabelValues(def.FileMask()).Add(float64(size))

	result, err := parser.Process(name, lines)
	if err != nil {
		return FileOutcome{}, err
	}
	metrics.RecordsExtracted.WithLabelValues(def.FileMask()).Add(float64(len(result.Records)))

	exportStart := p.now()
	if err := exp.Export(ctx, result); err != nil {
		return FileOutcome{}, err
	}
	metrics.ExportDuration.WithLabelValues(string(def.Export().Type)).Observe(p.now().Sub(exportStart).Seconds())

	if err := p.archive(def, path); err != nil {
		return FileOutcome{}, err
	}

	file := FileOutcome{
		Name:       name,
		Records:    len(result.Records),
		Bytes:      size,
		DurationMS: p.now().Sub(start).Milliseconds(),
	}
	logger.Info("file processed", "records", file.Records, "duration_ms", file.DurationMS)
	return file, nil
}

func (p *Processor) finish(pass *Pass) {
	pass.FinishedAt = p.now()

	status := "ok"
	if !pass.OK() {
		status = "failed"
	}
	metrics.PassesTotal.WithLabelValues(status).Inc()
	metrics.PassDuration.Observe(pass.FinishedAt.Sub(pass.StartedAt).Seconds())
	metrics.LastPassTimestamp.Set(float64(pass.FinishedAt.Unix()))

	p.mu.Lock()
	p.last = pass
	p.mu.Unlock()
}

// LastPass returns the most recent pass, or nil before the first one ends.
// The returned value must not be modified.
func (p *Processor) LastPass() *Pass {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
