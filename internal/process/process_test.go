package process

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/export"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// recordingExporter keeps every envelope it is given.
type recordingExporter struct {
	mu      sync.Mutex
	results []record.Result
	fail    error
	closed  bool
}

func (e *recordingExporter) Export(_ context.Context, r record.Result) error {
	if e.fail != nil {
		return e.fail
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, r)
	return nil
}

func (e *recordingExporter) Close() error {
	e.closed = true
	return nil
}

// fakeExporters hands out one recordingExporter per definition, keyed by the
// export's output path, and falls back to the real factory for unknown types.
type fakeExporters struct {
	mu        sync.Mutex
	exporters map[string]*recordingExporter
	created   int
}

func (f *fakeExporters) factory(ctx context.Context, def definition.ExportDefinition) (export.Exporter, error) {
	if def.Type != definition.ExportFile {
		return export.New(ctx, def, export.Options{})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.exporters == nil {
		f.exporters = map[string]*recordingExporter{}
	}
	e, ok := f.exporters[def.OutputFilePath]
	if !ok {
		e = &recordingExporter{}
		f.exporters[def.OutputFilePath] = e
	}
	return e, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeDefinitions(t *testing.T, dir string, entries ...map[string]any) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"file_definitions": entries})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "definitions.json")
	writeFile(t, path, string(data))
	return path
}

func delimitedEntry(inputDir, mask, sink string) map[string]any {
	return map[string]any{
		"file_mask":       mask,
		"file_type":       "DELIMITED",
		"delimiter":       ",",
		"has_header":      true,
		"input_directory": inputDir,
		"field_definitions": []any{
			map[string]any{"field_name": "name"},
			map[string]any{"field_name": "age"},
			map[string]any{"field_name": "dob"},
		},
		"export_definition": map[string]any{"export_type": "FILE", "output_file_path": sink},
	}
}

func TestExecute_ProcessesAndArchives(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "Valid-09092019.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")
	writeFile(t, filepath.Join(in, "Valid-10102019.csv"), "Name,Age,DOB\nAnn,5,02/02/2014\nBo,7,03/03/2012\n")
	writeFile(t, filepath.Join(in, "ignored.txt"), "not matched")
	if err := os.MkdirAll(filepath.Join(in, "Valid-dir.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	fakes := &fakeExporters{}
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "Valid-*.csv", "people")),
		Exporters:       fakes.factory,
	})

	pass, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !pass.OK() || pass.FileCount() != 2 {
		t.Errorf("pass OK=%v files=%d, want OK with 2 files", pass.OK(), pass.FileCount())
	}
	if pass.RunID == "" {
		t.Error("RunID is empty")
	}

	exp := fakes.exporters["people"]
	if len(exp.results) != 2 {
		t.Fatalf("exported %d envelopes, want 2", len(exp.results))
	}
	if exp.results[0].FileName != "Valid-09092019.csv" {
		t.Errorf("first envelope FileName = %q, want Valid-09092019.csv", exp.results[0].FileName)
	}
	if len(exp.results[1].Records) != 2 {
		t.Errorf("second envelope has %d records, want 2", len(exp.results[1].Records))
	}
	if !exp.closed {
		t.Error("exporter was not closed")
	}

	for _, name := range []string{"Valid-09092019.csv", "Valid-10102019.csv"} {
		if _, err := os.Stat(filepath.Join(in, "completed", name)); err != nil {
			t.Errorf("%s not archived: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(in, name)); !os.IsNotExist(err) {
			t.Errorf("%s still in input directory", name)
		}
	}
	if _, err := os.Stat(filepath.Join(in, "ignored.txt")); err != nil {
		t.Errorf("unmatched file was touched: %v", err)
	}

	if p.LastPass() != pass {
		t.Error("LastPass() does not return the finished pass")
	}
	if got := len(pass.LoadedDefinitions()); got != 1 {
		t.Errorf("LoadedDefinitions() = %d, want 1", got)
	}
}

func TestExecute_FailureStopsOnlyThatDefinition(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad")
	good := filepath.Join(dir, "good")
	writeFile(t, filepath.Join(bad, "a.csv"), "Name,Age,DOB\nJason,99\n")
	writeFile(t, filepath.Join(bad, "b.csv"), "Name,Age,DOB\nAnn,5,02/02/2014\n")
	writeFile(t, filepath.Join(good, "c.csv"), "Name,Age,DOB\nBo,7,03/03/2012\n")

	fakes := &fakeExporters{}
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir,
			delimitedEntry(bad, "*.csv", "bad-sink"),
			delimitedEntry(good, "*.csv", "good-sink"),
		),
		Exporters: fakes.factory,
	})

	pass, err := p.Execute(context.Background())
	if !errors.Is(err, record.ErrFormatMismatch) {
		t.Fatalf("Execute() error = %v, want ErrFormatMismatch", err)
	}
	var defErr *DefinitionError
	if !errors.As(err, &defErr) || defErr.File != "a.csv" {
		t.Errorf("error = %v, want DefinitionError for a.csv", err)
	}

	if pass.OK() {
		t.Error("pass.OK() = true, want false")
	}
	if got := pass.Definitions[0].Error; got == nil || got.Code != "PRS002" {
		t.Errorf("first definition error = %+v, want PRS002", got)
	}
	if pass.Definitions[1].Error != nil || len(pass.Definitions[1].Files) != 1 {
		t.Errorf("second definition = %+v, want one file and no error", pass.Definitions[1])
	}

	// the failing file and everything after it stay in place
	for _, name := range []string{"a.csv", "b.csv"} {
		if _, err := os.Stat(filepath.Join(bad, name)); err != nil {
			t.Errorf("%s should remain in the input directory: %v", name, err)
		}
	}
	if len(fakes.exporters["bad-sink"].results) != 0 {
		t.Error("nothing should be exported for the failing definition")
	}
	if _, err := os.Stat(filepath.Join(good, "completed", "c.csv")); err != nil {
		t.Errorf("c.csv not archived: %v", err)
	}
}

func TestExecute_ExportFailureKeepsInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")

	failing := &recordingExporter{fail: &export.TransportError{Target: "https://example.test", StatusCode: 503, Err: errors.New("unavailable")}}
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "*.csv", "sink")),
		Exporters: func(context.Context, definition.ExportDefinition) (export.Exporter, error) {
			return failing, nil
		},
	})

	pass, err := p.Execute(context.Background())
	if !errors.Is(err, export.ErrTransport) {
		t.Fatalf("Execute() error = %v, want ErrTransport", err)
	}
	if got := pass.Definitions[0].Error.Code; got != "EXP001" {
		t.Errorf("code = %s, want EXP001", got)
	}
	if _, err := os.Stat(filepath.Join(in, "a.csv")); err != nil {
		t.Errorf("input should not be archived after a failed export: %v", err)
	}
}

func TestExecute_UnsupportedExportType(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")

	entry := delimitedEntry(in, "*.csv", "sink")
	entry["export_definition"] = map[string]any{"export_type": "FTP"}

	fakes := &fakeExporters{}
	p := New(Options{DefinitionsFile: writeDefinitions(t, dir, entry), Exporters: fakes.factory})

	pass, err := p.Execute(context.Background())
	if !errors.Is(err, export.ErrUnsupportedExport) {
		t.Fatalf("Execute() error = %v, want ErrUnsupportedExport", err)
	}
	if got := pass.Definitions[0].Error.Code; got != "EXP003" {
		t.Errorf("code = %s, want EXP003", got)
	}
}

func TestExecute_NoInputFilesSkipsExporter(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}

	fakes := &fakeExporters{}
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "*.csv", "sink")),
		Exporters:       fakes.factory,
	})

	pass, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if fakes.created != 0 {
		t.Errorf("exporter created %d times, want 0", fakes.created)
	}
	if !pass.OK() || pass.FileCount() != 0 {
		t.Errorf("pass = %+v, want OK with no files", pass)
	}
}

func TestExecute_LoadFailure(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{"missing key", `{"definitions": []}`, "DEF001"},
		{"invalid entry", `{"file_definitions": [{"file_type": "DELIMITED"}]}`, "DEF002"},
		{"missing file", "", "FS001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "definitions.json")
			if tt.content != "" {
				writeFile(t, path, tt.content)
			}

			p := New(Options{DefinitionsFile: path, Exporters: (&fakeExporters{}).factory})
			pass, err := p.Execute(context.Background())
			if err == nil {
				t.Fatal("Execute() expected error")
			}
			if pass.Error == nil || pass.Error.Code != tt.wantCode {
				t.Errorf("pass.Error = %+v, want code %s", pass.Error, tt.wantCode)
			}
			if p.LastPass() != pass {
				t.Error("failed pass was not recorded")
			}
		})
	}
}

func TestExecute_ReloadsDefinitionsEachPass(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")
	writeFile(t, filepath.Join(in, "b.dat"), "Name|Age|DOB\nAnn|5|02/02/2014\n")

	fakes := &fakeExporters{}
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "*.csv", "sink")),
		Exporters:       fakes.factory,
	})
	if _, err := p.Execute(context.Background()); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	entry := delimitedEntry(in, "*.dat", "sink")
	entry["delimiter"] = "|"
	writeDefinitions(t, dir, entry)

	pass, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if pass.FileCount() != 1 || pass.Definitions[0].FileMask != "*.dat" {
		t.Errorf("second pass = %+v, want the edited definition", pass.Definitions)
	}
	if got := len(fakes.exporters["sink"].results); got != 2 {
		t.Errorf("exported %d envelopes over two passes, want 2", got)
	}
}

func TestExecute_CustomArchiver(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")

	var archived []string
	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "*.csv", "sink")),
		Exporters:       (&fakeExporters{}).factory,
		Archiver: func(_ *definition.FileDefinition, path string) error {
			archived = append(archived, filepath.Base(path))
			return nil
		},
	})
	if _, err := p.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(archived) != 1 || archived[0] != "a.csv" {
		t.Errorf("archived = %v, want [a.csv]", archived)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.csv"), "Name,Age,DOB\nJason,99,01/01/1970\n")

	p := New(Options{
		DefinitionsFile: writeDefinitions(t, dir, delimitedEntry(in, "*.csv", "sink")),
		Exporters:       (&fakeExporters{}).factory,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(in, "a.csv")); err != nil {
		t.Errorf("input touched after cancellation: %v", err)
	}
}
