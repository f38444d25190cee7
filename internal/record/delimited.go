package record

import (
	"strings"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

type delimitedParser struct {
	delimiter string
	hasHeader bool
	names     []string
}

func newDelimited(def *definition.FileDefinition) *delimitedParser {
	fields := def.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return &delimitedParser{
		delimiter: def.Delimiter(),
		hasHeader: def.HasHeader(),
		names:     names,
	}
}

func (p *delimitedParser) Process(fileName string, lines []string) (Result, error) {
	body, offset, err := bodyLines(lines, p.hasHeader)
	if err != nil {
		return Result{}, err
	}

	records := make([]Record, 0, len(body))
	for i, line := range body {
		rec, err := p.parseLine(line)
		if err != nil {
			err.Line = i + offset + 1
			return Result{}, err
		}
		records = append(records, rec)
	}
	return Result{FileName: fileName, Records: records}, nil
}

// parseLine splits on the raw delimiter. Trailing whitespace, including the
// line terminator, is dropped from every token; leading whitespace is kept.
func (p *delimitedParser) parseLine(line string) (Record, *FormatMismatchError) {
	tokens := strings.Split(line, p.delimiter)
	if len(tokens) != len(p.names) {
		return nil, &FormatMismatchError{Tokens: len(tokens), Fields: len(p.names)}
	}

	rec := make(Record, len(tokens))
	for i, tok := range tokens {
		rec[i] = Field{Name: p.names[i], Value: trimRight(tok)}
	}
	return rec, nil
}
