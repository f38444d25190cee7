package record

import (
	"github.com/JonMunkholm/fileripper/internal/definition"
)

type fixedParser struct {
	hasHeader bool
	fields    []definition.FieldDefinition
}

func newFixed(def *definition.FileDefinition) *fixedParser {
	return &fixedParser{
		hasHeader: def.HasHeader(),
		fields:    def.Fields(),
	}
}

func (p *fixedParser) Process(fileName string, lines []string) (Result, error) {
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

// parseLine cuts every field from its slot. Offsets count characters, not
// bytes. A slot must end within the line once trailing whitespace is removed.
func (p *fixedParser) parseLine(line string) (Record, *OutOfRangeError) {
	raw := []rune(line)
	length := len([]rune(trimRight(line)))

	rec := make(Record, len(p.fields))
	for i, f := range p.fields {
		end := f.End()
		if end > length {
			return nil, &OutOfRangeError{Field: f.Name, End: end, Length: length}
		}
		rec[i] = Field{Name: f.Name, Value: trimRight(string(raw[f.StartPosition:end]))}
	}
	return rec, nil
}
