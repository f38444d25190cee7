package record

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

type xmlParser struct {
	element string
	records etree.Path
	fields  []xmlField
}

type xmlField struct {
	name string
	path etree.Path
}

// newXML compiles the element paths once. Child elements are looked up by the
// field name; xml_node_name is not consulted.
func newXML(def *definition.FileDefinition) (*xmlParser, error) {
	element := def.RecordElementName()
	records, err := etree.CompilePath("./" + element)
	if err != nil {
		return nil, fmt.Errorf("record_element_name %q: %w", element, err)
	}

	p := &xmlParser{element: element, records: records}
	for _, f := range def.Fields() {
		path, err := etree.CompilePath("./" + f.Name)
		if err != nil {
			return nil, fmt.Errorf("field_name %q: %w", f.Name, err)
		}
		p.fields = append(p.fields, xmlField{name: f.Name, path: path})
	}
	return p, nil
}

func (p *xmlParser) Process(fileName string, lines []string) (Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(strings.Join(lines, "")); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	// A document has exactly one root element. etree keeps any further
	// top-level elements as siblings of the first.
	switch n := len(doc.ChildElements()); {
	case n == 0:
		return Result{}, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	case n > 1:
		return Result{}, fmt.Errorf("%w: %d top-level elements, want 1", ErrMalformedDocument, n)
	}
	root := doc.Root()

	elements := root.FindElementsPath(p.records)
	records := make([]Record, 0, len(elements))
	for i, el := range elements {
		rec := make(Record, len(p.fields))
		for j, f := range p.fields {
			child := el.FindElementPath(f.path)
			if child == nil {
				return Result{}, &AttributeNotFoundError{Record: i, Element: p.element, Field: f.name}
			}
			rec[j] = Field{Name: f.name, Value: child.Text()}
		}
		records = append(records, rec)
	}
	return Result{FileName: fileName, Records: records}, nil
}
