package querydoc

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
)

// Document is a parsed query document. Query and Constants stay as YAML
// nodes until Decode, which needs the entity model.
type Document struct {
	// Name identifies the query.
	Name string `yaml:"name"`

	// Description explains what the query does.
	Description string `yaml:"description,omitempty"`

	// Projector is the projector reference the plan is keyed by.
	Projector string `yaml:"projector,omitempty"`

	// Dialect is the preferred dialect name; callers may override it.
	Dialect string `yaml:"dialect,omitempty"`

	Query     yaml.Node   `yaml:"query"`
	Constants []yaml.Node `yaml:"constants,omitempty"`
}

// Query is a decoded document, ready for compilation.
type Query struct {
	Name      string
	Projector string
	Dialect   string
	Expr      ir.Expr
	Constants []ir.Value
}

// Parse reads a document, rejecting unknown top-level fields.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse query document: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("invalid query document: name is required")
	}
	if doc.Query.Kind == 0 {
		return nil, fmt.Errorf("invalid query document %s: query is required", doc.Name)
	}
	return &doc, nil
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode builds the IR tree and constants. m resolves entity-valued nodes
// and may be nil when there are none.
func (d *Document) Decode(m *model.Model) (*Query, error) {
	dec := &decoder{model: m}
	e, err := dec.expr(&d.Query, "query")
	if err != nil {
		return nil, err
	}
	constants := make([]ir.Value, len(d.Constants))
	for i := range d.Constants {
		if constants[i], err = decodeValue(&d.Constants[i], indexPath("constants", i)); err != nil {
			return nil, err
		}
	}
	return &Query{
		Name:      d.Name,
		Projector: d.Projector,
		Dialect:   d.Dialect,
		Expr:      e,
		Constants: constants,
	}, nil
}

// Load parses and decodes the document at path.
func Load(path string, m *model.Model) (*Query, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	q, err := doc.Decode(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// DecodeExpr decodes a single expression node, for callers embedding
// expressions in their own YAML structures.
func DecodeExpr(n *yaml.Node, m *model.Model) (ir.Expr, error) {
	return (&decoder{model: m}).expr(n, "expr")
}

// DecodeValue decodes a single typed value node.
func DecodeValue(n *yaml.Node) (ir.Value, error) {
	return decodeValue(n, "value")
}
