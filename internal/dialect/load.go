package dialect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Resolver looks up a dialect by name for "extends". Lookup is the default.
type Resolver func(name string) (*Dialect, error)

// Load decodes a YAML dialect. When the document names a base via
// "extends", the base is resolved first and the document's fields override
// it; type_names entries are merged key by key. Plain scalars YAML would
// read as null, such as NULL, keep their literal text.
func Load(r io.Reader, resolve Resolver) (*Dialect, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dialect: %w", err)
	}
	if resolve == nil {
		resolve = Lookup
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse dialect: %w", err)
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("parse dialect: empty document")
	}
	literalNulls(&root)

	var head struct {
		Extends string `yaml:"extends"`
	}
	if err := root.Decode(&head); err != nil {
		return nil, fmt.Errorf("parse dialect: %w", err)
	}

	d := &Dialect{ParameterStyle: ParamNamed, LimitStyle: LimitComma}
	if head.Extends != "" {
		base, err := resolve(head.Extends)
		if err != nil {
			return nil, fmt.Errorf("extends %q: %w", head.Extends, err)
		}
		d = base.Clone()
		d.Name = ""
	}

	// Node.Decode cannot reject unknown fields; re-encode and decode strictly.
	normalized, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("parse dialect: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(normalized))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("parse dialect: %w", err)
	}
	d.Extends = head.Extends

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// literalNulls retags plain null scalars spelled out in the document as
// strings. Empty values and "~" are left as null.
func literalNulls(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" && n.Value != "" && n.Value != "~" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		literalNulls(c)
	}
}

// LoadFile loads a YAML dialect file.
func LoadFile(path string) (*Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dialect: %w", err)
	}
	defer f.Close()

	d, err := Load(f, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
