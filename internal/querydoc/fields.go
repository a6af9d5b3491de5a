package querydoc

import (
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// fieldSet is the decoded entries of a mapping node, keyed by name, with
// the path of the mapping for error messages.
type fieldSet struct {
	node   *yaml.Node
	path   string
	values map[string]*yaml.Node
}

// fields reads a mapping node, rejecting keys outside allowed and
// duplicate keys.
func fields(n *yaml.Node, path string, allowed ...string) (*fieldSet, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, path, "expected a mapping")
	}
	f := &fieldSet{node: n, path: path, values: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return nil, nodeError(key, path, "unknown field %q", key.Value)
		}
		if _, dup := f.values[key.Value]; dup {
			return nil, nodeError(key, path, "duplicate field %q", key.Value)
		}
		f.values[key.Value] = n.Content[i+1]
	}
	return f, nil
}

func (f *fieldSet) get(name string) (*yaml.Node, bool) {
	n, ok := f.values[name]
	return n, ok
}

func (f *fieldSet) required(name string) (*yaml.Node, error) {
	n, ok := f.values[name]
	if !ok {
		return nil, nodeError(f.node, f.path, "%s is required", name)
	}
	return n, nil
}

func (f *fieldSet) str(name string) (string, error) {
	n, ok := f.values[name]
	if !ok {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", nodeError(n, f.path+"."+name, "expected a string")
	}
	return n.Value, nil
}

func (f *fieldSet) requiredString(name string) (string, error) {
	n, err := f.required(name)
	if err != nil {
		return "", err
	}
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return "", nodeError(n, f.path+"."+name, "expected a non-empty string")
	}
	return n.Value, nil
}

func (f *fieldSet) flag(name string) (bool, error) {
	n, ok := f.values[name]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(n.Value)
	if err != nil || n.Kind != yaml.ScalarNode {
		return false, nodeError(n, f.path+"."+name, "expected true or false")
	}
	return b, nil
}

func (f *fieldSet) integer(name string) (int, bool, error) {
	n, ok := f.values[name]
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(n.Value)
	if err != nil || n.Kind != yaml.ScalarNode {
		return 0, false, nodeError(n, f.path+"."+name, "expected an integer")
	}
	return i, true, nil
}

// list returns the items of a sequence field; a missing field is empty.
func (f *fieldSet) list(name string) ([]*yaml.Node, error) {
	n, ok := f.values[name]
	if !ok {
		return nil, nil
	}
	return sequence(n, f.path+"."+name)
}

func sequence(n *yaml.Node, path string) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, path, "expected a list")
	}
	return n.Content, nil
}
