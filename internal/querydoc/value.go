package querydoc

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/ir"
)

// decodeValue decodes a typed value: a single-key mapping whose key is the
// data type, e.g. {int: 5}, {timestamp: 2024-01-02T03:04:05Z},
// {null: string}, {enum: Color.Red} or
// {collection: {elem: int, items: [{int: 1}, {int: 2}]}}.
func decodeValue(n *yaml.Node, path string) (ir.Value, error) {
	key, body, err := single(n, path)
	if err != nil {
		return nil, err
	}
	path += "." + key

	if key == "null" {
		typ, err := ir.ParseDataType(body.Value)
		if err != nil {
			return nil, nodeError(body, path, "%v", err)
		}
		return ir.Null{Type: typ}, nil
	}
	if key == "collection" {
		return decodeCollection(body, path)
	}

	if body.Kind != yaml.ScalarNode {
		return nil, nodeError(body, path, "expected a scalar")
	}
	s := body.Value

	switch ir.DataType(key) {
	case ir.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, nodeError(body, path, "invalid bool %q", s)
		}
		return ir.Bool(b), nil
	case ir.TypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, nodeError(body, path, "invalid int %q", s)
		}
		return ir.Int(i), nil
	case ir.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, nodeError(body, path, "invalid float %q", s)
		}
		return ir.Float(f), nil
	case ir.TypeString:
		return ir.String(s), nil
	case ir.TypeEnum:
		typeName, name, ok := strings.Cut(s, ".")
		if !ok || typeName == "" || name == "" {
			return nil, nodeError(body, path, "enum must be Type.Member, got %q", s)
		}
		return ir.Enum{TypeName: typeName, Name: name}, nil
	case ir.TypeGUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, nodeError(body, path, "invalid guid %q", s)
		}
		return ir.GUID(id), nil
	case ir.TypeTimeSpan:
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, nodeError(body, path, "invalid timespan %q", s)
		}
		return ir.TimeSpan(d), nil
	case ir.TypeTimestamp:
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, nodeError(body, path, "invalid timestamp %q (want RFC 3339)", s)
		}
		return ir.Timestamp(ts), nil
	case ir.TypeBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, nodeError(body, path, "invalid base64 bytes")
		}
		return ir.Bytes(b), nil
	default:
		return nil, nodeError(n, path, "unknown value type %q", key)
	}
}

func decodeCollection(n *yaml.Node, path string) (ir.Value, error) {
	f, err := fields(n, path, "elem", "items")
	if err != nil {
		return nil, err
	}
	elemNode, err := f.required("elem")
	if err != nil {
		return nil, err
	}
	elem, err := ir.ParseDataType(elemNode.Value)
	if err != nil {
		return nil, nodeError(elemNode, path+".elem", "%v", err)
	}
	itemNodes, err := f.list("items")
	if err != nil {
		return nil, err
	}
	items := make([]ir.Value, len(itemNodes))
	for i, item := range itemNodes {
		v, err := decodeValue(item, indexPath(path+".items", i))
		if err != nil {
			return nil, err
		}
		if v.DataType() != elem {
			return nil, nodeError(item, indexPath(path+".items", i),
				"item is %s, collection holds %s", v.DataType(), elem)
		}
		items[i] = v
	}
	return ir.Collection{Elem: elem, Items: items}, nil
}

// single returns the only key and value of a one-entry mapping.
func single(n *yaml.Node, path string) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, nodeError(n, path, "expected a mapping with exactly one key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
