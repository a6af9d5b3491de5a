package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Canonical returns the canonical form of e: nested map[string]any and
// []any values built from strings, int64 and bool only. The form is the
// input to fingerprinting and the CLI's canonical dump.
//
// Every node object carries a "kind" key. Absent optional children are
// omitted rather than encoded as null. Placeholders contribute their index
// and declared type only.
func Canonical(e Expr) any {
	if e == nil {
		return nil
	}
	obj := map[string]any{"kind": e.Kind().String()}
	put := func(key string, child Expr) {
		if child != nil {
			obj[key] = Canonical(child)
		}
	}

	switch n := e.(type) {
	case *Select:
		obj["alias"] = n.Alias
		columns := make([]any, len(n.Columns))
		for i, c := range n.Columns {
			columns[i] = map[string]any{"name": c.Name, "expr": Canonical(c.Expr)}
		}
		obj["columns"] = columns
		put("from", n.From)
		put("where", n.Where)
		orderBy := make([]any, len(n.OrderBy))
		for i, o := range n.OrderBy {
			orderBy[i] = map[string]any{"expr": Canonical(o.Expr), "desc": o.Direction == Descending}
		}
		obj["order_by"] = orderBy
		obj["group_by"] = canonicalList(n.GroupBy)
		put("skip", n.Skip)
		put("take", n.Take)
		obj["distinct"] = n.Distinct
		obj["for_update"] = n.ForUpdate
	case *Join:
		obj["join"] = n.JoinKind.String()
		put("left", n.Left)
		put("right", n.Right)
		put("on", n.Condition)
	case *Table:
		obj["name"] = n.Name
		obj["alias"] = n.Alias
	case *Column:
		obj["alias"] = n.SelectAlias
		obj["name"] = n.Name
	case *FunctionCall:
		obj["function"] = string(n.Function)
		obj["args"] = canonicalList(n.Args)
	case *Aggregate:
		obj["aggregate"] = n.AggregateKind.String()
		put("arg", n.Arg)
		obj["distinct"] = n.Distinct
	case *Constant:
		obj["value"] = canonicalValue(n.Value)
	case *ConstantPlaceholder:
		obj["index"] = int64(n.Index)
		obj["type"] = string(n.Type)
	case *ObjectReference:
		obj["entity"] = n.Entity
		obj["bindings"] = canonicalBindings(n.Bindings)
	case *MemberInit:
		obj["entity"] = n.Entity
		obj["bindings"] = canonicalBindings(n.Bindings)
	case *Tuple:
		obj["items"] = canonicalList(n.Items)
	case *Binary:
		obj["op"] = n.Op.String()
		put("left", n.Left)
		put("right", n.Right)
	case *Unary:
		obj["op"] = n.Op.String()
		put("operand", n.Operand)
	case *Conditional:
		put("test", n.Test)
		put("if_true", n.IfTrue)
		put("if_false", n.IfFalse)
	case *Delete:
		obj["table"] = n.Table
		obj["alias"] = n.Alias
		put("where", n.Where)
	case *CreateTable:
		obj["name"] = n.Name
		obj["if_not_exists"] = n.IfNotExists
		columns := make([]any, len(n.Columns))
		for i, c := range n.Columns {
			columns[i] = Canonical(c)
		}
		obj["columns"] = columns
		obj["constraints"] = canonicalConstraints(n.Constraints)
	case *ColumnDefinition:
		obj["name"] = n.Name
		obj["type"] = string(n.Type)
		obj["constraints"] = canonicalConstraints(n.Constraints)
	case *SimpleConstraint:
		obj["constraint"] = n.Constraint.String()
		cols := make([]any, len(n.Columns))
		for i, c := range n.Columns {
			cols[i] = c
		}
		obj["columns"] = cols
		put("value", n.Value)
	}
	return obj
}

func canonicalList(items []Expr) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = Canonical(item)
	}
	return out
}

func canonicalBindings(bindings []MemberBinding) []any {
	out := make([]any, len(bindings))
	for i, b := range bindings {
		out[i] = map[string]any{
			"member":      b.Member,
			"primary_key": b.PrimaryKey,
			"value":       Canonical(b.Value),
		}
	}
	return out
}

func canonicalConstraints(items []*SimpleConstraint) []any {
	out := make([]any, len(items))
	for i, c := range items {
		out[i] = Canonical(c)
	}
	return out
}

// canonicalValue encodes a constant. Floats and timestamps are carried as
// strings so the canonical form stays integer-only.
func canonicalValue(v Value) any {
	obj := map[string]any{"type": string(v.DataType())}
	switch val := v.(type) {
	case Null:
		obj["null"] = true
	case Bool:
		obj["v"] = bool(val)
	case Int:
		obj["v"] = int64(val)
	case Float:
		obj["v"] = strconv.FormatFloat(float64(val), 'g', -1, 64)
	case String:
		obj["v"] = string(val)
	case Enum:
		obj["enum"] = val.TypeName
		obj["v"] = val.Name
	case GUID:
		obj["v"] = uuid.UUID(val).String()
	case TimeSpan:
		obj["v"] = int64(val)
	case Timestamp:
		obj["v"] = FormatTimestamp(time.Time(val))
	case Bytes:
		obj["v"] = fmt.Sprintf("%x", []byte(val))
	case Collection:
		obj["elem"] = string(val.Elem)
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			items[i] = canonicalValue(item)
		}
		obj["v"] = items
	}
	return obj
}

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return marshalCanonicalString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// marshalCanonicalString writes a canonical JSON string with NFC
// normalization. Only control characters, backslash and quote are escaped;
// U+2028 and U+2029 are written literally.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// run of backslashes is literal text and stays.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			run := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				run++
			}
			if run%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required by
// RFC 8785. Go's default string comparison uses UTF-8 which orders
// supplementary characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
