package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataType is the declared type of a constant, placeholder or column.
// The string form is the name used in model and query files.
type DataType string

const (
	TypeUnknown    DataType = ""
	TypeBool       DataType = "bool"
	TypeInt        DataType = "int"
	TypeFloat      DataType = "float"
	TypeString     DataType = "string"
	TypeEnum       DataType = "enum"
	TypeGUID       DataType = "guid"
	TypeTimeSpan   DataType = "timespan"
	TypeTimestamp  DataType = "timestamp"
	TypeBytes      DataType = "bytes"
	TypeCollection DataType = "collection"
)

// ParseDataType returns the DataType named by s.
func ParseDataType(s string) (DataType, error) {
	switch t := DataType(strings.ToLower(s)); t {
	case TypeBool, TypeInt, TypeFloat, TypeString, TypeEnum, TypeGUID,
		TypeTimeSpan, TypeTimestamp, TypeBytes, TypeCollection:
		return t, nil
	default:
		return TypeUnknown, fmt.Errorf("unknown data type %q", s)
	}
}

// Value is a sealed interface over the typed constant values the formatter
// knows how to encode.
//
// Value types:
//   - Null: typed null
//   - Bool, Int, Float, String: scalars
//   - Enum: a named member of an enumeration, encoded by name
//   - GUID, TimeSpan, Timestamp, Bytes: always bound as parameters
//   - Collection: inlined as a tuple literal
type Value interface {
	DataType() DataType
	value() // Marker method - seals interface to this package
}

// Null is a typed SQL NULL.
type Null struct {
	Type DataType
}

// Bool is a boolean value.
type Bool bool

// Int is an integer value. All integers are int64.
type Int int64

// Float is a floating point value.
type Float float64

// String is a text value.
type String string

// Enum is an enumeration member, identified by type and member name.
type Enum struct {
	TypeName string
	Name     string
}

// GUID is a 128-bit identifier.
type GUID uuid.UUID

// TimeSpan is a duration.
type TimeSpan time.Duration

// Timestamp is an instant in time.
type Timestamp time.Time

// Bytes is a binary value.
type Bytes []byte

// Collection is an ordered list of values of one element type.
type Collection struct {
	Elem  DataType
	Items []Value
}

func (n Null) DataType() DataType     { return n.Type }
func (Bool) DataType() DataType       { return TypeBool }
func (Int) DataType() DataType        { return TypeInt }
func (Float) DataType() DataType      { return TypeFloat }
func (String) DataType() DataType     { return TypeString }
func (Enum) DataType() DataType       { return TypeEnum }
func (GUID) DataType() DataType       { return TypeGUID }
func (TimeSpan) DataType() DataType   { return TypeTimeSpan }
func (Timestamp) DataType() DataType  { return TypeTimestamp }
func (Bytes) DataType() DataType      { return TypeBytes }
func (Collection) DataType() DataType { return TypeCollection }

func (Null) value()       {}
func (Bool) value()       {}
func (Int) value()        {}
func (Float) value()      {}
func (String) value()     {}
func (Enum) value()       {}
func (GUID) value()       {}
func (TimeSpan) value()   {}
func (Timestamp) value()  {}
func (Bytes) value()      {}
func (Collection) value() {}

// TimestampLayout is the fixed UTC layout timestamps are normalized to
// before binding. Sub-second precision is five digits.
const TimestampLayout = "2006-01-02 15:04:05.00000"

// TypedValue is one bound SQL parameter: the declared type and the
// driver-ready value.
type TypedValue struct {
	Type  DataType `json:"type"`
	Value any      `json:"value"`
}

// Bind converts v into the driver-ready value carried by a TypedValue.
//
// GUIDs bind as canonical 8-4-4-4-12 text, timestamps as UTC text in
// TimestampLayout, timespans as nanoseconds and enums as member names.
// Collections cannot be bound as a single parameter.
func Bind(v Value) (TypedValue, error) {
	switch val := v.(type) {
	case nil:
		return TypedValue{}, fmt.Errorf("cannot bind nil value")
	case Null:
		return TypedValue{Type: val.Type, Value: nil}, nil
	case Bool:
		return TypedValue{Type: TypeBool, Value: bool(val)}, nil
	case Int:
		return TypedValue{Type: TypeInt, Value: int64(val)}, nil
	case Float:
		return TypedValue{Type: TypeFloat, Value: float64(val)}, nil
	case String:
		return TypedValue{Type: TypeString, Value: string(val)}, nil
	case Enum:
		return TypedValue{Type: TypeEnum, Value: val.Name}, nil
	case GUID:
		return TypedValue{Type: TypeGUID, Value: uuid.UUID(val).String()}, nil
	case TimeSpan:
		return TypedValue{Type: TypeTimeSpan, Value: int64(val)}, nil
	case Timestamp:
		return TypedValue{Type: TypeTimestamp, Value: FormatTimestamp(time.Time(val))}, nil
	case Bytes:
		return TypedValue{Type: TypeBytes, Value: []byte(val)}, nil
	case Collection:
		return TypedValue{}, fmt.Errorf("collection values cannot be bound as a single parameter")
	default:
		return TypedValue{}, fmt.Errorf("unsupported value type: %T", v)
	}
}

// FormatTimestamp normalizes t to UTC and renders it in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatNumber renders an Int or Float as SQL numeric literal text.
func FormatNumber(v Value) (string, bool) {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10), true
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), true
	default:
		return "", false
	}
}
