package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldKind enumerates the closed set of value types a report cell may carry
// once it has crossed the parse boundary.
type FieldKind string

const (
	FieldKindString FieldKind = "string"
	FieldKindNumber FieldKind = "number"
	FieldKindBool   FieldKind = "bool"
	FieldKindNull   FieldKind = "null"
)

// FieldValue is a tagged variant holding one coerced report cell. Downstream
// code never sees raw file tokens, only one of these four kinds.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Num  float64
	Bool bool
}

func StringValue(s string) FieldValue { return FieldValue{Kind: FieldKindString, Str: s} }
func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: FieldKindNumber, Num: n}
}
func BoolValue(b bool) FieldValue { return FieldValue{Kind: FieldKindBool, Bool: b} }
func NullValue() FieldValue       { return FieldValue{Kind: FieldKindNull} }

// IsNull reports whether the value carries no data. The zero FieldValue is
// treated as null.
func (v FieldValue) IsNull() bool {
	return v.Kind == FieldKindNull || v.Kind == ""
}

// String returns the value rendered as text, the way it would appear in a
// report cell. Null renders as the empty string.
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldKindString:
		return v.Str
	case FieldKindNumber:
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case FieldKindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldKindString:
		return json.Marshal(v.Str)
	case FieldKindNumber:
		return json.Marshal(v.Num)
	case FieldKindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = BoolValue(t)
	default:
		return fmt.Errorf("unsupported field value type %T", raw)
	}
	return nil
}

// RowPayload maps normalized report field names to coerced values. It is the
// canonical representation of one source row.
type RowPayload map[string]FieldValue

// Get returns the value for a field, or null when absent.
func (p RowPayload) Get(field string) FieldValue {
	if v, ok := p[field]; ok {
		return v
	}
	return NullValue()
}

// Clone returns a shallow copy; FieldValue has value semantics so a shallow
// copy is a full copy.
func (p RowPayload) Clone() RowPayload {
	out := make(RowPayload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p RowPayload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *RowPayload) Scan(value any) error {
	if value == nil {
		*p = RowPayload{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("row payload must be []byte")
	}
	return json.Unmarshal(bytes, p)
}
