package callconfig

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindOpaque holds JSON this package does not model (arrays, nested
	// objects, null). It round-trips unchanged.
	KindOpaque Kind = iota
	KindString
	KindNumber
	KindBool
	// KindRecord is a flat object of numbers, e.g. VAD parameters. Null
	// members are absent from the record but kept for re-encoding.
	KindRecord
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRecord:
		return "record"
	default:
		return "opaque"
	}
}

// Value is the tagged variant stored in an Option.
// The zero Value is an opaque JSON null.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	record  map[string]float64
	raw     json.RawMessage
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value. NaN and infinities encode as null and
// fail Validate.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Record returns a numeric record Value. The map is copied.
func Record(m map[string]float64) Value {
	return Value{kind: KindRecord, record: maps.Clone(m)}
}

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string and true if v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the number and true if v is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean and true if v is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// AsRecord returns a copy of the record and true if v is a record.
func (v Value) AsRecord() (map[string]float64, bool) {
	if v.kind != KindRecord {
		return nil, false
	}
	return maps.Clone(v.record), true
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.boolean == o.boolean
	case KindRecord:
		return maps.Equal(v.record, o.record) && bytes.Equal(v.raw, o.raw)
	default:
		return bytes.Equal(v.rawOrNull(), o.rawOrNull())
	}
}

func (v Value) clone() Value {
	c := v
	if v.record != nil {
		c.record = maps.Clone(v.record)
	}
	if v.raw != nil {
		c.raw = bytes.Clone(v.raw)
	}
	return c
}

// finite reports whether every number held by v is finite.
func (v Value) finite() bool {
	switch v.kind {
	case KindNumber:
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case KindRecord:
		for _, n := range v.record {
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return false
			}
		}
	}
	return true
}

func (v Value) rawOrNull() []byte {
	if len(v.raw) == 0 {
		return []byte("null")
	}
	return v.raw
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if !v.finite() {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindBool:
		return json.Marshal(v.boolean)
	case KindRecord:
		if v.raw != nil {
			return v.raw, nil
		}
		return json.Marshal(v.record)
	default:
		return v.rawOrNull(), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '{':
		var rec map[string]*float64
		if err := json.Unmarshal(data, &rec); err == nil {
			*v = decodeRecord(rec, data)
			return nil
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
		return nil
	}

	if !json.Valid(data) {
		return ErrInvalidValue
	}
	*v = Value{kind: KindOpaque, raw: bytes.Clone(data)}
	return nil
}

// decodeRecord drops null members so they read as absent, keeping the
// source bytes so the record re-encodes unchanged.
func decodeRecord(rec map[string]*float64, data []byte) Value {
	v := Value{kind: KindRecord, record: make(map[string]float64, len(rec))}
	for k, n := range rec {
		if n == nil {
			v.raw = bytes.Clone(data)
			continue
		}
		v.record[k] = *n
	}
	return v
}
