/*
File Name:  Value.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

The typed key/value store at the heart of the configuration-sync
sub-protocol. Each entry keeps an authoritative typed Value plus a
text-oriented mirror so a UI can edit numerics through a plain string
field without the store ever becoming untyped.
*/

package configsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tablesight/core/protocol"
	"github.com/tablesight/core/sanitize"
)

// ValueType is the wire tag identifying an entry's value shape.
type ValueType uint8

const (
	String ValueType = iota
	StringMap
	Path
	PathArray
	CodeDefinition
	Boolean
	Integer
	FixedPoint
	Real
	RollValue
	Time
)

// Entry is one (category, name) record in the store. Value holds the
// authoritative typed payload; its concrete Go type is determined by Type:
//
//	String, Path, CodeDefinition -> string
//	StringMap                    -> map[string]string
//	PathArray                    -> []string
//	Boolean                      -> bool
//	Integer                      -> int64
//	FixedPoint, Real, RollValue, Time -> float64
//
// Entry values are plain data; all synchronization lives at the Store
// level (single mutex guarding the whole map, per the design's "the
// configuration store (mutex)" shared-resource model).
type Entry struct {
	Category    string
	Name        string
	Type        ValueType
	Description string
	Value       interface{}
	TextMirror  string
}

// FullName is the sort/lookup key used by ConfigValueList application:
// "category.name".
func (e *Entry) FullName() string {
	return e.Category + "." + e.Name
}

func fullName(category, name string) string {
	return category + "." + name
}

// setValue installs a new typed value and recomputes the text mirror.
// Path and PathArray values are sanitized on the way in. Returns whether
// the value actually changed (used for the "no-op update does not
// re-broadcast" rule). Caller must hold the owning Store's lock.
func (e *Entry) setValue(v interface{}) (changed bool) {
	v = sanitizeForType(e.Type, v)
	if valuesEqual(e.Value, v) {
		return false
	}
	e.Value = v
	e.TextMirror = textMirror(e.Type, v)
	return true
}

// setFromText parses text according to the entry's type and applies it
// the same way setValue does. Used by UIs editing numerics as strings.
// Caller must hold the owning Store's lock.
func (e *Entry) setFromText(text string) error {
	v, err := parseText(e.Type, text)
	if err != nil {
		return err
	}
	e.setValue(v)
	return nil
}

func sanitizeForType(t ValueType, v interface{}) interface{} {
	switch t {
	case Path:
		if s, ok := v.(string); ok {
			return sanitize.PathFile(s)
		}
	case PathArray:
		if arr, ok := v.([]string); ok {
			out := make([]string, len(arr))
			for i, s := range arr {
				out[i] = sanitize.PathFile(s)
			}
			return out
		}
	}
	return v
}

func valuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case map[string]string:
		bv, ok := b.(map[string]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if bv[k] != v {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func textMirror(t ValueType, v interface{}) string {
	switch t {
	case String, Path, CodeDefinition:
		s, _ := v.(string)
		return s
	case StringMap:
		m, _ := v.(map[string]string)
		parts := make([]string, 0, len(m))
		for k, val := range m {
			parts = append(parts, k+"="+val)
		}
		return strings.Join(parts, ";")
	case PathArray:
		arr, _ := v.([]string)
		return strings.Join(arr, ";")
	case Boolean:
		b, _ := v.(bool)
		return strconv.FormatBool(b)
	case Integer:
		n, _ := v.(int64)
		return strconv.FormatInt(n, 10)
	case FixedPoint, Real, RollValue, Time:
		f, _ := v.(float64)
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseText(t ValueType, text string) (interface{}, error) {
	switch t {
	case String, Path, CodeDefinition:
		return text, nil
	case StringMap:
		m := make(map[string]string)
		for _, pair := range strings.Split(text, ";") {
			if pair == "" {
				continue
			}
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("configsync: malformed StringMap entry %q", pair)
			}
			m[kv[0]] = kv[1]
		}
		return m, nil
	case PathArray:
		var arr []string
		for _, s := range strings.Split(text, ";") {
			if s != "" {
				arr = append(arr, s)
			}
		}
		return arr, nil
	case Boolean:
		return strconv.ParseBool(text)
	case Integer:
		return strconv.ParseInt(text, 10, 64)
	case FixedPoint, Real, RollValue, Time:
		return strconv.ParseFloat(text, 64)
	default:
		return nil, fmt.Errorf("configsync: unknown value type %d", t)
	}
}

// encodeValue appends the wire form of v (without its type tag) to into.
func encodeValue(t ValueType, v interface{}, into []byte) ([]byte, error) {
	var err error
	switch t {
	case String, Path, CodeDefinition:
		s, _ := v.(string)
		into, err = protocol.EncodeString(into, s)
	case StringMap:
		m, _ := v.(map[string]string)
		into, err = protocol.EncodeStringMap(into, m)
	case PathArray:
		arr, _ := v.([]string)
		into, err = protocol.EncodeStringArray(into, arr)
	case Boolean:
		b, _ := v.(bool)
		var tag uint16
		if b {
			tag = 1
		}
		into = protocol.EncodeUint16(into, tag)
	case Integer:
		n, _ := v.(int64)
		into = protocol.EncodeUint64(into, uint64(n))
	case FixedPoint, Real, RollValue, Time:
		f, _ := v.(float64)
		into = protocol.EncodeFloat64(into, f)
	default:
		return into, fmt.Errorf("configsync: unknown value type %d", t)
	}
	return into, err
}

// decodeValue reads a value of type t starting at cursor, advancing it.
func decodeValue(t ValueType, data []byte, cursor *int) (v interface{}, ok bool) {
	switch t {
	case String, Path, CodeDefinition:
		return protocol.DecodeString(data, cursor)
	case StringMap:
		return protocol.DecodeStringMap(data, cursor)
	case PathArray:
		return protocol.DecodeStringArray(data, cursor)
	case Boolean:
		tag, ok := protocol.DecodeUint16(data, cursor)
		if !ok {
			return nil, false
		}
		return tag != 0, true
	case Integer:
		n, ok := protocol.DecodeUint64(data, cursor)
		if !ok {
			return nil, false
		}
		return int64(n), true
	case FixedPoint, Real, RollValue, Time:
		return protocol.DecodeFloat64(data, cursor)
	default:
		return nil, false
	}
}
