/*
File Name:  Codec.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Low-level byte encoding shared by every wire structure: packets, payloads,
and the config-sync sub-protocol. All integers are big-endian. All
variable-length data (strings, blobs, arrays, maps) is prefixed with a
16-bit big-endian byte count.
*/

package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

// maxBlobSize is the largest byte count a length-prefixed field may declare.
const maxBlobSize = 65535

// ErrBlobTooLarge is returned by the Encode* functions when an inner blob
// would need to declare a length that does not fit into the 16-bit prefix.
var ErrBlobTooLarge = errors.New("protocol: blob exceeds 65535 bytes")

// ErrTruncated is returned by the Decode* functions when the buffer ends
// before the declared length, or leftover bytes remain after a top-level decode.
var ErrTruncated = errors.New("protocol: truncated or corrupt data")

// EncodeUint16 appends a big-endian uint16.
func EncodeUint16(into []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(into, b[:]...)
}

// EncodeUint32 appends a big-endian uint32.
func EncodeUint32(into []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(into, b[:]...)
}

// EncodeUint64 appends a big-endian uint64.
func EncodeUint64(into []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(into, b[:]...)
}

// EncodeFloat64 appends a big-endian IEEE-754 double, reinterpreted as its bit pattern.
func EncodeFloat64(into []byte, v float64) []byte {
	return EncodeUint64(into, math.Float64bits(v))
}

// EncodeBytes appends a 16-bit length prefix followed by the raw bytes.
func EncodeBytes(into []byte, v []byte) ([]byte, error) {
	if len(v) > maxBlobSize {
		return into, ErrBlobTooLarge
	}
	into = EncodeUint16(into, uint16(len(v)))
	return append(into, v...), nil
}

// EncodeString appends a UTF-8 string the same way as EncodeBytes.
func EncodeString(into []byte, v string) ([]byte, error) {
	return EncodeBytes(into, []byte(v))
}

// DecodeUint16 reads a big-endian uint16, advancing cursor.
func DecodeUint16(data []byte, cursor *int) (v uint16, ok bool) {
	if *cursor+2 > len(data) {
		return 0, false
	}
	v = binary.BigEndian.Uint16(data[*cursor : *cursor+2])
	*cursor += 2
	return v, true
}

// DecodeUint32 reads a big-endian uint32, advancing cursor.
func DecodeUint32(data []byte, cursor *int) (v uint32, ok bool) {
	if *cursor+4 > len(data) {
		return 0, false
	}
	v = binary.BigEndian.Uint32(data[*cursor : *cursor+4])
	*cursor += 4
	return v, true
}

// DecodeUint64 reads a big-endian uint64, advancing cursor.
func DecodeUint64(data []byte, cursor *int) (v uint64, ok bool) {
	if *cursor+8 > len(data) {
		return 0, false
	}
	v = binary.BigEndian.Uint64(data[*cursor : *cursor+8])
	*cursor += 8
	return v, true
}

// DecodeFloat64 reads a big-endian IEEE-754 double, advancing cursor.
func DecodeFloat64(data []byte, cursor *int) (v float64, ok bool) {
	bits, ok := DecodeUint64(data, cursor)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

// DecodeBytes reads a 16-bit length-prefixed byte blob, advancing cursor.
func DecodeBytes(data []byte, cursor *int) (v []byte, ok bool) {
	size, ok := DecodeUint16(data, cursor)
	if !ok {
		return nil, false
	}
	if *cursor+int(size) > len(data) {
		return nil, false
	}
	v = make([]byte, size)
	copy(v, data[*cursor:*cursor+int(size)])
	*cursor += int(size)
	return v, true
}

// DecodeString reads a length-prefixed UTF-8 string, advancing cursor. Invalid
// UTF-8 is treated as a decode failure, same as truncation.
func DecodeString(data []byte, cursor *int) (v string, ok bool) {
	b, ok := DecodeBytes(data, cursor)
	if !ok {
		return "", false
	}
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// EncodeStringArray appends a 16-bit byte count covering the contiguous,
// individually length-prefixed string elements that follow. This mirrors
// EncodeBytes' length-prefix style and is distinct from EncodeStringMap's
// element-count prefix.
func EncodeStringArray(into []byte, v []string) ([]byte, error) {
	var body []byte
	var err error
	for _, s := range v {
		if body, err = EncodeString(body, s); err != nil {
			return into, err
		}
	}
	if len(body) > maxBlobSize {
		return into, ErrBlobTooLarge
	}
	into = EncodeUint16(into, uint16(len(body)))
	return append(into, body...), nil
}

// DecodeStringArray reads a string array encoded by EncodeStringArray: a
// byte-count prefix bounding a region of back-to-back length-prefixed
// strings, decoded until the region is exhausted.
func DecodeStringArray(data []byte, cursor *int) (v []string, ok bool) {
	byteCount, ok := DecodeUint16(data, cursor)
	if !ok {
		return nil, false
	}
	end := *cursor + int(byteCount)
	if end > len(data) {
		return nil, false
	}
	v = []string{}
	for *cursor < end {
		s, ok := DecodeString(data, cursor)
		if !ok {
			return nil, false
		}
		v = append(v, s)
	}
	if *cursor != end {
		return nil, false
	}
	return v, true
}

// EncodeStringMap appends a 16-bit element count followed by (key, value)
// string pairs, each length-prefixed.
func EncodeStringMap(into []byte, v map[string]string) ([]byte, error) {
	if len(v) > maxBlobSize {
		return into, ErrBlobTooLarge
	}
	into = EncodeUint16(into, uint16(len(v)))
	var err error
	for key, value := range v {
		if into, err = EncodeString(into, key); err != nil {
			return into, err
		}
		if into, err = EncodeString(into, value); err != nil {
			return into, err
		}
	}
	return into, nil
}

// DecodeStringMap reads a string map encoded by EncodeStringMap.
func DecodeStringMap(data []byte, cursor *int) (v map[string]string, ok bool) {
	count, ok := DecodeUint16(data, cursor)
	if !ok {
		return nil, false
	}
	v = make(map[string]string, count)
	for i := uint16(0); i < count; i++ {
		key, ok := DecodeString(data, cursor)
		if !ok {
			return nil, false
		}
		value, ok := DecodeString(data, cursor)
		if !ok {
			return nil, false
		}
		v[key] = value
	}
	return v, true
}

// FinishDecode verifies that the cursor landed exactly on the end of the
// buffer. A top-level decode must call this; leftover bytes are a fatal
// corruption signal per the wire format spec.
func FinishDecode(data []byte, cursor int) error {
	if cursor != len(data) {
		return ErrTruncated
	}
	return nil
}
