/*
File Name:  Message.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Wire messages for the configuration-sync sub-protocol: a client requests
the current snapshot once connected, the server answers with the full
list, and either side pushes single-entry updates afterward.
*/

package configsync

import (
	"github.com/tablesight/core/protocol"
)

// Stable identifiers for the config-sync message types, following the
// same textual-UUID scheme as protocol's core and application messages.
const (
	ConfigListRequestID = "A1B2C3D4-0007-4000-8000-000000000007"
	ConfigValueListID   = "A1B2C3D4-0008-4000-8000-000000000008"
	ConfigValueID       = "A1B2C3D4-0009-4000-8000-000000000009"
)

// ConfigListRequest is sent by a client immediately after AdvertiseAck to
// request the server's current configuration snapshot. Empty body.
type ConfigListRequest struct{}

func (m *ConfigListRequest) PayloadID() protocol.PayloadInfo {
	return protocol.PayloadInfo{Version: 0, ID: ConfigListRequestID}
}

func (m *ConfigListRequest) Encode() []byte { return nil }

func decodeConfigListRequest(data []byte) (protocol.Message, error) {
	if len(data) != 0 {
		return nil, protocol.ErrTruncated
	}
	return &ConfigListRequest{}, nil
}

// ConfigValueList is the full-snapshot push: a count followed by a
// sequence of (category, name, type_tag, description, value) records.
type ConfigValueList struct {
	Entries []Entry
}

func (m *ConfigValueList) PayloadID() protocol.PayloadInfo {
	return protocol.PayloadInfo{Version: 0, ID: ConfigValueListID}
}

func (m *ConfigValueList) Encode() []byte {
	var out []byte
	out = protocol.EncodeUint16(out, uint16(len(m.Entries)))
	for _, e := range m.Entries {
		out = encodeEntry(out, e)
	}
	return out
}

// DecodeConfigValueList decodes a ConfigValueList body, for host
// applications reading a persisted snapshot back off disk outside of
// message dispatch.
func DecodeConfigValueList(data []byte) (*ConfigValueList, error) {
	msg, err := decodeConfigValueList(data)
	if err != nil {
		return nil, err
	}
	return msg.(*ConfigValueList), nil
}

func decodeConfigValueList(data []byte) (protocol.Message, error) {
	cursor := 0
	count, ok := protocol.DecodeUint16(data, &cursor)
	if !ok {
		return nil, protocol.ErrTruncated
	}
	entries := make([]Entry, 0, count)
	for i := uint16(0); i < count; i++ {
		e, ok := decodeEntry(data, &cursor)
		if !ok {
			return nil, protocol.ErrTruncated
		}
		entries = append(entries, e)
	}
	if err := protocol.FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &ConfigValueList{Entries: entries}, nil
}

// ConfigValue is a single-entry update, sent in either direction whenever
// one side mutates a value locally.
type ConfigValue struct {
	Entry
}

func (m *ConfigValue) PayloadID() protocol.PayloadInfo {
	return protocol.PayloadInfo{Version: 0, ID: ConfigValueID}
}

func (m *ConfigValue) Encode() []byte {
	return encodeEntry(nil, m.Entry)
}

func decodeConfigValue(data []byte) (protocol.Message, error) {
	cursor := 0
	e, ok := decodeEntry(data, &cursor)
	if !ok {
		return nil, protocol.ErrTruncated
	}
	if err := protocol.FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &ConfigValue{Entry: e}, nil
}

func encodeEntry(into []byte, e Entry) []byte {
	var err error
	into, err = protocol.EncodeString(into, e.Category)
	if err != nil {
		return into
	}
	into, err = protocol.EncodeString(into, e.Name)
	if err != nil {
		return into
	}
	into = append(into, byte(e.Type))
	into, err = protocol.EncodeString(into, e.Description)
	if err != nil {
		return into
	}
	into, _ = encodeValue(e.Type, e.Value, into)
	return into
}

func decodeEntry(data []byte, cursor *int) (e Entry, ok bool) {
	category, ok := protocol.DecodeString(data, cursor)
	if !ok {
		return Entry{}, false
	}
	name, ok := protocol.DecodeString(data, cursor)
	if !ok {
		return Entry{}, false
	}
	if *cursor+1 > len(data) {
		return Entry{}, false
	}
	typ := ValueType(data[*cursor])
	*cursor++
	description, ok := protocol.DecodeString(data, cursor)
	if !ok {
		return Entry{}, false
	}
	value, ok := decodeValue(typ, data, cursor)
	if !ok {
		return Entry{}, false
	}
	entry := Entry{Category: category, Name: name, Type: typ, Description: description, Value: value}
	entry.TextMirror = textMirror(typ, value)
	return entry, true
}

// Register adds the config-sync message types to an existing registry,
// typically protocol.AppRegistry()'s result.
func Register(registry *protocol.Registry) {
	registry.Register(ConfigListRequestID, decodeConfigListRequest)
	registry.Register(ConfigValueListID, decodeConfigValueList)
	registry.Register(ConfigValueID, decodeConfigValue)
}
