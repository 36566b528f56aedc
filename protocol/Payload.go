/*
File Name:  Payload.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package protocol

// PayloadInfo identifies a message type on the wire: a stable textual UUID
// plus an application-defined version for that message type.
type PayloadInfo struct {
	Version uint16
	ID      string // canonical uppercase ASCII UUID form
}

// Payload is a typed message body as carried inside a Packet.
type Payload struct {
	Info PayloadInfo
	Data []byte // must be <= 65535 bytes
}

// encode writes the payload as: u16 version, u16 id_len, id bytes, u16 data_len, data bytes.
func (p *Payload) encode(into []byte) ([]byte, error) {
	var err error
	into = EncodeUint16(into, p.Info.Version)
	if into, err = EncodeString(into, p.Info.ID); err != nil {
		return into, err
	}
	if into, err = EncodeBytes(into, p.Data); err != nil {
		return into, err
	}
	return into, nil
}

// decodePayload reads a Payload starting at cursor, advancing it.
func decodePayload(data []byte, cursor *int) (p *Payload, ok bool) {
	version, ok := DecodeUint16(data, cursor)
	if !ok {
		return nil, false
	}
	id, ok := DecodeString(data, cursor)
	if !ok {
		return nil, false
	}
	body, ok := DecodeBytes(data, cursor)
	if !ok {
		return nil, false
	}
	return &Payload{Info: PayloadInfo{Version: version, ID: id}, Data: body}, true
}
