/*
File Name:  Message Core.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

The five message types belonging to the protocol core: discovery/pairing
(Advertise, AdvertiseAck), liveness (Ping, PingAck), and teardown
(Disconnect). Application messages live alongside these in the same
registry but are defined by the application, not here.
*/

package protocol

// Stable identifiers for the core message types. Generated once; never
// reused for a different message shape.
const (
	AdvertiseID    = "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"
	AdvertiseAckID = "6BA7B811-9DAD-11D1-80B4-00C04FD430C9"
	PingID         = "6BA7B812-9DAD-11D1-80B4-00C04FD430CA"
	PingAckID      = "6BA7B813-9DAD-11D1-80B4-00C04FD430CB"
	DisconnectID   = "6BA7B814-9DAD-11D1-80B4-00C04FD430CC"
)

// Advertise is broadcast by a client on the discovery port, announcing the
// control port it listens on.
type Advertise struct {
	ControlPort uint16
}

func (m *Advertise) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: AdvertiseID} }

func (m *Advertise) Encode() []byte {
	var out []byte
	return EncodeUint16(out, m.ControlPort)
}

func decodeAdvertise(data []byte) (Message, error) {
	cursor := 0
	port, ok := DecodeUint16(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &Advertise{ControlPort: port}, nil
}

// AdvertiseAck is unicast back by a server to the source IP of an Advertise,
// on the advertised control port, confirming the server's own control port.
type AdvertiseAck struct {
	ControlPort uint16
}

func (m *AdvertiseAck) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: AdvertiseAckID} }

func (m *AdvertiseAck) Encode() []byte {
	var out []byte
	return EncodeUint16(out, m.ControlPort)
}

func decodeAdvertiseAck(data []byte) (Message, error) {
	cursor := 0
	port, ok := DecodeUint16(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &AdvertiseAck{ControlPort: port}, nil
}

// Ping is sent by the server to a connected peer to check liveness.
type Ping struct{}

func (m *Ping) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: PingID} }
func (m *Ping) Encode() []byte         { return nil }

func decodePing(data []byte) (Message, error) {
	if len(data) != 0 {
		return nil, ErrTruncated
	}
	return &Ping{}, nil
}

// PingAck is the client's reply to Ping.
type PingAck struct{}

func (m *PingAck) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: PingAckID} }
func (m *PingAck) Encode() []byte         { return nil }

func decodePingAck(data []byte) (Message, error) {
	if len(data) != 0 {
		return nil, ErrTruncated
	}
	return &PingAck{}, nil
}

// Disconnect is sent in either direction to explicitly end a connection.
type Disconnect struct {
	Reason string
}

func (m *Disconnect) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: DisconnectID} }

func (m *Disconnect) Encode() []byte {
	var out []byte
	out, _ = EncodeString(out, m.Reason)
	return out
}

func decodeDisconnect(data []byte) (Message, error) {
	cursor := 0
	reason, ok := DecodeString(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &Disconnect{Reason: reason}, nil
}
