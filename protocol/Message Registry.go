/*
File Name:  Message Registry.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Every message type is identified on the wire by a stable 128-bit UUID
carried in PayloadInfo.ID, not by a small numeric command byte. This keeps
the set of message types open: application code can register its own
without colliding with the protocol core or each other, at the cost of a
slightly larger header per packet.
*/

package protocol

import "fmt"

// Message is implemented by every registered message type.
type Message interface {
	// PayloadID returns the stable identifier and version for this message type.
	PayloadID() PayloadInfo
	// Encode returns the wire body of this message (not including PayloadInfo).
	Encode() []byte
}

// Decoder decodes a payload body into a concrete Message. It returns an
// error if the body is the wrong shape for the registered type; a known ID
// with an undecodable body is logged by the caller and treated as handled
// (drop), per the dispatch contract.
type Decoder func(data []byte) (Message, error)

// Registry is a lookup from PayloadInfo.ID to a decoder for that type.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry creates an empty registry pre-populated with nothing; callers
// normally start from CoreRegistry() and add their own application types.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register associates a decoder with a message ID. Re-registering the same
// ID overwrites the previous decoder; this is intentional so application
// code may override core behavior in tests.
func (r *Registry) Register(id string, decoder Decoder) {
	r.decoders[id] = decoder
}

// Decode looks up the payload's ID and decodes its body. handled is false
// when the ID is not registered, so callers may route it elsewhere; a
// registered ID whose body fails to decode returns handled=true, msg=nil,
// err set — the caller should log and drop.
func (r *Registry) Decode(payload *Payload) (msg Message, handled bool, err error) {
	decoder, ok := r.decoders[payload.Info.ID]
	if !ok {
		return nil, false, nil
	}

	msg, err = decoder(payload.Data)
	if err != nil {
		return nil, true, fmt.Errorf("protocol: decoding %s: %w", payload.Info.ID, err)
	}
	return msg, true, nil
}

// BuildPayload wraps an encoded Message into a Payload ready for PacketConstruct.
func BuildPayload(msg Message) *Payload {
	return &Payload{Info: msg.PayloadID(), Data: msg.Encode()}
}

// CoreRegistry returns a Registry with the five core message types
// (Advertise, AdvertiseAck, Ping, PingAck, Disconnect) already registered.
func CoreRegistry() *Registry {
	r := NewRegistry()
	r.Register(AdvertiseID, decodeAdvertise)
	r.Register(AdvertiseAckID, decodeAdvertiseAck)
	r.Register(PingID, decodePing)
	r.Register(PingAckID, decodePingAck)
	r.Register(DisconnectID, decodeDisconnect)
	return r
}
