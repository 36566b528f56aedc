/*
File Name:  Packet Encoding.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Wire structure of every packet:
Offset  Size     Info
0       2        Packet version (big-endian, = 1)
2       1        Algorithm tag (= 1 for Entropy)
3       1        Entropy seed
4       2        Encrypted blob length (big-endian)
6       ?        Encrypted blob

Decrypting the blob yields:
  u16  payload version
  u16  id_len
  ?    id (ASCII UUID, uppercase canonical form)
  u16  data_len
  ?    payload data
  32   sha256 signature

The signature covers the packet version, codec descriptor, payload info,
payload size, and the compile-time shared secret (see Digest below). A
single corrupt byte anywhere in the encrypted region will, with
overwhelming probability, break either the inner decode or the signature;
both lead to a silent drop.
*/

package protocol

import (
	"crypto/subtle"
	"errors"
	"math/rand"
)

// PacketVersion is the only packet version understood by this build.
const PacketVersion uint16 = 1

// MaxPacketSize is the largest a packet may be on the wire: the IP limit
// minus a 4 KiB header reserve.
const MaxPacketSize = 61440

// PacketLengthMin is the minimum possible size of a well-formed packet:
// 2 (version) + 1 (algorithm) + 1 (seed) + 2 (blob length) + minimum blob
// (2 version + 2 id_len + 2 data_len + 32 signature).
const PacketLengthMin = 2 + 1 + 1 + 2 + 2 + 2 + 2 + HashSize

// ErrPacketTooLarge is returned by PacketConstruct when the payload would
// push the packet past MaxPacketSize.
var ErrPacketTooLarge = errors.New("protocol: packet exceeds maximum wire size")

// ErrVersionMismatch is returned by PacketDeconstruct for any packet version
// other than PacketVersion.
var ErrVersionMismatch = errors.New("protocol: unsupported packet version")

// ErrSignatureMismatch is returned by PacketDeconstruct when the recomputed
// digest does not match the signature carried in the packet.
var ErrSignatureMismatch = errors.New("protocol: signature mismatch")

// codecDescriptor is the wire form of the obfuscation codec: algorithm tag
// plus the per-packet random seed. The seed travels in the clear; it only
// varies the starting offset, it provides no secrecy.
type codecDescriptor struct {
	Algorithm uint8
	Seed      uint8
}

// digest is the transient object whose SHA-256 becomes the per-packet
// signature. It is never transmitted; both sides recompute it locally from
// fields they already observed plus the shared secret.
type digest struct {
	PacketVersion uint16
	Codec         codecDescriptor
	Info          PayloadInfo
	PayloadSize   uint16
	SharedSecret  string
}

func (d *digest) sign() [HashSize]byte {
	var buf []byte
	buf = EncodeUint16(buf, d.PacketVersion)
	buf = append(buf, d.Codec.Algorithm, d.Codec.Seed)
	buf = EncodeUint16(buf, d.Info.Version)
	buf, _ = EncodeString(buf, d.Info.ID)
	buf = EncodeUint16(buf, d.PayloadSize)
	buf, _ = EncodeString(buf, d.SharedSecret)

	var out [HashSize]byte
	copy(out[:], HashData(buf))
	return out
}

// PacketConstruct builds the wire form of payload: sign, encrypt, frame.
// It returns ErrPacketTooLarge if the result would exceed MaxPacketSize.
func PacketConstruct(payload *Payload) (raw []byte, err error) {
	codec := codecDescriptor{Algorithm: CodecEntropy, Seed: uint8(rand.Intn(256))}

	d := &digest{
		PacketVersion: PacketVersion,
		Codec:         codec,
		Info:          payload.Info,
		PayloadSize:   uint16(len(payload.Data)),
		SharedSecret:  SharedSecret,
	}
	signature := d.sign()

	var inner []byte
	if inner, err = payload.encode(inner); err != nil {
		return nil, err
	}
	inner = append(inner, signature[:]...)

	encrypted := EntropyEncrypt(inner, codec.Seed)
	if len(encrypted) > maxBlobSize {
		return nil, ErrPacketTooLarge
	}

	var out []byte
	out = EncodeUint16(out, PacketVersion)
	out = append(out, codec.Algorithm, codec.Seed)
	out, _ = EncodeBytes(out, encrypted)

	if len(out) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	return out, nil
}

// PacketDeconstruct decrypts a raw UDP datagram, verifies its signature, and
// returns the enclosed payload. Any malformation (bad length, garbage after
// decrypt, trailing bytes, signature mismatch, unsupported version) results
// in a nil payload and a non-nil error; callers must treat this as a silent
// drop, not a protocol violation worth escalating.
func PacketDeconstruct(raw []byte) (payload *Payload, err error) {
	if len(raw) < PacketLengthMin {
		return nil, ErrTruncated
	}

	cursor := 0
	version, _ := DecodeUint16(raw, &cursor)
	if version != PacketVersion {
		return nil, ErrVersionMismatch
	}

	algorithm := raw[cursor]
	seed := raw[cursor+1]
	cursor += 2

	encrypted, ok := DecodeBytes(raw, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(raw, cursor); err != nil {
		return nil, err
	}

	if algorithm != CodecEntropy {
		return nil, errors.New("protocol: unsupported codec algorithm")
	}

	inner := EntropyDecrypt(encrypted, seed)
	if len(inner) < HashSize {
		return nil, ErrTruncated
	}

	innerCursor := 0
	payload, ok = decodePayload(inner, &innerCursor)
	if !ok {
		return nil, ErrTruncated
	}

	signatureClaimed := inner[innerCursor:]
	if len(signatureClaimed) != HashSize {
		return nil, ErrTruncated
	}
	if innerCursor+HashSize != len(inner) {
		return nil, ErrTruncated
	}

	d := &digest{
		PacketVersion: version,
		Codec:         codecDescriptor{Algorithm: algorithm, Seed: seed},
		Info:          payload.Info,
		PayloadSize:   uint16(len(payload.Data)),
		SharedSecret:  SharedSecret,
	}
	signatureExpected := d.sign()

	if subtle.ConstantTimeCompare(signatureExpected[:], signatureClaimed) != 1 {
		return nil, ErrSignatureMismatch
	}

	return payload, nil
}
