/*
File Name:  Entropy.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Obfuscation codec. Not cryptographic: it exists to keep casual packet
sniffers from reading plaintext off the wire, not to provide secrecy
against an adversary who can read this source file.
*/

package protocol

// CodecEntropy is the sole reserved algorithm tag on the wire today. Future
// algorithms can be added under new tag values without breaking old peers,
// who will simply fail signature verification on anything they don't
// recognize (see Packet.go).
const CodecEntropy uint8 = 1

// entropyTable is 256 fixed bytes chosen once at build time. Every build of
// this module ships the same table; it is not meant to be regenerated or
// configured.
var entropyTable = [256]byte{
	0x79, 0xd0, 0xcf, 0xb2, 0x81, 0x72, 0xbf, 0x2f, 0x71, 0xbc, 0xbe, 0xcd, 0x38, 0x9e, 0x81, 0x93,
	0x30, 0xf5, 0x5d, 0x99, 0x37, 0x54, 0x91, 0x5f, 0x87, 0xf4, 0xe1, 0xaf, 0x0a, 0x44, 0xf1, 0x00,
	0x9e, 0x11, 0x93, 0x85, 0x9c, 0x2c, 0x7f, 0x00, 0x35, 0x26, 0xce, 0xe1, 0x90, 0xc8, 0xa8, 0xc4,
	0x96, 0xd0, 0x48, 0x74, 0xa5, 0xb3, 0x98, 0x58, 0x14, 0x66, 0x92, 0xa5, 0xe8, 0xc5, 0xdf, 0xcc,
	0x16, 0x80, 0x7f, 0x09, 0x12, 0x87, 0x6a, 0x84, 0x68, 0x0a, 0xdb, 0xf2, 0x87, 0x4a, 0x9f, 0x0c,
	0xb8, 0x3a, 0x9e, 0x0d, 0xf1, 0xf3, 0xd5, 0xf2, 0xf2, 0xfa, 0xd8, 0xf4, 0x69, 0xe5, 0x92, 0x30,
	0xf2, 0x73, 0xdd, 0xac, 0xdd, 0x63, 0xdf, 0x69, 0x2b, 0x14, 0xda, 0xda, 0xe5, 0x45, 0x5c, 0x0c,
	0x38, 0xb9, 0x96, 0x6b, 0x59, 0x55, 0x4d, 0x99, 0x3a, 0x2c, 0x78, 0xe0, 0xae, 0x56, 0x97, 0x3a,
	0x5b, 0x0d, 0xcb, 0x8a, 0x3e, 0x2b, 0x40, 0x1f, 0x55, 0xf0, 0x9d, 0xa4, 0xe2, 0x62, 0xdd, 0x25,
	0xb0, 0x3a, 0x22, 0x33, 0x8a, 0xb5, 0x9e, 0xa3, 0x52, 0xbe, 0x43, 0x3e, 0x35, 0x5e, 0xa2, 0x8b,
	0x1c, 0x98, 0x42, 0x85, 0xdb, 0x19, 0x27, 0x16, 0x31, 0xf6, 0x72, 0xb4, 0xf8, 0xa1, 0x54, 0x54,
	0x28, 0x14, 0x35, 0xc4, 0x22, 0xd6, 0xbc, 0x7a, 0xf8, 0xb9, 0xb7, 0x2e, 0xf2, 0x3a, 0x3e, 0x18,
	0xbd, 0x6d, 0x77, 0x20, 0xbc, 0xdb, 0xa5, 0x73, 0x68, 0xa0, 0xb8, 0xe8, 0x09, 0x54, 0x43, 0x7c,
	0x15, 0x81, 0x68, 0x35, 0x7d, 0x78, 0xe6, 0x90, 0x74, 0xa4, 0x5e, 0x1b, 0xfc, 0xfa, 0x91, 0xd2,
	0x04, 0x29, 0x15, 0x11, 0x15, 0x77, 0x9f, 0xa4, 0x13, 0xb4, 0x56, 0x69, 0xb1, 0x48, 0xdc, 0xc3,
	0xab, 0x40, 0x6f, 0x28, 0x1c, 0xa2, 0x98, 0xcd, 0x4e, 0x61, 0x98, 0x58, 0xce, 0xc9, 0xa2, 0xa9,
}

func init() {
	// Impossible-state invariant: the table must be exactly 256 bytes. A
	// build with a truncated table would silently weaken obfuscation.
	if len(entropyTable) != 256 {
		panic("protocol: entropy table must be exactly 256 bytes")
	}
}

// entropyTransform XORs data against the entropy table starting at offset
// seed, wrapping every 256 bytes. It is its own inverse.
func entropyTransform(data []byte, seed uint8) {
	for i := range data {
		data[i] ^= entropyTable[(int(i)+int(seed))%256]
	}
}

// EntropyEncrypt obfuscates plaintext with the entropy table using seed,
// returning a new slice. seed should be drawn fresh per packet; it is not
// secret and travels in the clear.
func EntropyEncrypt(plaintext []byte, seed uint8) (ciphertext []byte) {
	ciphertext = make([]byte, len(plaintext))
	copy(ciphertext, plaintext)
	entropyTransform(ciphertext, seed)
	return ciphertext
}

// EntropyDecrypt reverses EntropyEncrypt. XOR is self-inverse so this is the
// same transform.
func EntropyDecrypt(ciphertext []byte, seed uint8) (plaintext []byte) {
	return EntropyEncrypt(ciphertext, seed)
}
