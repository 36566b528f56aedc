/*
File Name:  Hash.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

SHA-256 per FIPS 180-2, used exclusively for packet signatures (see Digest
in Packet.go). Not used for passwords or any other sensitive material.
*/

package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// HashSize is the SHA-256 digest size in bytes.
const HashSize = sha256.Size

// HashData is a one-shot SHA-256 hash of data.
func HashData(data []byte) (hash []byte) {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Hasher is a streaming SHA-256 hasher.
type Hasher struct {
	h hashState
}

// hashState is the subset of hash.Hash used by Hasher.
type hashState interface {
	Write(p []byte) (n int, err error)
	Sum(b []byte) []byte
}

// NewHasher creates a new streaming SHA-256 hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Update feeds more data into the running hash.
func (hs *Hasher) Update(data []byte) {
	hs.h.Write(data)
}

// Finalize returns the 32-byte SHA-256 digest of everything written so far.
func (hs *Hasher) Finalize() (hash [HashSize]byte) {
	sum := hs.h.Sum(nil)
	copy(hash[:], sum)
	return hash
}

// DecodeHashHex parses a 64-character uppercase hex SHA-256 digest.
func DecodeHashHex(s string) (hash []byte, err error) {
	if len(s) != HashSize*2 {
		return nil, errors.New("protocol: invalid hash hex length")
	}
	if s != strings.ToUpper(s) {
		return nil, errors.New("protocol: hash hex must be uppercase")
	}
	return hex.DecodeString(strings.ToLower(s))
}
