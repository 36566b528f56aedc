/*
File Name:  Store.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Simple key-value store interface, implemented by PogrebStore (persistent)
and MemoryStore (tests). Used by configsync's snapshot persistence and by
AddressBook's discovered-server address persistence.
*/

package store

import (
	"time"
)

// Store is the interface for implementing the underlying key/value storage.
type Store interface {
	// Set stores the key/value pair.
	Set(key []byte, data []byte) error

	// StoreExpire stores the key/value pair and deletes it after the expiration time.
	// If key/value already exists, it will be overwritten and the new expiration time applies.
	StoreExpire(key []byte, data []byte, expiration time.Time) error

	// Get returns the value for the key if present.
	Get(key []byte) (data []byte, found bool)

	// Delete deletes a key/value pair.
	Delete(key []byte)

	// ExpireKeys is called to delete all keys that are marked for expiration.
	ExpireKeys()
}
