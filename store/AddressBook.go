/*
File Name:  AddressBook.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Persists the last-known-working address of each server a client has ever
paired with, so a restart can try a direct unicast Advertise before
falling back to the ~1s broadcast discovery interval.
*/

package store

import "encoding/binary"

// addressBookKeyPrefix namespaces address-book entries within a Store
// shared with other concerns (e.g. the configsync snapshot).
const addressBookKeyPrefix = "addrbook/"

// AddressBook records discovered-server addresses in a backing Store.
type AddressBook struct {
	backing Store
}

// NewAddressBook wraps an existing Store (typically a *PogrebStore) as an
// AddressBook.
func NewAddressBook(backing Store) *AddressBook {
	return &AddressBook{backing: backing}
}

// Remember records ipv4:port (host byte order) as the last-known-working
// address for name (an arbitrary client-chosen label, e.g. "default").
func (a *AddressBook) Remember(name string, ipv4 uint32, port uint16) error {
	var value [6]byte
	binary.BigEndian.PutUint32(value[0:4], ipv4)
	binary.BigEndian.PutUint16(value[4:6], port)
	return a.backing.Set([]byte(addressBookKeyPrefix+name), value[:])
}

// Lookup returns the last remembered address for name, if any.
func (a *AddressBook) Lookup(name string) (ipv4 uint32, port uint16, found bool) {
	value, found := a.backing.Get([]byte(addressBookKeyPrefix + name))
	if !found || len(value) != 6 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(value[0:4]), binary.BigEndian.Uint16(value[4:6]), true
}

// Forget removes the remembered address for name.
func (a *AddressBook) Forget(name string) {
	a.backing.Delete([]byte(addressBookKeyPrefix + name))
}
