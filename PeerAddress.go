/*
File Name:  PeerAddress.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	"encoding/binary"
	"fmt"
	"net"
)

// PeerAddress identifies a peer's network location as an IPv4 address and
// port, both in host byte order. Equality intentionally ignores the port:
// a peer that rebinds to a new ephemeral outgoing port is still the same
// peer as far as the connection table is concerned.
type PeerAddress struct {
	IPv4 uint32
	Port uint16
}

// NewPeerAddress builds a PeerAddress from a *net.UDPAddr. The address must
// carry a 4-byte (or 4-in-16) IP; non-IPv4 addresses return the zero value.
func NewPeerAddress(addr *net.UDPAddr) (pa PeerAddress, ok bool) {
	if addr == nil {
		return PeerAddress{}, false
	}
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return PeerAddress{}, false
	}
	return PeerAddress{IPv4: binary.BigEndian.Uint32(ip4), Port: uint16(addr.Port)}, true
}

// Equal compares only the address, not the port. See the PeerAddress doc
// comment: this is intentional, not an oversight.
func (a PeerAddress) Equal(b PeerAddress) bool {
	return a.IPv4 == b.IPv4
}

// UDPAddr returns the net.UDPAddr form, suitable for Endpoint.Send.
func (a PeerAddress) UDPAddr() *net.UDPAddr {
	var ip [4]byte
	binary.BigEndian.PutUint32(ip[:], a.IPv4)
	return &net.UDPAddr{IP: net.IPv4(ip[0], ip[1], ip[2], ip[3]), Port: int(a.Port)}
}

// String returns the dotted-quad:port form.
func (a PeerAddress) String() string {
	var ip [4]byte
	binary.BigEndian.PutUint32(ip[:], a.IPv4)
	return fmt.Sprintf("%d.%d.%d.%d:%d", ip[0], ip[1], ip[2], ip[3], a.Port)
}

// Interface describes one local network adapter candidate for binding a
// discovery listener. A broadcast-capable interface has every field set
// (except possibly Gateway on a loopback-only adapter) and a nonzero Index.
type Interface struct {
	Name    string
	Address net.IP
	Netmask net.IPMask
	Gateway net.IP
	Index   int
}

// BroadcastCapable reports whether the interface can be used to send and
// receive IPv4 broadcast discovery traffic.
func (i Interface) BroadcastCapable() bool {
	return i.Index != 0 && i.Address != nil && i.Netmask != nil && i.Address.To4() != nil
}

// BroadcastAddress computes the directed IPv4 broadcast address for this
// interface's network (address | ^netmask).
func (i Interface) BroadcastAddress() net.IP {
	ip4 := i.Address.To4()
	if ip4 == nil || i.Netmask == nil {
		return nil
	}
	out := make(net.IP, 4)
	for n := range ip4 {
		out[n] = ip4[n] | ^i.Netmask[n]
	}
	return out
}

// LocalInterfaces enumerates broadcast-capable local network interfaces.
// Interface enumeration is an optimization the Advertiser/Server may use to
// target directed broadcasts; binding to the wildcard address is equally
// valid per the design (spec section 9, "ambiguities to preserve").
func LocalInterfaces() (out []Interface) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			out = append(out, Interface{
				Name:    iface.Name,
				Address: ipnet.IP,
				Netmask: ipnet.Mask,
				Index:   iface.Index,
			})
		}
	}
	return out
}
