/*
File Name:  Endpoint.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Endpoint wraps a single UDP socket the way the control and discovery
listeners need it: ephemeral or fixed port bind, optional broadcast,
a cooperative receive timeout instead of a true non-blocking socket, and
recreate-on-hard-error semantics the Listener/Advertiser tasks rely on.
*/

package core

import (
	"errors"
	"math/rand"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// MaxDatagramSize mirrors the packet cap: a datagram never exceeds
// protocol.MaxPacketSize (see protocol.Packet), so the receive buffer only
// needs to be that large plus a small margin.
const MaxDatagramSize = 65536

// ephemeralPortAttempts bounds how many random ports are tried when the
// caller asks for an ephemeral bind (port 0).
const ephemeralPortAttempts = 100

// ErrEphemeralBindFailed is returned by Bind when no free port could be
// found in ephemeralPortAttempts tries.
var ErrEphemeralBindFailed = errors.New("core: could not bind an ephemeral port")

// Endpoint is a UDP socket plus the small amount of state needed to
// recreate it after a hard I/O error.
type Endpoint struct {
	conn    *net.UDPConn
	addr    *net.UDPAddr
	timeout time.Duration
}

// NewEndpoint creates an Endpoint with the given receive timeout. The
// timeout governs how quickly Recv returns (false, ok=false) on silence,
// which in turn bounds how fast a Listener notices a stop request.
func NewEndpoint(timeout time.Duration) *Endpoint {
	return &Endpoint{timeout: timeout}
}

// Bind creates the underlying socket and binds it to ip:port. port = 0
// selects an ephemeral port by trying up to 100 random ports in
// [1024, 65535]; the chosen port is then retrievable via Port().
func (e *Endpoint) Bind(ip net.IP, port int) error {
	if port != 0 {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: port})
		if err != nil {
			return err
		}
		e.conn, e.addr = conn, conn.LocalAddr().(*net.UDPAddr)
		return nil
	}

	for i := 0; i < ephemeralPortAttempts; i++ {
		candidate := 1024 + rand.Intn(65535-1024+1)
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: candidate})
		if err != nil {
			continue
		}
		e.conn, e.addr = conn, conn.LocalAddr().(*net.UDPAddr)
		return nil
	}

	return ErrEphemeralBindFailed
}

// EnableBroadcast sets SO_BROADCAST on the underlying socket so Send may
// target a limited-broadcast address (255.255.255.255). The standard
// library does not expose this socket option, so it is set directly via
// the raw file descriptor.
func (e *Endpoint) EnableBroadcast() error {
	raw, err := e.conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SetBufferSizes sets the OS send/receive socket buffer sizes.
func (e *Endpoint) SetBufferSizes(read, write int) {
	if read > 0 {
		e.conn.SetReadBuffer(read)
	}
	if write > 0 {
		e.conn.SetWriteBuffer(write)
	}
}

// Port returns the bound local port.
func (e *Endpoint) Port() uint16 {
	if e.addr == nil {
		return 0
	}
	return uint16(e.addr.Port)
}

// Close releases the underlying socket. Safe to call on an unbound Endpoint.
func (e *Endpoint) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

// Send writes raw to the given address.
func (e *Endpoint) Send(raw []byte, to PeerAddress) (sent int, err error) {
	return e.conn.WriteToUDP(raw, to.UDPAddr())
}

// SendTo writes raw to an arbitrary *net.UDPAddr, used for broadcast sends
// where the target isn't a known peer address.
func (e *Endpoint) SendTo(raw []byte, to *net.UDPAddr) (sent int, err error) {
	return e.conn.WriteToUDP(raw, to)
}

// Recv reads one datagram, waiting up to the configured timeout. ok is
// false for a timeout (the caller should simply loop); hardErr distinguishes
// a true socket failure, on which the caller must recreate the Endpoint.
func (e *Endpoint) Recv() (raw []byte, sender PeerAddress, ok bool, hardErr error) {
	e.conn.SetReadDeadline(time.Now().Add(e.timeout))

	buffer := make([]byte, MaxDatagramSize)
	n, addr, err := e.conn.ReadFromUDP(buffer)
	if err != nil {
		if netErr, isNetErr := err.(net.Error); isNetErr && netErr.Timeout() {
			return nil, PeerAddress{}, false, nil
		}
		return nil, PeerAddress{}, false, err
	}

	pa, valid := NewPeerAddress(addr)
	if !valid {
		return nil, PeerAddress{}, false, nil
	}
	return buffer[:n], pa, true, nil
}
