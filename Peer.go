/*
File Name:  Peer.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	"errors"
	"sync"
	"time"

	"github.com/tablesight/core/protocol"
)

// Peer connection states.
const (
	Disconnected = iota
	Connected
)

// PingFailedTimeoutCount is how many consecutive unanswered pings mark a
// peer dead.
const PingFailedTimeoutCount = 20

// WatchdogPeriod is how long a client-side peer may go without receiving
// any payload before it assumes the server is gone.
const WatchdogPeriod = 3 * time.Second

// ErrPeerNotConnected is returned by Peer.Send when the peer has no
// recorded socket address.
var ErrPeerNotConnected = errors.New("core: peer is not connected")

// Peer is the remote half of a connection: its address, liveness counter,
// and connection state. The Address slot being meaningful (state ==
// Connected) is the single source of truth for "connected"; transitions
// into that state always go through onServerConnect/onClientConnect,
// transitions out always go through disconnect.
type Peer struct {
	mu sync.Mutex

	Address                PeerAddress
	State                  int
	PingsSinceLastResponse uint32
	LastPacketIn           time.Time

	isClientSide bool // true for the single peer object a Client keeps for its server

	endpoint *Endpoint // shared control-channel endpoint used to Send
	registry *protocol.Registry
	filters  *Filters

	watchdogGeneration int
	onWatchdogExpire   func()
}

func newPeer(addr PeerAddress, endpoint *Endpoint, registry *protocol.Registry, filters *Filters, isClientSide bool) *Peer {
	return &Peer{
		Address:      addr,
		State:        Connected,
		LastPacketIn: time.Now(),
		endpoint:     endpoint,
		registry:     registry,
		filters:      filters,
		isClientSide: isClientSide,
	}
}

// Send encodes msg into a packet and sends it to the peer's address. If
// the peer has no address (never connected), it fails immediately. If the
// underlying send fails, the endpoint is recreated once and the send
// retried; a second failure is returned to the caller.
func (peer *Peer) Send(msg protocol.Message) error {
	peer.mu.Lock()
	connected := peer.State == Connected
	addr := peer.Address
	peer.mu.Unlock()

	if !connected {
		return ErrPeerNotConnected
	}

	raw, err := protocol.PacketConstruct(protocol.BuildPayload(msg))
	if err != nil {
		return err
	}

	if _, err = peer.endpoint.Send(raw, addr); err == nil {
		return nil
	}

	peer.filters.LogError("Peer.Send", "sending to %s: %v; recreating socket", addr, err)
	peer.endpoint.Close()
	if bindErr := peer.endpoint.Bind(peer.endpoint.addr.IP, peer.endpoint.addr.Port); bindErr != nil {
		return bindErr
	}

	_, err = peer.endpoint.Send(raw, addr)
	return err
}

// resetPingCounter marks the peer as recently heard from. Called for any
// received payload, not just PingAck.
func (peer *Peer) resetPingCounter() {
	peer.mu.Lock()
	defer peer.mu.Unlock()

	peer.PingsSinceLastResponse = 0
	peer.LastPacketIn = time.Now()
}

// ping is invoked once per sweep tick by the server's ping timer. It
// returns true if the peer should be considered dead (counter already
// past the timeout), otherwise it increments the counter and sends a Ping.
func (peer *Peer) ping() (dead bool) {
	peer.mu.Lock()
	if peer.PingsSinceLastResponse > PingFailedTimeoutCount {
		peer.mu.Unlock()
		return true
	}
	peer.PingsSinceLastResponse++
	peer.mu.Unlock()

	peer.filters.OnPing(peer)

	if err := peer.Send(&protocol.Ping{}); err != nil {
		peer.filters.LogError("Peer.ping", "sending Ping to %s: %v", peer.Address, err)
	}
	return false
}

// dispatch handles one decoded payload addressed to this peer. Core
// message types are handled here; everything else is forwarded to
// Filters.OnMessage for application-level routing.
func (peer *Peer) dispatch(msg protocol.Message, handled bool, err error) {
	if err != nil {
		peer.filters.LogError("Peer.dispatch", "decoding message from %s: %v", peer.Address, err)
		return
	}
	if !handled {
		return // unknown id; caller already routed or will log as unhandled
	}

	peer.resetPingCounter()
	peer.rearmWatchdog()

	switch m := msg.(type) {
	case *protocol.Ping:
		if err := peer.Send(&protocol.PingAck{}); err != nil {
			peer.filters.LogError("Peer.dispatch", "sending PingAck to %s: %v", peer.Address, err)
		}
	case *protocol.PingAck:
		// counter already reset above; nothing else to do
	case *protocol.Disconnect:
		peer.transitionDisconnected(m.Reason)
	default:
		peer.filters.OnMessage(peer, msg)
	}
}

// hangup performs a local, caller-initiated disconnect: best-effort notify
// the remote side, then tear down locally.
func (peer *Peer) hangup(reason string) {
	peer.Send(&protocol.Disconnect{Reason: reason})
	peer.transitionDisconnected(reason)
}

// isDisconnected reports whether the peer has already transitioned to
// Disconnected, guarding the read with peer.mu.
func (peer *Peer) isDisconnected() bool {
	peer.mu.Lock()
	defer peer.mu.Unlock()
	return peer.State == Disconnected
}

// transitionDisconnected moves the peer to Disconnected and fires
// OnDisconnect exactly once per transition.
func (peer *Peer) transitionDisconnected(reason string) {
	peer.mu.Lock()
	if peer.State == Disconnected {
		peer.mu.Unlock()
		return
	}
	peer.State = Disconnected
	peer.mu.Unlock()

	peer.stopWatchdog()
	peer.filters.OnDisconnect(peer, reason)
}

// armWatchdog (client-side peers only) restarts a timer that fires
// transitionDisconnected("No device activity") and onWatchdogExpire if no
// payload arrives within WatchdogPeriod. Each call supersedes the previous
// arm via a generation counter, so restarting the watchdog on every
// received payload is race-free without cancelling a live timer.
func (peer *Peer) armWatchdog(onExpire func()) {
	if !peer.isClientSide {
		return
	}

	peer.mu.Lock()
	peer.watchdogGeneration++
	generation := peer.watchdogGeneration
	peer.onWatchdogExpire = onExpire
	peer.mu.Unlock()

	time.AfterFunc(WatchdogPeriod, func() {
		peer.checkWatchdog(generation)
	})
}

func (peer *Peer) checkWatchdog(generation int) {
	peer.mu.Lock()
	if generation != peer.watchdogGeneration || peer.State == Disconnected {
		peer.mu.Unlock()
		return
	}
	sinceLast := time.Since(peer.LastPacketIn)
	expire := peer.onWatchdogExpire
	peer.mu.Unlock()

	if sinceLast < WatchdogPeriod {
		// traffic arrived; rearm for the remaining window
		time.AfterFunc(WatchdogPeriod-sinceLast, func() {
			peer.checkWatchdog(generation)
		})
		return
	}

	peer.transitionDisconnected("No device activity")
	if expire != nil {
		expire()
	}
}

// rearmWatchdog restarts the watchdog window on a client-side peer that
// has already been armed once; a no-op otherwise.
func (peer *Peer) rearmWatchdog() {
	peer.mu.Lock()
	expire := peer.onWatchdogExpire
	peer.mu.Unlock()

	if expire != nil {
		peer.armWatchdog(expire)
	}
}

func (peer *Peer) stopWatchdog() {
	peer.mu.Lock()
	peer.watchdogGeneration++ // invalidates any in-flight AfterFunc checks
	peer.mu.Unlock()
}
