package core

import (
	"net"
	"testing"
	"time"

	"github.com/tablesight/core/protocol"
)

func TestPeerSendFailsWhenNotConnected(t *testing.T) {
	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, &Filters{}, false)
	peer.filters.initFilters()
	peer.State = Disconnected

	if err := peer.Send(&protocol.Ping{}); err != ErrPeerNotConnected {
		t.Fatalf("expected ErrPeerNotConnected, got %v", err)
	}
}

func TestPeerPingIncrementsCounterUntilThreshold(t *testing.T) {
	endpoint := NewEndpoint(50 * time.Millisecond)
	if err := endpoint.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer endpoint.Close()

	filters := &Filters{}
	filters.initFilters()
	peer := newPeer(PeerAddress{IPv4: 0x7F000001, Port: endpoint.Port()}, endpoint, protocol.AppRegistry(), filters, false)

	for i := 0; i < PingFailedTimeoutCount; i++ {
		if dead := peer.ping(); dead {
			t.Fatalf("peer declared dead too early, at ping %d", i)
		}
	}
	if peer.PingsSinceLastResponse != PingFailedTimeoutCount {
		t.Fatalf("expected counter at %d, got %d", PingFailedTimeoutCount, peer.PingsSinceLastResponse)
	}

	if dead := peer.ping(); dead {
		t.Fatalf("one more ping should still not cross the threshold")
	}
	if dead := peer.ping(); !dead {
		t.Fatalf("expected the peer to be declared dead past the timeout count")
	}
}

func TestPeerPingInvokesOnPingHook(t *testing.T) {
	endpoint := NewEndpoint(50 * time.Millisecond)
	if err := endpoint.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer endpoint.Close()

	pinged := make(chan *Peer, 1)
	filters := &Filters{OnPing: func(peer *Peer) { pinged <- peer }}
	filters.initFilters()
	peer := newPeer(PeerAddress{IPv4: 0x7F000001, Port: endpoint.Port()}, endpoint, protocol.AppRegistry(), filters, false)

	if dead := peer.ping(); dead {
		t.Fatalf("peer should not be dead on the first ping")
	}

	select {
	case got := <-pinged:
		if got != peer {
			t.Fatalf("expected OnPing to receive the pinged peer itself")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("expected OnPing to fire synchronously during ping()")
	}
}

func TestPeerResetPingCounter(t *testing.T) {
	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, &Filters{}, false)
	peer.filters.initFilters()
	peer.PingsSinceLastResponse = 7

	peer.resetPingCounter()

	if peer.PingsSinceLastResponse != 0 {
		t.Fatalf("expected counter reset to 0, got %d", peer.PingsSinceLastResponse)
	}
	if time.Since(peer.LastPacketIn) > time.Second {
		t.Fatalf("expected LastPacketIn to be refreshed")
	}
}

func TestPeerDispatchPingRepliesWithPingAck(t *testing.T) {
	registry := protocol.AppRegistry()

	serverSide := NewEndpoint(50 * time.Millisecond)
	if err := serverSide.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind server side: %v", err)
	}
	defer serverSide.Close()

	clientSide := NewEndpoint(50 * time.Millisecond)
	if err := clientSide.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind client side: %v", err)
	}
	defer clientSide.Close()

	filters := &Filters{}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 0x7F000001, Port: clientSide.Port()}, serverSide, registry, filters, false)
	peer.dispatch(&protocol.Ping{}, true, nil)

	raw, _, ok, hardErr := clientSide.Recv()
	if hardErr != nil {
		t.Fatalf("recv hard error: %v", hardErr)
	}
	if !ok {
		t.Fatalf("expected a PingAck datagram")
	}

	payload, err := protocol.PacketDeconstruct(raw)
	if err != nil {
		t.Fatalf("deconstructing packet: %v", err)
	}
	msg, handled, err := registry.Decode(payload)
	if err != nil || !handled {
		t.Fatalf("decoding PingAck: handled=%v err=%v", handled, err)
	}
	if _, ok := msg.(*protocol.PingAck); !ok {
		t.Fatalf("expected *protocol.PingAck, got %T", msg)
	}
}

func TestPeerDispatchDisconnectTransitionsState(t *testing.T) {
	var gotReason string
	filters := &Filters{
		OnDisconnect: func(peer *Peer, reason string) { gotReason = reason },
	}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, false)
	peer.dispatch(&protocol.Disconnect{Reason: "bye"}, true, nil)

	if peer.State != Disconnected {
		t.Fatalf("expected state Disconnected after Disconnect dispatch")
	}
	if gotReason != "bye" {
		t.Fatalf("expected OnDisconnect reason %q, got %q", "bye", gotReason)
	}
}

func TestPeerTransitionDisconnectedFiresOnce(t *testing.T) {
	calls := 0
	filters := &Filters{
		OnDisconnect: func(peer *Peer, reason string) { calls++ },
	}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, false)
	peer.transitionDisconnected("first")
	peer.transitionDisconnected("second")

	if calls != 1 {
		t.Fatalf("expected OnDisconnect to fire exactly once, fired %d times", calls)
	}
}

func TestPeerDispatchUnknownMessageGoesToOnMessage(t *testing.T) {
	var got interface{}
	filters := &Filters{
		OnMessage: func(peer *Peer, msg interface{}) { got = msg },
	}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, false)
	report := &protocol.ScanReport{SequenceNumber: 5}
	peer.dispatch(report, true, nil)

	if got != report {
		t.Fatalf("expected OnMessage to receive the dispatched message")
	}
}

func TestPeerWatchdogExpiresWhenSilent(t *testing.T) {
	filters := &Filters{}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, true)
	expired := make(chan struct{})
	peer.armWatchdog(func() { close(expired) })

	peer.mu.Lock()
	peer.LastPacketIn = time.Now().Add(-WatchdogPeriod - time.Second)
	generation := peer.watchdogGeneration
	peer.mu.Unlock()

	peer.checkWatchdog(generation)

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expected the watchdog expiry callback to fire")
	}
	if peer.State != Disconnected {
		t.Fatalf("expected state Disconnected after watchdog expiry")
	}
}

func TestPeerWatchdogDoesNotExpireWithRecentTraffic(t *testing.T) {
	filters := &Filters{}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, true)
	expired := make(chan struct{})
	peer.armWatchdog(func() { close(expired) })

	generation := peer.watchdogGeneration
	peer.checkWatchdog(generation) // LastPacketIn was just set by newPeer; should reschedule, not expire

	select {
	case <-expired:
		t.Fatalf("did not expect the watchdog to fire immediately after fresh traffic")
	case <-time.After(50 * time.Millisecond):
	}
	if peer.State != Connected {
		t.Fatalf("expected state to remain Connected")
	}
}

func TestPeerStopWatchdogInvalidatesPendingCheck(t *testing.T) {
	filters := &Filters{}
	filters.initFilters()

	peer := newPeer(PeerAddress{IPv4: 1, Port: 1}, nil, nil, filters, true)
	expired := make(chan struct{})
	peer.armWatchdog(func() { close(expired) })

	staleGeneration := peer.watchdogGeneration
	peer.stopWatchdog()

	peer.mu.Lock()
	peer.LastPacketIn = time.Now().Add(-WatchdogPeriod - time.Second)
	peer.mu.Unlock()

	peer.checkWatchdog(staleGeneration)

	select {
	case <-expired:
		t.Fatalf("a stopped watchdog generation should not fire expiry")
	case <-time.After(50 * time.Millisecond):
	}
}
