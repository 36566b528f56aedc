package core

import (
	"net"
	"testing"
	"time"

	"github.com/tablesight/core/protocol"
)

func TestListenerReceivesAndDispatchesPayload(t *testing.T) {
	registry := protocol.AppRegistry()
	received := make(chan protocol.Message, 1)

	listener := NewListener(net.IPv4zero, 0, registry, func(sender PeerAddress, payload *protocol.Payload) bool {
		msg, handled, err := registry.Decode(payload)
		if err == nil && handled {
			received <- msg
		}
		return true
	}, &Filters{})
	if err := listener.Start(); err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	defer listener.Stop()

	raw, err := protocol.PacketConstruct(protocol.BuildPayload(&protocol.Ping{}))
	if err != nil {
		t.Fatalf("constructing packet: %v", err)
	}

	sender := NewEndpoint(50 * time.Millisecond)
	if err := sender.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("binding sender: %v", err)
	}
	defer sender.Close()

	to := PeerAddress{IPv4: 0x7F000001, Port: listener.Port()}
	if _, err := sender.Send(raw, to); err != nil {
		t.Fatalf("sending packet: %v", err)
	}

	select {
	case msg := <-received:
		if _, ok := msg.(*protocol.Ping); !ok {
			t.Fatalf("expected *protocol.Ping, got %T", msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("listener did not dispatch the received packet in time")
	}
}

func TestListenerStopIsIdempotent(t *testing.T) {
	listener := NewListener(net.IPv4zero, 0, protocol.AppRegistry(), func(PeerAddress, *protocol.Payload) bool { return true }, &Filters{})
	if err := listener.Start(); err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	listener.Stop()
	listener.Stop() // must not panic or block
}

func TestListenerPortZeroBeforeStart(t *testing.T) {
	listener := NewListener(net.IPv4zero, 0, protocol.AppRegistry(), func(PeerAddress, *protocol.Payload) bool { return true }, &Filters{})
	if listener.Port() != 0 {
		t.Fatalf("expected Port() to be 0 before Start, got %d", listener.Port())
	}
}

func TestListenerReceiverFalseStopsLoop(t *testing.T) {
	stopped := make(chan struct{})
	var once bool
	listener := NewListener(net.IPv4zero, 0, protocol.AppRegistry(), func(PeerAddress, *protocol.Payload) bool {
		if once {
			return true
		}
		once = true
		close(stopped)
		return false
	}, &Filters{})
	if err := listener.Start(); err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	defer listener.Stop()

	raw, _ := protocol.PacketConstruct(protocol.BuildPayload(&protocol.Ping{}))
	sender := NewEndpoint(50 * time.Millisecond)
	if err := sender.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("binding sender: %v", err)
	}
	defer sender.Close()

	if _, err := sender.Send(raw, PeerAddress{IPv4: 0x7F000001, Port: listener.Port()}); err != nil {
		t.Fatalf("sending packet: %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("receiver was never invoked")
	}
}
