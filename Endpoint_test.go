package core

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestEndpointBindEphemeralPort(t *testing.T) {
	e := NewEndpoint(10 * time.Millisecond)
	if err := e.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer e.Close()

	if e.Port() == 0 {
		t.Fatalf("expected a nonzero ephemeral port")
	}
}

func TestEndpointSendRecvLoopback(t *testing.T) {
	server := NewEndpoint(50 * time.Millisecond)
	if err := server.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind server: %v", err)
	}
	defer server.Close()

	client := NewEndpoint(50 * time.Millisecond)
	if err := client.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind client: %v", err)
	}
	defer client.Close()

	to := PeerAddress{IPv4: 0x7F000001, Port: server.Port()}
	if _, err := client.Send([]byte("ping"), to); err != nil {
		t.Fatalf("send: %v", err)
	}

	raw, sender, ok, hardErr := server.Recv()
	if hardErr != nil {
		t.Fatalf("recv hard error: %v", hardErr)
	}
	if !ok {
		t.Fatalf("expected a received datagram, got a timeout")
	}
	if !bytes.Equal(raw, []byte("ping")) {
		t.Fatalf("unexpected payload: %q", raw)
	}
	if sender.IPv4 != 0x7F000001 {
		t.Fatalf("unexpected sender address: %v", sender)
	}
}

func TestEndpointRecvTimeout(t *testing.T) {
	e := NewEndpoint(10 * time.Millisecond)
	if err := e.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer e.Close()

	_, _, ok, hardErr := e.Recv()
	if hardErr != nil {
		t.Fatalf("unexpected hard error on timeout: %v", hardErr)
	}
	if ok {
		t.Fatalf("expected ok=false on a silent socket")
	}
}

func TestEndpointCloseIsSafeUnbound(t *testing.T) {
	e := NewEndpoint(time.Second)
	if err := e.Close(); err != nil {
		t.Fatalf("closing an unbound endpoint should be a no-op: %v", err)
	}
}

func TestEndpointEnableBroadcast(t *testing.T) {
	e := NewEndpoint(10 * time.Millisecond)
	if err := e.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer e.Close()

	if err := e.EnableBroadcast(); err != nil {
		t.Fatalf("enabling broadcast: %v", err)
	}
}
