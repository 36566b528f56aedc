package core

import (
	"net"
	"testing"
	"time"

	"github.com/tablesight/core/protocol"
)

func TestAdvertiserSendsUnicastHintOnFirstTick(t *testing.T) {
	hintEndpoint := NewEndpoint(200 * time.Millisecond)
	if err := hintEndpoint.Bind(net.IPv4zero, 0); err != nil {
		t.Fatalf("binding hint listener: %v", err)
	}
	defer hintEndpoint.Close()

	hint := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(hintEndpoint.Port())}

	advertiser := NewAdvertiser(54671, 59999, []*net.UDPAddr{hint}, &Filters{})
	if err := advertiser.Start(); err != nil {
		t.Fatalf("starting advertiser: %v", err)
	}
	defer advertiser.Stop()

	raw, _, ok, hardErr := hintEndpoint.Recv()
	if hardErr != nil {
		t.Fatalf("recv hard error: %v", hardErr)
	}
	if !ok {
		t.Fatalf("expected the advertiser to unicast an Advertise to the hint address")
	}

	payload, err := protocol.PacketDeconstruct(raw)
	if err != nil {
		t.Fatalf("deconstructing packet: %v", err)
	}
	registry := protocol.AppRegistry()
	msg, handled, err := registry.Decode(payload)
	if err != nil || !handled {
		t.Fatalf("decoding Advertise: handled=%v err=%v", handled, err)
	}
	advertise, ok := msg.(*protocol.Advertise)
	if !ok {
		t.Fatalf("expected *protocol.Advertise, got %T", msg)
	}
	if advertise.ControlPort != 54671 {
		t.Fatalf("expected ControlPort 54671, got %d", advertise.ControlPort)
	}
}

func TestAdvertiserStateTransitionsOnStartStop(t *testing.T) {
	advertiser := NewAdvertiser(1234, 59998, nil, &Filters{})
	if advertiser.State() != AdvertiserStarting {
		t.Fatalf("expected AdvertiserStarting before Start, got %d", advertiser.State())
	}
	if err := advertiser.Start(); err != nil {
		t.Fatalf("starting advertiser: %v", err)
	}
	if advertiser.State() != AdvertiserActive {
		t.Fatalf("expected AdvertiserActive after Start, got %d", advertiser.State())
	}

	advertiser.Stop()
	if advertiser.State() != AdvertiserStopped {
		t.Fatalf("expected AdvertiserStopped after Stop, got %d", advertiser.State())
	}
}

func TestAdvertiserStopIsIdempotent(t *testing.T) {
	advertiser := NewAdvertiser(1234, 59997, nil, &Filters{})
	if err := advertiser.Start(); err != nil {
		t.Fatalf("starting advertiser: %v", err)
	}
	advertiser.Stop()
	advertiser.Stop() // must not block or panic
}
