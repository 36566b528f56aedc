/*
File Name:  Advertiser.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/tablesight/core/protocol"
)

// AdvertiserInterval is the default period between broadcast Advertise
// packets.
const AdvertiserInterval = 1 * time.Second

// advertiserCancelPoll bounds shutdown latency: the advertiser loop checks
// the cancel flag at least this often between sends.
const advertiserCancelPoll = 10 * time.Millisecond

// Advertiser states, explicit so Stop can wait for a clean Stopped before
// the caller frees resources.
const (
	AdvertiserStarting = iota
	AdvertiserActive
	AdvertiserStopping
	AdvertiserStopped
)

// Advertiser owns a broadcast-enabled Endpoint and periodically announces
// a client's control port on the discovery port, until a server answers
// and Stop is called.
type Advertiser struct {
	controlPort   uint16
	discoveryPort int
	unicastHints  []*net.UDPAddr // address-book hints tried once, in addition to the broadcast

	endpoint *Endpoint
	filters  *Filters
	state    int32
	cancel   int32
	stopped  chan struct{}
}

// NewAdvertiser creates an Advertiser that will broadcast Advertise{controlPort}
// on discoveryPort. unicastHints, if non-empty, are each sent one extra
// unicast Advertise on the first tick (the address-book-assisted reconnect).
func NewAdvertiser(controlPort uint16, discoveryPort int, unicastHints []*net.UDPAddr, filters *Filters) *Advertiser {
	return &Advertiser{
		controlPort:   controlPort,
		discoveryPort: discoveryPort,
		unicastHints:  unicastHints,
		filters:       filters,
		state:         AdvertiserStarting,
		stopped:       make(chan struct{}),
	}
}

// Start binds the broadcast socket and launches the background loop.
func (a *Advertiser) Start() error {
	a.endpoint = NewEndpoint(advertiserCancelPoll)
	if err := a.endpoint.Bind(net.IPv4zero, 0); err != nil {
		return err
	}
	if err := a.endpoint.EnableBroadcast(); err != nil {
		a.filters.LogError("Advertiser.Start", "enabling broadcast: %v", err)
	}

	atomic.StoreInt32(&a.state, AdvertiserActive)
	go a.run()
	return nil
}

// State returns the current lifecycle state (AdvertiserStarting..Stopped).
func (a *Advertiser) State() int32 {
	return atomic.LoadInt32(&a.state)
}

// Stop requests the loop to exit and blocks until it reports Stopped.
func (a *Advertiser) Stop() {
	if !atomic.CompareAndSwapInt32(&a.cancel, 0, 1) {
		return
	}
	atomic.StoreInt32(&a.state, AdvertiserStopping)
	<-a.stopped
	if a.endpoint != nil {
		a.endpoint.Close()
	}
	atomic.StoreInt32(&a.state, AdvertiserStopped)
}

func (a *Advertiser) run() {
	defer close(a.stopped)

	a.tick(true)

	last := time.Now()
	for atomic.LoadInt32(&a.cancel) == 0 {
		time.Sleep(advertiserCancelPoll)
		if time.Since(last) < AdvertiserInterval {
			continue
		}
		last = time.Now()
		a.tick(false)
	}
}

func (a *Advertiser) tick(first bool) {
	payload := protocol.BuildPayload(&protocol.Advertise{ControlPort: a.controlPort})
	raw, err := protocol.PacketConstruct(payload)
	if err != nil {
		a.filters.LogError("Advertiser.tick", "constructing Advertise: %v", err)
		return
	}

	broadcast := &net.UDPAddr{IP: net.IPv4bcast, Port: a.discoveryPort}
	if _, err := a.endpoint.SendTo(raw, broadcast); err != nil {
		a.filters.LogError("Advertiser.tick", "sending broadcast Advertise: %v", err)
		a.recreateSocket()
	}

	if first {
		for _, hint := range a.unicastHints {
			if _, err := a.endpoint.SendTo(raw, hint); err != nil {
				a.filters.LogError("Advertiser.tick", "sending unicast Advertise to %s: %v", hint, err)
			}
		}
	}
}

// recreateSocket closes and rebinds the broadcast socket on send error;
// per the error model the advertiser never gives up.
func (a *Advertiser) recreateSocket() {
	a.endpoint.Close()
	if err := a.endpoint.Bind(net.IPv4zero, 0); err != nil {
		a.filters.LogError("Advertiser.recreateSocket", "rebinding: %v", err)
		return
	}
	if err := a.endpoint.EnableBroadcast(); err != nil {
		a.filters.LogError("Advertiser.recreateSocket", "enabling broadcast: %v", err)
	}
}
