/*
File Name:  Listener.go
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

// receiveTimeout is how long Endpoint.Recv blocks before returning a
// timeout, i.e. the listener's cooperative polling interval.
const receiveTimeout = 15 * time.Millisecond

// stopWaitIterations bounds how long Stop waits for the task loop to
// notice the stop flag and exit: receiveTimeout * stopWaitIterations.
const stopWaitIterations = 4

// Receiver handles one decoded payload from sender. Returning false tells
// the Listener to stop.
type Receiver func(sender PeerAddress, payload *protocol.Payload) bool

// Listener owns one Endpoint and one background task driving it: receive,
// deconstruct, dispatch to Receiver, repeat, until stopped or the receiver
// itself requests a stop.
type Listener struct {
	ip       net.IP
	port     int
	registry *protocol.Registry
	receive  Receiver
	filters  *Filters

	endpoint *Endpoint
	stopping int32
	stopped  chan struct{}
}

// NewListener creates a listener bound to ip:port (port 0 = ephemeral).
func NewListener(ip net.IP, port int, registry *protocol.Registry, receive Receiver, filters *Filters) *Listener {
	return &Listener{
		ip:       ip,
		port:     port,
		registry: registry,
		receive:  receive,
		filters:  filters,
		stopped:  make(chan struct{}),
	}
}

// Start binds the endpoint and launches the background task.
func (l *Listener) Start() error {
	l.endpoint = NewEndpoint(receiveTimeout)
	if err := l.endpoint.Bind(l.ip, l.port); err != nil {
		return err
	}
	go l.run()
	return nil
}

// Port returns the bound local port once Start has succeeded.
func (l *Listener) Port() uint16 {
	if l.endpoint == nil {
		return 0
	}
	return l.endpoint.Port()
}

// Stop requests the task loop to exit and waits a bounded time for
// confirmation. It is safe to call Stop more than once.
func (l *Listener) Stop() {
	if !atomic.CompareAndSwapInt32(&l.stopping, 0, 1) {
		return
	}

	select {
	case <-l.stopped:
	case <-time.After(receiveTimeout * stopWaitIterations):
	}

	if l.endpoint != nil {
		l.endpoint.Close()
	}
}

func (l *Listener) run() {
	defer close(l.stopped)

	for atomic.LoadInt32(&l.stopping) == 0 {
		raw, sender, ok, hardErr := l.endpoint.Recv()

		if hardErr != nil {
			l.filters.LogError("Listener.run", "receiving UDP message: %v", hardErr)
			l.endpoint.Close()
			if err := l.endpoint.Bind(l.ip, l.port); err != nil {
				l.filters.LogError("Listener.run", "recreating socket: %v", err)
				time.Sleep(receiveTimeout)
			}
			continue
		}

		if !ok {
			continue // timeout, loop and re-check the stop flag
		}

		payload, err := protocol.PacketDeconstruct(raw)
		if err != nil {
			l.filters.LogError("Listener.run", "deconstructing packet from %s: %v", sender, err)
			continue
		}

		if !l.receive(sender, payload) {
			return
		}
	}
}
