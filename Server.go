/*
File Name:  Server.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	"net"
	"sync"
	"time"

	"github.com/tablesight/core/protocol"
)

// pingSweepInterval is the server's global ping timer tick rate.
const pingSweepInterval = 1 * time.Second

// Server owns the discovery and control listeners, the peer table, and
// the 1 Hz ping sweep. Construct one with NewServer, call Start, and Stop
// it when done.
type Server struct {
	DiscoveryPort uint16
	ControlPort   uint16
	Registry      *protocol.Registry
	Filters       *Filters

	// ServerPeerFactory, if set, is invoked once on Start to build an
	// application-level object that routes payloads not handled by the
	// protocol core (scan reports, metadata, and so on). Accessible
	// afterward via ServerPeer.
	ServerPeerFactory func() interface{}
	ServerPeer        interface{}

	discoveryListener *Listener
	controlListener   *Listener

	peersMu sync.Mutex
	peers   map[uint32]*Peer

	pingStop chan struct{}
	stopOnce sync.Once
}

// NewServer constructs a Server ready to Start. filters may be the zero
// value; its hooks are defaulted to no-ops.
func NewServer(discoveryPort, controlPort uint16, registry *protocol.Registry, filters *Filters) *Server {
	filters.initFilters()
	return &Server{
		DiscoveryPort: discoveryPort,
		ControlPort:   controlPort,
		Registry:      registry,
		Filters:       filters,
		peers:         make(map[uint32]*Peer),
	}
}

// Start binds the control and discovery listeners and begins the ping
// sweep. Returns ExitErrorBind if either listener fails to bind.
func (s *Server) Start() (status int, err error) {
	s.controlListener = NewListener(net.IPv4zero, int(s.ControlPort), s.Registry, s.onControlPacket, s.Filters)
	if err = s.controlListener.Start(); err != nil {
		return ExitErrorBind, err
	}

	s.discoveryListener = NewListener(net.IPv4zero, int(s.DiscoveryPort), s.Registry, s.onDiscoveryPacket, s.Filters)
	if err = s.discoveryListener.Start(); err != nil {
		s.controlListener.Stop()
		return ExitErrorBind, err
	}

	if s.ServerPeerFactory != nil {
		s.ServerPeer = s.ServerPeerFactory()
	}

	s.pingStop = make(chan struct{})
	go s.pingSweep()

	return ExitSuccess, nil
}

// Stop cancels the ping timer, stops both listeners, then notifies and
// removes every peer in the table.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.pingStop != nil {
			close(s.pingStop)
		}
		if s.discoveryListener != nil {
			s.discoveryListener.Stop()
		}
		if s.controlListener != nil {
			s.controlListener.Stop()
		}

		s.peersMu.Lock()
		peers := make([]*Peer, 0, len(s.peers))
		for _, peer := range s.peers {
			peers = append(peers, peer)
		}
		s.peers = make(map[uint32]*Peer)
		s.peersMu.Unlock()

		for _, peer := range peers {
			peer.hangup("Device shutting down")
		}
	})
}

// onDiscoveryPacket handles an Advertise received on the discovery
// listener: record the peer, reply with AdvertiseAck on its control port.
func (s *Server) onDiscoveryPacket(sender PeerAddress, payload *protocol.Payload) bool {
	msg, handled, err := s.Registry.Decode(payload)
	if err != nil {
		s.Filters.LogError("Server.onDiscoveryPacket", "decoding from %s: %v", sender, err)
		return true
	}
	if !handled {
		return true
	}

	advertise, ok := msg.(*protocol.Advertise)
	if !ok {
		return true
	}

	peerAddr := sender
	peerAddr.Port = advertise.ControlPort

	peer := s.addPeer(peerAddr)
	if err := peer.Send(&protocol.AdvertiseAck{ControlPort: s.ControlPort}); err != nil {
		s.Filters.LogError("Server.onDiscoveryPacket", "sending AdvertiseAck to %s: %v", peerAddr, err)
	}
	s.Filters.OnServerConnect(peer)

	return true
}

// onControlPacket handles all non-discovery traffic from a known peer.
func (s *Server) onControlPacket(sender PeerAddress, payload *protocol.Payload) bool {
	peer := s.findPeerByAddress(sender)
	if peer == nil {
		// Traffic from an address not in the peer table (e.g. after a
		// restart). Treat an Advertise the same as the discovery path;
		// anything else is dropped, matching the silent-drop error model.
		msg, handled, err := s.Registry.Decode(payload)
		if err == nil && handled {
			if advertise, ok := msg.(*protocol.Advertise); ok {
				peerAddr := sender
				peerAddr.Port = advertise.ControlPort
				peer = s.addPeer(peerAddr)
				s.Filters.OnServerConnect(peer)
			}
		}
		if peer == nil {
			return true
		}
	}

	msg, handled, err := s.Registry.Decode(payload)
	peer.dispatch(msg, handled, err)
	return true
}

// addPeer inserts a peer for addr, first removing any existing entry for
// the same address without calling its disconnect hook (the old entry is
// presumed stale; this is deliberate, per the design notes).
func (s *Server) addPeer(addr PeerAddress) *Peer {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	delete(s.peers, addr.IPv4)

	peer := newPeer(addr, s.controlListener.endpoint, s.Registry, s.Filters, false)
	s.peers[addr.IPv4] = peer
	return peer
}

// findPeerByAddress does a full-table scan. Acceptable at the expected
// scale (tens of clients).
func (s *Server) findPeerByAddress(addr PeerAddress) *Peer {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	return s.peers[addr.IPv4]
}

// Peers returns a snapshot of the current peer table.
func (s *Server) Peers() []*Peer {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	out := make([]*Peer, 0, len(s.peers))
	for _, peer := range s.peers {
		out = append(out, peer)
	}
	return out
}

func (s *Server) pingSweep() {
	ticker := time.NewTicker(pingSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.pingStop:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Server) sweepOnce() {
	s.peersMu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, peer := range s.peers {
		peers = append(peers, peer)
	}
	s.peersMu.Unlock()

	for _, peer := range peers {
		if peer.ping() {
			s.peersMu.Lock()
			delete(s.peers, peer.Address.IPv4)
			s.peersMu.Unlock()
			peer.transitionDisconnected("Connection timed out")
		}
	}
}
