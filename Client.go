/*
File Name:  Client.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

import (
	"net"

	"github.com/tablesight/core/protocol"
)

// Client pairs with exactly one server: it advertises on the discovery
// port until an AdvertiseAck arrives, then holds a single connected Peer
// representing that server.
type Client struct {
	DiscoveryPort uint16
	ControlPort   uint16 // local control port to listen on (0 = ephemeral)
	Registry      *protocol.Registry
	Filters       *Filters

	// OnConfigListRequest is called once the server connects, so the
	// caller can kick off a config-sync request over the new connection.
	OnConfigListRequest func(server *Peer)

	// ServerHints are unicast "ip:port" addresses (usually the address
	// book's last-known-working server) tried once in addition to the
	// broadcast Advertise on startup.
	ServerHints []*net.UDPAddr

	controlListener *Listener
	advertiser      *Advertiser

	server *Peer
}

// NewClient constructs a Client ready to Start.
func NewClient(discoveryPort, controlPort uint16, registry *protocol.Registry, filters *Filters) *Client {
	filters.initFilters()
	return &Client{
		DiscoveryPort: discoveryPort,
		ControlPort:   controlPort,
		Registry:      registry,
		Filters:       filters,
	}
}

// Start binds the control listener and begins advertising for a server.
func (c *Client) Start() (status int, err error) {
	c.controlListener = NewListener(net.IPv4zero, int(c.ControlPort), c.Registry, c.onControlPacket, c.Filters)
	if err = c.controlListener.Start(); err != nil {
		return ExitErrorBind, err
	}

	c.startAdvertiser()

	return ExitSuccess, nil
}

// Stop stops the advertiser (if running) and control listener, and, if
// connected, hangs up on the server.
func (c *Client) Stop() {
	if c.advertiser != nil && c.advertiser.State() == AdvertiserActive {
		c.advertiser.Stop()
	}
	if c.server != nil {
		c.server.hangup("Client shutting down")
	}
	if c.controlListener != nil {
		c.controlListener.Stop()
	}
}

// Server returns the current server peer, or nil before the first
// AdvertiseAck is received.
func (c *Client) Server() *Peer {
	return c.server
}

func (c *Client) startAdvertiser() {
	c.advertiser = NewAdvertiser(c.controlListener.Port(), int(c.DiscoveryPort), c.ServerHints, c.Filters)
	if err := c.advertiser.Start(); err != nil {
		c.Filters.LogError("Client.startAdvertiser", "starting advertiser: %v", err)
	}
}

func (c *Client) onControlPacket(sender PeerAddress, payload *protocol.Payload) bool {
	msg, handled, err := c.Registry.Decode(payload)

	if c.server == nil {
		if err != nil {
			c.Filters.LogError("Client.onControlPacket", "decoding from %s: %v", sender, err)
			return true
		}
		if !handled {
			return true
		}

		ack, ok := msg.(*protocol.AdvertiseAck)
		if !ok {
			return true // only AdvertiseAck may establish the first connection
		}

		peerAddr := sender
		peerAddr.Port = ack.ControlPort

		c.server = newPeer(peerAddr, c.controlListener.endpoint, c.Registry, c.Filters, true)
		if c.advertiser != nil {
			c.advertiser.Stop()
		}
		c.server.armWatchdog(c.startAdvertiser)
		c.Filters.OnClientConnect(c.server)

		if c.OnConfigListRequest != nil {
			c.OnConfigListRequest(c.server)
		}
		return true
	}

	if !sender.Equal(c.server.Address) {
		return true // ignore traffic from anyone but the paired server
	}

	c.server.dispatch(msg, handled, err)

	if c.server.isDisconnected() {
		// transitionDisconnected already ran OnDisconnect; clear the
		// handle so a fresh Advertise/AdvertiseAck cycle can reconnect.
		c.server = nil
	}

	return true
}
