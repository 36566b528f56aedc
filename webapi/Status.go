/*
File Name:  Status.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package webapi

import (
	"net/http"
	"time"

	"github.com/tablesight/core"
)

type apiResponseStatus struct {
	CountPeers int `json:"countpeers"` // Number of peers currently in the Connected state.
}

// apiStatus reports coarse connectivity.
//
// Request:  GET /status
// Response: 200 with apiResponseStatus
func (api *WebapiInstance) apiStatus(w http.ResponseWriter, r *http.Request) {
	encodeJSON(w, r, api.logError, apiResponseStatus{CountPeers: len(api.peers.Peers())})
}

type apiPeer struct {
	Address                string    `json:"address"`
	State                  int       `json:"state"`
	PingsSinceLastResponse uint32    `json:"pingssincelastresponse"`
	LastPacketIn           time.Time `json:"lastpacketin"`
}

func toAPIPeer(peer *core.Peer) apiPeer {
	return apiPeer{
		Address:                peer.Address.String(),
		State:                  peer.State,
		PingsSinceLastResponse: peer.PingsSinceLastResponse,
		LastPacketIn:           peer.LastPacketIn,
	}
}

// apiStatusPeers lists the current peer table.
//
// Request:  GET /status/peers
// Response: 200 with a JSON array of apiPeer
func (api *WebapiInstance) apiStatusPeers(w http.ResponseWriter, r *http.Request) {
	peers := api.peers.Peers()
	out := make([]apiPeer, 0, len(peers))
	for _, peer := range peers {
		out = append(out, toAPIPeer(peer))
	}
	encodeJSON(w, r, api.logError, out)
}

// peerEventKind distinguishes the three peer lifecycle events a status
// stream subscriber may receive.
type peerEventKind string

const (
	peerEventConnect    peerEventKind = "connect"
	peerEventDisconnect peerEventKind = "disconnect"
	peerEventPing       peerEventKind = "ping"
)

type peerEvent struct {
	Kind    peerEventKind `json:"kind"`
	Peer    apiPeer       `json:"peer"`
	Reason  string        `json:"reason,omitempty"`
	AtLocal time.Time     `json:"at"`
}

// NotifyConnect broadcasts a connect event to every subscribed websocket.
// Wire this into Filters.OnServerConnect / Filters.OnClientConnect.
func (api *WebapiInstance) NotifyConnect(peer *core.Peer) {
	api.broadcast(peerEvent{Kind: peerEventConnect, Peer: toAPIPeer(peer), AtLocal: peer.LastPacketIn})
}

// NotifyDisconnect broadcasts a disconnect event. Wire this into
// Filters.OnDisconnect.
func (api *WebapiInstance) NotifyDisconnect(peer *core.Peer, reason string) {
	api.broadcast(peerEvent{Kind: peerEventDisconnect, Peer: toAPIPeer(peer), Reason: reason, AtLocal: peer.LastPacketIn})
}

// NotifyPing broadcasts a ping event each time a peer is probed by the
// watchdog sweep. Wire this into Filters.OnPing.
func (api *WebapiInstance) NotifyPing(peer *core.Peer) {
	api.broadcast(peerEvent{Kind: peerEventPing, Peer: toAPIPeer(peer), AtLocal: time.Now()})
}

func (api *WebapiInstance) broadcast(event peerEvent) {
	api.subscribersMu.Lock()
	defer api.subscribersMu.Unlock()

	for ch := range api.subscribers {
		select {
		case ch <- event:
		default: // slow subscriber; drop rather than block the caller
		}
	}
}

// apiStatusPeersStream upgrades to a websocket and streams peer connect,
// disconnect, and ping events as they happen.
//
// Request:  GET /status/peers/ws
// Response: upgrades to a websocket; sends JSON peerEvent messages
func (api *WebapiInstance) apiStatusPeersStream(w http.ResponseWriter, r *http.Request) {
	conn, err := WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan peerEvent, 16)
	api.subscribersMu.Lock()
	api.subscribers[ch] = struct{}{}
	api.subscribersMu.Unlock()

	defer func() {
		api.subscribersMu.Lock()
		delete(api.subscribers, ch)
		api.subscribersMu.Unlock()
		close(ch)
	}()

	for event := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
