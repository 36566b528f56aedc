/*
File Name:  Filter.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Filters allow the caller to intercept events. The filter functions must
not modify any data passed to them, and if they take a long time, they
should start a goroutine rather than block the caller.
*/

package core

// Filters contains all hook functions the host application may install.
// Use nil (the zero value) for any hook it does not care about; initFilters
// fills every unset hook with a no-op so call sites never need a nil check.
type Filters struct {
	// OnServerConnect fires on the server side when a peer transitions
	// Disconnected -> Connected (an Advertise was received and acknowledged).
	OnServerConnect func(peer *Peer)

	// OnClientConnect fires on the client side when an AdvertiseAck is
	// received from the server and the client transitions to Connected.
	OnClientConnect func(peer *Peer)

	// OnDisconnect fires whenever a peer transitions Connected -> Disconnected,
	// for any reason (explicit Disconnect, ping timeout, watchdog, local hangup).
	OnDisconnect func(peer *Peer, reason string)

	// OnMessage is a high-level filter for any decoded message handed to a
	// peer's dispatch loop, core or application-defined.
	OnMessage func(peer *Peer, msg interface{})

	// OnPing fires each time the watchdog sweep probes a connected peer
	// with a Ping, before the reply is known.
	OnPing func(peer *Peer)

	// LogError is called for any error the core itself does not escalate.
	LogError func(function, format string, v ...interface{})
}

// initFilters replaces every unset hook with a blank no-op.
func (f *Filters) initFilters() {
	if f.OnServerConnect == nil {
		f.OnServerConnect = func(peer *Peer) {}
	}
	if f.OnClientConnect == nil {
		f.OnClientConnect = func(peer *Peer) {}
	}
	if f.OnDisconnect == nil {
		f.OnDisconnect = func(peer *Peer, reason string) {}
	}
	if f.OnMessage == nil {
		f.OnMessage = func(peer *Peer, msg interface{}) {}
	}
	if f.OnPing == nil {
		f.OnPing = func(peer *Peer) {}
	}
	if f.LogError == nil {
		f.LogError = func(function, format string, v ...interface{}) {}
	}
}
