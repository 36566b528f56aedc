/*
File Name:  Version.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

// Version is the current core library version.
const Version = "0.1"

// DefaultDiscoveryPort is the well-known UDP port servers listen on for
// broadcast Advertise packets.
const DefaultDiscoveryPort = 54670

// DefaultControlPort is the well-known UDP port servers listen on for
// unicast control-channel traffic once a peer is paired.
const DefaultControlPort = 54671

// DefaultClientControlPort is the client-side control port, fixed at
// server-control + 10 by convention so both can coexist on one host.
const DefaultClientControlPort = DefaultControlPort + 10
