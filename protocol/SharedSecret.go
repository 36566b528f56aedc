/*
File Name:  SharedSecret.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package protocol

// SharedSecret is mixed into every packet signature (see Digest in
// Packet.go). It binds a build to compatible peer builds; it is not a
// substitute for real cryptographic identity and is not meant to be kept
// confidential from anyone who has this source code.
const SharedSecret = "tablesight-wire-v1"
