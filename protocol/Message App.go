/*
File Name:  Message App.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Application messages. These sit outside the protocol core (section 4.5 of
the design calls them "carried identically") but are registered the same
way as the core five. The vision pipeline that produces scan reports, the
UI that renders viewport frames, and the on-disk deck format are all out of
scope here — this file only defines the typed envelopes that carry their
opaque byte payloads across the wire.
*/

package protocol

// Stable identifiers for application message types.
const (
	ScanReportID     = "A1B2C3D4-0001-4000-8000-000000000001"
	MetadataID       = "A1B2C3D4-0002-4000-8000-000000000002"
	ViewportFrameID  = "A1B2C3D4-0003-4000-8000-000000000003"
	PerfStatsID      = "A1B2C3D4-0004-4000-8000-000000000004"
	ServerConnectID  = "A1B2C3D4-0005-4000-8000-000000000005"
	CommandMessageID = "A1B2C3D4-0006-4000-8000-000000000006"
)

// ScanReport carries a single vision-pipeline result. The card/deck decoding
// format itself is out of scope; this is an opaque, versioned blob plus a
// small amount of routing metadata the core can reason about.
type ScanReport struct {
	SequenceNumber uint32
	Data           []byte
}

func (m *ScanReport) PayloadID() PayloadInfo {
	return PayloadInfo{Version: 0, ID: ScanReportID}
}

func (m *ScanReport) Encode() []byte {
	var out []byte
	out = EncodeUint32(out, m.SequenceNumber)
	out, _ = EncodeBytes(out, m.Data)
	return out
}

func decodeScanReport(data []byte) (Message, error) {
	cursor := 0
	seq, ok := DecodeUint32(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	body, ok := DecodeBytes(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &ScanReport{SequenceNumber: seq, Data: body}, nil
}

// Metadata is a free-form key/value announcement (device name, deck
// identifier, table ID, and similar low-churn facts about the server).
type Metadata struct {
	Fields map[string]string
}

func (m *Metadata) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: MetadataID} }

func (m *Metadata) Encode() []byte {
	var out []byte
	out, _ = EncodeStringMap(out, m.Fields)
	return out
}

func decodeMetadata(data []byte) (Message, error) {
	cursor := 0
	fields, ok := DecodeStringMap(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &Metadata{Fields: fields}, nil
}

// ViewportFrame carries a single rendered preview frame for a live viewer.
// Width/Height let a viewer allocate a correctly sized buffer before the
// image bytes are unpacked by the UI layer (out of scope here).
type ViewportFrame struct {
	Width, Height uint16
	Image         []byte
}

func (m *ViewportFrame) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: ViewportFrameID} }

func (m *ViewportFrame) Encode() []byte {
	var out []byte
	out = EncodeUint16(out, m.Width)
	out = EncodeUint16(out, m.Height)
	out, _ = EncodeBytes(out, m.Image)
	return out
}

func decodeViewportFrame(data []byte) (Message, error) {
	cursor := 0
	width, ok := DecodeUint16(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	height, ok := DecodeUint16(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	image, ok := DecodeBytes(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &ViewportFrame{Width: width, Height: height, Image: image}, nil
}

// PerfStats reports lightweight server performance counters to connected
// viewers (frames per second, scan latency, dropped-frame count).
type PerfStats struct {
	FramesPerSecond float64
	ScanLatencyMs   float64
	DroppedFrames   uint32
}

func (m *PerfStats) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: PerfStatsID} }

func (m *PerfStats) Encode() []byte {
	var out []byte
	out = EncodeFloat64(out, m.FramesPerSecond)
	out = EncodeFloat64(out, m.ScanLatencyMs)
	out = EncodeUint32(out, m.DroppedFrames)
	return out
}

func decodePerfStats(data []byte) (Message, error) {
	cursor := 0
	fps, ok := DecodeFloat64(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	latency, ok := DecodeFloat64(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	dropped, ok := DecodeUint32(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &PerfStats{FramesPerSecond: fps, ScanLatencyMs: latency, DroppedFrames: dropped}, nil
}

// ServerConnect is the banner a server sends a client immediately after
// AdvertiseAck: a human-readable name plus a map of component name to
// version string, so a client can surface compatibility warnings.
type ServerConnect struct {
	ServerName string
	Versions   map[string]string
}

func (m *ServerConnect) PayloadID() PayloadInfo { return PayloadInfo{Version: 0, ID: ServerConnectID} }

func (m *ServerConnect) Encode() []byte {
	var out []byte
	out, _ = EncodeString(out, m.ServerName)
	out, _ = EncodeStringMap(out, m.Versions)
	return out
}

func decodeServerConnect(data []byte) (Message, error) {
	cursor := 0
	name, ok := DecodeString(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	versions, ok := DecodeStringMap(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &ServerConnect{ServerName: name, Versions: versions}, nil
}

// CommandMessage fixes the interface the external CLI tooling expects
// (section 6): a command name plus string-list parameters. shutdown,
// reboot, and check-for-updates are the commands defined by that tooling;
// the core only transports the envelope.
type CommandMessage struct {
	Command    string
	Parameters []string
}

func (m *CommandMessage) PayloadID() PayloadInfo {
	return PayloadInfo{Version: 0, ID: CommandMessageID}
}

func (m *CommandMessage) Encode() []byte {
	var out []byte
	out, _ = EncodeString(out, m.Command)
	out, _ = EncodeStringArray(out, m.Parameters)
	return out
}

func decodeCommandMessage(data []byte) (Message, error) {
	cursor := 0
	command, ok := DecodeString(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	params, ok := DecodeStringArray(data, &cursor)
	if !ok {
		return nil, ErrTruncated
	}
	if err := FinishDecode(data, cursor); err != nil {
		return nil, err
	}
	return &CommandMessage{Command: command, Parameters: params}, nil
}

// AppRegistry returns a Registry with the core five plus all application
// message types registered. Use this from Server/Client wiring instead of
// CoreRegistry so application payloads are dispatchable too.
func AppRegistry() *Registry {
	r := CoreRegistry()
	r.Register(ScanReportID, decodeScanReport)
	r.Register(MetadataID, decodeMetadata)
	r.Register(ViewportFrameID, decodeViewportFrame)
	r.Register(PerfStatsID, decodePerfStats)
	r.Register(ServerConnectID, decodeServerConnect)
	r.Register(CommandMessageID, decodeCommandMessage)
	return r
}
