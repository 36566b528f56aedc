package configsync

import (
	"testing"

	"github.com/tablesight/core/protocol"
)

// recordingSender captures every message sent to it, standing in for a
// *core.Peer without importing the core package.
type recordingSender struct {
	sent []protocol.Message
}

func (r *recordingSender) Send(msg protocol.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestStoreSnapshotSortedByFullName(t *testing.T) {
	s := NewStore(nil)
	s.Define("capture", "ViewportType", Integer, "", int64(2))
	s.Define("search", "CodeDefinition", String, "", "Standard")
	s.Define("audio", "Volume", Real, "", 0.5)

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("got %d entries, want 3", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].FullName() >= snap[i].FullName() {
			t.Fatalf("snapshot not sorted: %s >= %s", snap[i-1].FullName(), snap[i].FullName())
		}
	}
}

func TestStoreSetLocalPublishesChange(t *testing.T) {
	sent := &recordingSender{}
	s := NewStore(func(msg protocol.Message) { sent.Send(msg) })
	s.Define("capture", "ViewportType", Integer, "", int64(2))

	if err := s.SetLocal("capture", "ViewportType", int64(3)); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	if len(sent.sent) != 1 {
		t.Fatalf("got %d published messages, want 1", len(sent.sent))
	}
	cv, ok := sent.sent[0].(*ConfigValue)
	if !ok {
		t.Fatalf("published message is %T, want *ConfigValue", sent.sent[0])
	}
	if cv.Value.(int64) != 3 {
		t.Fatalf("published value %v, want 3", cv.Value)
	}
}

func TestStoreSetLocalNoOpDoesNotPublish(t *testing.T) {
	sent := &recordingSender{}
	s := NewStore(func(msg protocol.Message) { sent.Send(msg) })
	s.Define("capture", "ViewportType", Integer, "", int64(2))

	if err := s.SetLocal("capture", "ViewportType", int64(2)); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	if len(sent.sent) != 0 {
		t.Fatalf("no-op update published %d messages, want 0", len(sent.sent))
	}
}

// TestConfigRoundTrip reproduces the spec's scenario 5: a server publishes
// a snapshot, the client applies it, mutates a value locally, and the
// server applies the resulting ConfigValue without re-broadcasting it
// (loop suppression).
func TestConfigRoundTrip(t *testing.T) {
	serverSent := &recordingSender{}
	server := NewStore(func(msg protocol.Message) { serverSent.Send(msg) })
	server.Define("search", "CodeDefinition", String, "", "Standard")
	server.Define("capture", "ViewportType", Integer, "", int64(2))

	clientSent := &recordingSender{}
	client := NewStore(func(msg protocol.Message) { clientSent.Send(msg) })

	snapshot := &ConfigValueList{Entries: server.Snapshot()}
	client.applySnapshot(snapshot)

	entry, ok := client.Get("capture", "ViewportType")
	if !ok || entry.Value.(int64) != 2 {
		t.Fatalf("client did not apply snapshot correctly: %+v found=%v", entry, ok)
	}

	if err := client.SetLocal("capture", "ViewportType", int64(3)); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	if len(clientSent.sent) != 1 {
		t.Fatalf("client should have published exactly one ConfigValue, got %d", len(clientSent.sent))
	}

	cv, ok := clientSent.sent[0].(*ConfigValue)
	if !ok {
		t.Fatalf("client published %T, want *ConfigValue", clientSent.sent[0])
	}

	// Server receives the update via OnMessage, as it would over the wire.
	serverSent.sent = nil
	handled := server.OnMessage(&recordingSender{}, cv)
	if !handled {
		t.Fatalf("server did not recognize ConfigValue")
	}

	serverEntry, ok := server.Get("capture", "ViewportType")
	if !ok || serverEntry.Value.(int64) != 3 {
		t.Fatalf("server did not apply incoming value: %+v found=%v", serverEntry, ok)
	}
	if len(serverSent.sent) != 0 {
		t.Fatalf("server re-broadcast after applying incoming update (loop suppression violated): %d messages", len(serverSent.sent))
	}
}

func TestStoreApplySnapshotRemovesMissingEntries(t *testing.T) {
	s := NewStore(nil)
	s.Define("a", "one", Integer, "", int64(1))
	s.Define("a", "two", Integer, "", int64(2))

	s.applySnapshot(&ConfigValueList{Entries: []Entry{
		{Category: "a", Name: "one", Type: Integer, Value: int64(9)},
	}})

	if _, ok := s.Get("a", "two"); ok {
		t.Fatalf("entry absent from snapshot was not removed")
	}
	entry, ok := s.Get("a", "one")
	if !ok || entry.Value.(int64) != 9 {
		t.Fatalf("surviving entry not updated in place: %+v", entry)
	}
}

func TestStoreOnMessageConfigListRequest(t *testing.T) {
	s := NewStore(nil)
	s.Define("a", "one", Integer, "", int64(1))

	sender := &recordingSender{}
	if !s.OnMessage(sender, &ConfigListRequest{}) {
		t.Fatalf("ConfigListRequest not handled")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("got %d replies, want 1", len(sender.sent))
	}
	list, ok := sender.sent[0].(*ConfigValueList)
	if !ok || len(list.Entries) != 1 {
		t.Fatalf("reply is %#v, want a 1-entry ConfigValueList", sender.sent[0])
	}
}

func TestStoreOnMessageUnrelatedTypeNotHandled(t *testing.T) {
	s := NewStore(nil)
	if s.OnMessage(&recordingSender{}, &protocol.Ping{}) {
		t.Fatalf("Store claimed to handle an unrelated message type")
	}
}

func TestRequestSnapshotSendsConfigListRequest(t *testing.T) {
	sender := &recordingSender{}
	if err := RequestSnapshot(sender); err != nil {
		t.Fatalf("RequestSnapshot: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(sender.sent))
	}
	if _, ok := sender.sent[0].(*ConfigListRequest); !ok {
		t.Fatalf("sent %T, want *ConfigListRequest", sender.sent[0])
	}
}
