/*
File Name:  Store.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

The synchronized side of the config-sync sub-protocol: a Store holds the
typed entries under a single mutex (the design's "configuration store
(mutex)" shared resource) and a Store wraps it with the wire behavior —
answering snapshot requests, applying incoming updates with loop
suppression, and publishing local mutations.
*/

package configsync

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tablesight/core/protocol"
)

// Sender is the minimal interface a Store needs to talk back to a peer;
// *core.Peer satisfies it without configsync importing the core package.
type Sender interface {
	Send(msg protocol.Message) error
}

// Store holds the local configuration entries and applies the
// config-sync wire protocol on top of them.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// publish is called with every ConfigValue produced by a local
	// mutation (SetLocal/SetFromText) that isn't suppressed. Server-role
	// callers typically fan this out to every connected peer; a client
	// typically binds this to its single server Sender.
	publish func(msg protocol.Message)

	suppressSend bool
}

// NewStore creates an empty Store. publish may be nil, in which case
// local mutations are recorded but never sent anywhere (useful in tests).
func NewStore(publish func(msg protocol.Message)) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		publish: publish,
	}
}

// Define registers or replaces an entry's description/type without
// touching its value if already present (used at startup to declare the
// known schema before values are loaded or pushed).
func (s *Store) Define(category, name string, typ ValueType, description string, initial interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fullName(category, name)
	if e, ok := s.entries[key]; ok {
		e.Description = description
		return
	}
	e := &Entry{Category: category, Name: name, Type: typ, Description: description}
	e.setValue(initial)
	s.entries[key] = e
}

// Snapshot returns every entry sorted by full name ("category.name"), as
// ConfigValueList.Entries requires.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}

// Get returns a copy of the named entry, if present.
func (s *Store) Get(category, name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fullName(category, name)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// SetLocal applies a local mutation (from the host application, a UI, or
// the webapi surface) and, if the value actually changed and sends are
// not currently suppressed, publishes a ConfigValue update.
func (s *Store) SetLocal(category, name string, value interface{}) error {
	entry, changed, err := s.applyLocked(category, name, value, "")
	if err != nil {
		return err
	}
	s.maybePublish(entry, changed)
	return nil
}

// SetFromText is SetLocal's UI-facing counterpart: parses text according
// to the entry's existing type.
func (s *Store) SetFromText(category, name, text string) error {
	s.mu.Lock()
	e, ok := s.entries[fullName(category, name)]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("configsync: unknown entry %s.%s", category, name)
	}
	err := e.setFromText(text)
	entry := *e
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.maybePublish(entry, true)
	return nil
}

func (s *Store) applyLocked(category, name string, value interface{}, description string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fullName(category, name)
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false, fmt.Errorf("configsync: unknown entry %s.%s", category, name)
	}
	if description != "" {
		e.Description = description
	}
	changed := e.setValue(value)
	return *e, changed, nil
}

func (s *Store) maybePublish(entry Entry, changed bool) {
	if !changed {
		return
	}
	s.mu.Lock()
	suppressed := s.suppressSend
	s.mu.Unlock()

	if suppressed || s.publish == nil {
		return
	}
	s.publish(&ConfigValue{Entry: entry})
}

// applyRemote installs an incoming ConfigValue without re-publishing,
// per the sub-protocol's loop-suppression rule. An update naming an
// entry not yet known locally creates it.
func (s *Store) applyRemote(cv *ConfigValue) {
	s.mu.Lock()
	s.suppressSend = true
	key := cv.FullName()
	e, ok := s.entries[key]
	if !ok {
		e = &Entry{Category: cv.Category, Name: cv.Name, Type: cv.Type}
		s.entries[key] = e
	}
	e.Description = cv.Description
	e.setValue(cv.Value)
	s.suppressSend = false
	s.mu.Unlock()
}

// applySnapshot replaces the store's contents with list, per
// ConfigValueList's apply rule: existing entries are updated in place (to
// preserve any observer subscriptions keyed on the *Entry pointer),
// entries absent from list are removed, and the traversal order matches
// the snapshot's sort-by-full-name.
// ApplySnapshot is applySnapshot's exported form, for host applications
// restoring a persisted snapshot at startup (outside of message dispatch).
func (s *Store) ApplySnapshot(list *ConfigValueList) {
	s.applySnapshot(list)
}

func (s *Store) applySnapshot(list *ConfigValueList) {
	s.mu.Lock()
	defer func() { s.suppressSend = false; s.mu.Unlock() }()
	s.suppressSend = true

	seen := make(map[string]bool, len(list.Entries))
	for _, incoming := range list.Entries {
		key := incoming.FullName()
		seen[key] = true
		if e, ok := s.entries[key]; ok {
			e.Type = incoming.Type
			e.Description = incoming.Description
			e.setValue(incoming.Value)
			continue
		}
		stored := incoming
		s.entries[key] = &stored
	}
	for key := range s.entries {
		if !seen[key] {
			delete(s.entries, key)
		}
	}
}

// OnMessage handles the config-sync message types addressed to from.
// Returns false for any other message so the caller can route it
// elsewhere (application messages, command dispatch, and so on).
func (s *Store) OnMessage(from Sender, msg protocol.Message) (handled bool) {
	switch m := msg.(type) {
	case *ConfigListRequest:
		if err := from.Send(&ConfigValueList{Entries: s.Snapshot()}); err != nil {
			return true
		}
	case *ConfigValueList:
		s.applySnapshot(m)
	case *ConfigValue:
		s.applyRemote(m)
	default:
		return false
	}
	return true
}

// RequestSnapshot sends a ConfigListRequest to from; called by a client
// immediately after connecting to a server (spec transition "Received
// AdvertiseAck from server ... request config list").
func RequestSnapshot(to Sender) error {
	return to.Send(&ConfigListRequest{})
}
