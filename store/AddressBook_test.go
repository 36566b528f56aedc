package store

import "testing"

func TestAddressBookRememberLookup(t *testing.T) {
	book := NewAddressBook(NewMemoryStore())

	if _, _, found := book.Lookup("default"); found {
		t.Fatalf("expected no entry before Remember")
	}

	if err := book.Remember("default", 0xC0A80001, 54670); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}

	ipv4, port, found := book.Lookup("default")
	if !found {
		t.Fatalf("expected entry after Remember")
	}
	if ipv4 != 0xC0A80001 || port != 54670 {
		t.Fatalf("got %08x:%d, want c0a80001:54670", ipv4, port)
	}
}

func TestAddressBookOverwrite(t *testing.T) {
	book := NewAddressBook(NewMemoryStore())

	book.Remember("default", 0x01020304, 1000)
	book.Remember("default", 0x05060708, 2000)

	ipv4, port, found := book.Lookup("default")
	if !found || ipv4 != 0x05060708 || port != 2000 {
		t.Fatalf("Remember did not overwrite previous entry: %08x:%d found=%v", ipv4, port, found)
	}
}

func TestAddressBookForget(t *testing.T) {
	book := NewAddressBook(NewMemoryStore())

	book.Remember("default", 0x01020304, 1000)
	book.Forget("default")

	if _, _, found := book.Lookup("default"); found {
		t.Fatalf("expected no entry after Forget")
	}
}

func TestAddressBookSeparateNames(t *testing.T) {
	book := NewAddressBook(NewMemoryStore())

	book.Remember("a", 1, 10)
	book.Remember("b", 2, 20)

	ipv4, port, found := book.Lookup("a")
	if !found || ipv4 != 1 || port != 10 {
		t.Fatalf("name a clobbered: %d:%d found=%v", ipv4, port, found)
	}
	ipv4, port, found = book.Lookup("b")
	if !found || ipv4 != 2 || port != 20 {
		t.Fatalf("name b clobbered: %d:%d found=%v", ipv4, port, found)
	}
}
