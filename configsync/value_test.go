package configsync

import "testing"

func TestEntrySetValuePathSanitized(t *testing.T) {
	e := &Entry{Type: Path}
	e.setValue("..\\..\\evil\\config.yaml")
	if got, ok := e.Value.(string); !ok || got == "..\\..\\evil\\config.yaml" {
		t.Fatalf("Path value was not sanitized: %q", e.Value)
	}
}

func TestEntrySetValueNoOpNotChanged(t *testing.T) {
	e := &Entry{Type: Integer}
	if changed := e.setValue(int64(5)); !changed {
		t.Fatalf("first set should report changed")
	}
	if changed := e.setValue(int64(5)); changed {
		t.Fatalf("setting the same value should report unchanged")
	}
}

func TestEntrySetFromTextNumericTypes(t *testing.T) {
	cases := []struct {
		typ  ValueType
		text string
		want interface{}
	}{
		{Integer, "42", int64(42)},
		{Real, "3.5", 3.5},
		{FixedPoint, "1.25", 1.25},
		{RollValue, "0.75", 0.75},
		{Time, "1700000000", float64(1700000000)},
		{Boolean, "true", true},
	}
	for _, c := range cases {
		e := &Entry{Type: c.typ}
		if err := e.setFromText(c.text); err != nil {
			t.Fatalf("type %d: setFromText(%q): %v", c.typ, c.text, err)
		}
		if e.Value != c.want {
			t.Fatalf("type %d: got %v, want %v", c.typ, e.Value, c.want)
		}
	}
}

func TestEntrySetFromTextRejectsMalformedNumber(t *testing.T) {
	e := &Entry{Type: Integer}
	if err := e.setFromText("not-a-number"); err == nil {
		t.Fatalf("expected error parsing a malformed integer")
	}
}

func TestEntryTextMirrorRoundTrip(t *testing.T) {
	e := &Entry{Type: PathArray}
	e.setValue([]string{"a.png", "b.png"})
	if e.TextMirror != "a.png;b.png" {
		t.Fatalf("got text mirror %q", e.TextMirror)
	}

	restored := &Entry{Type: PathArray}
	if err := restored.setFromText(e.TextMirror); err != nil {
		t.Fatalf("setFromText: %v", err)
	}
	got, ok := restored.Value.([]string)
	if !ok || len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Fatalf("round trip through text mirror failed: %#v", restored.Value)
	}
}

func TestEncodeDecodeValueAllTypes(t *testing.T) {
	cases := []struct {
		typ ValueType
		val interface{}
	}{
		{String, "hello"},
		{StringMap, map[string]string{"a": "1", "b": "2"}},
		{Path, "decks/standard.json"},
		{PathArray, []string{"a", "b", "c"}},
		{CodeDefinition, "opaque-blob"},
		{Boolean, true},
		{Boolean, false},
		{Integer, int64(-42)},
		{FixedPoint, 12.5},
		{Real, 3.14159},
		{RollValue, 0.999},
		{Time, float64(1700000000)},
	}

	for _, c := range cases {
		encoded, err := encodeValue(c.typ, c.val, nil)
		if err != nil {
			t.Fatalf("type %d: encode: %v", c.typ, err)
		}
		cursor := 0
		decoded, ok := decodeValue(c.typ, encoded, &cursor)
		if !ok {
			t.Fatalf("type %d: decode failed", c.typ)
		}
		if cursor != len(encoded) {
			t.Fatalf("type %d: decode left %d trailing bytes", c.typ, len(encoded)-cursor)
		}
		if !valuesEqual(c.val, decoded) {
			t.Fatalf("type %d: round trip mismatch: got %#v, want %#v", c.typ, decoded, c.val)
		}
	}
}
