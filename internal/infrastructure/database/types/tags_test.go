package types

import "testing"

func TestTagsRoundTrip(t *testing.T) {
	in := Tags{"graphs", "bfs"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	if v != `["graphs","bfs"]` {
		t.Fatalf("unexpected encoded value %v", v)
	}

	var out Tags
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(out) != 2 || out[0] != "graphs" || out[1] != "bfs" {
		t.Fatalf("unexpected decoded value %v", out)
	}
}

func TestTagsNilAndEmpty(t *testing.T) {
	v, err := Tags(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("expected empty array, got %v (%v)", v, err)
	}

	out := Tags{"stale"}
	if err := out.Scan(nil); err != nil || out != nil {
		t.Fatalf("expected nil tags, got %v (%v)", out, err)
	}
	if err := out.Scan(""); err != nil || out != nil {
		t.Fatalf("expected nil tags from empty string, got %v (%v)", out, err)
	}
	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for unsupported source type")
	}
}
