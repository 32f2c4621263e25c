package uuidtable

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetOrCreate_Stable(t *testing.T) {
	table := New("avf-phone-id-")

	id := table.GetOrCreate("+254700000001")
	if !strings.HasPrefix(id, "avf-phone-id-") {
		t.Fatalf("identifier %q missing prefix", id)
	}
	if again := table.GetOrCreate("+254700000001"); again != id {
		t.Fatalf("identifier changed between lookups: %q vs %q", id, again)
	}
	if other := table.GetOrCreate("+254700000002"); other == id {
		t.Fatal("distinct data must get distinct identifiers")
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	table := New("avf-phone-id-")
	id1 := table.GetOrCreate("+254700000001")
	id2 := table.GetOrCreate("+254700000002")

	var buf bytes.Buffer
	if err := table.Save(&buf); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load("avf-phone-id-", &buf)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, ok := loaded.Get("+254700000001"); !ok || got != id1 {
		t.Fatalf("Get(+...1) = %q, %v; want %q", got, ok, id1)
	}
	if got := loaded.GetOrCreate("+254700000002"); got != id2 {
		t.Fatalf("identifier not preserved across round-trip: %q vs %q", got, id2)
	}
}

func TestLoad_Malformed(t *testing.T) {
	if _, err := Load("p-", strings.NewReader("not json")); err == nil {
		t.Fatal("expected an error for malformed input")
	}
}
