package id

import (
	"sort"
	"testing"
	"time"
)

func TestNewULID(t *testing.T) {
	a := NewULID()
	if len(a) != 26 {
		t.Fatalf("len(ULID) = %d, want 26", len(a))
	}
	if _, err := Parse(a); err != nil {
		t.Errorf("Parse(%q) error: %v", a, err)
	}
	if NewRequestID() == a {
		t.Error("request IDs must be unique")
	}
}

func TestULIDMonotonicWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewULIDGenerator(WithClock(func() time.Time { return fixed }))

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Generate()
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("ULIDs from the same millisecond should be sorted")
	}

	ts, err := Parse(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", ts, fixed)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-ulid"); err == nil {
		t.Error("Parse should reject invalid input")
	}
}
