package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewManual(start)

	if got := c.Advance(90 * time.Second); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("unexpected advanced time %s", got)
	}
	if !c.Now().Equal(start.Add(90 * time.Second)) {
		t.Fatalf("Now did not reflect Advance")
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("Set did not reset clock")
	}
}

func TestSystemUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	c := NewSystem(loc)
	if c.Now().Location() != loc {
		t.Fatalf("expected clock in %s, got %s", loc, c.Now().Location())
	}
	if NewSystem(nil).Location() != time.UTC {
		t.Fatal("expected nil location to default to UTC")
	}
}

func TestLoadLocationEmptyIsUTC(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if loc != time.UTC {
		t.Fatalf("expected UTC, got %s", loc)
	}
}
