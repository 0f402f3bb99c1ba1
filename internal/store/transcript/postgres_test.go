package transcript

import (
	"testing"
	"time"
)

func TestWindowBounds(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	start, end := windowBounds(anchor, 30*time.Minute)
	if want := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if want := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC); !end.Equal(want) {
		t.Fatalf("end = %v, want %v", end, want)
	}
	if !start.Before(end) {
		t.Fatal("interval is not ascending")
	}
}

func TestWindowBoundsSymmetry(t *testing.T) {
	anchor := time.Date(2024, 6, 15, 23, 50, 0, 0, time.UTC)

	start, end := windowBounds(anchor, 30*time.Minute)
	if got := anchor.Sub(start); got != 30*time.Minute {
		t.Fatalf("lead = %v, want 30m", got)
	}
	if got := end.Sub(anchor); got != 30*time.Minute {
		t.Fatalf("trail = %v, want 30m", got)
	}
	// Crossing midnight must not clamp either side.
	if end.Day() != 16 {
		t.Fatalf("end = %v, should land on the next day", end)
	}

	start, end = windowBounds(anchor, 0)
	if !start.Equal(anchor) || !end.Equal(anchor) {
		t.Fatalf("zero window = [%v, %v], want [anchor, anchor]", start, end)
	}
}
