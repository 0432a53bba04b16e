package openprice

import (
	"testing"
	"time"
)

// go test -v --run TestDailyTriggerFiresOncePerDay
func TestDailyTriggerFiresOncePerDay(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	trig := NewDailyTrigger(0, 0, time.UTC, start)

	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !trig.Next().Equal(want) {
		t.Fatalf("expected next %v, got %v", want, trig.Next())
	}

	if trig.Due(start.Add(time.Hour)) {
		t.Error("must not fire before midnight")
	}
	if !trig.Due(want) {
		t.Error("expected fire exactly at midnight")
	}
	if trig.Due(want.Add(time.Second)) {
		t.Error("must fire once per day")
	}
	if !trig.Next().Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("expected re-arm for following day, got %v", trig.Next())
	}
}

// go test -v --run TestDailyTriggerMissedWindow
func TestDailyTriggerMissedWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	trig := NewDailyTrigger(0, 0, time.UTC, start)

	// process stalled for three days
	late := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	if !trig.Due(late) {
		t.Fatal("expected a single catch-up fire")
	}
	if trig.Due(late.Add(time.Minute)) {
		t.Error("missed days must not fire repeatedly")
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !trig.Next().Equal(want) {
		t.Errorf("expected %v, got %v", want, trig.Next())
	}
}

// go test -v --run TestDailyTriggerLocation
func TestDailyTriggerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// 17:00 UTC is 01:00 the next day in UTC+8
	start := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	trig := NewDailyTrigger(0, 0, loc, start)

	want := time.Date(2025, 3, 12, 0, 0, 0, 0, loc)
	if !trig.Next().Equal(want) {
		t.Errorf("expected %v, got %v", want, trig.Next())
	}
}

// go test -v --run TestDailyTriggerNonMidnight
func TestDailyTriggerNonMidnight(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	trig := NewDailyTrigger(9, 30, time.UTC, start)

	want := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	if !trig.Next().Equal(want) {
		t.Errorf("expected same-day fire %v, got %v", want, trig.Next())
	}
}
