package models

import (
	"testing"
	"time"
)

func TestDateOfNormalizesTimeOfDay(t *testing.T) {
	morning := time.Date(2025, 3, 5, 0, 1, 0, 0, time.Local)
	night := time.Date(2025, 3, 5, 23, 59, 0, 0, time.Local)
	if DateOf(morning) != DateOf(night) {
		t.Fatalf("same calendar day normalised differently")
	}
}

func TestDateAddDaysAcrossMonth(t *testing.T) {
	d := Date{Year: 2025, Month: time.January, Day: 30}
	got := d.AddDays(3)
	want := Date{Year: 2025, Month: time.February, Day: 2}
	if got != want {
		t.Fatalf("AddDays = %v, want %v", got, want)
	}
	if back := got.AddDays(-3); back != d {
		t.Fatalf("AddDays(-3) = %v, want %v", back, d)
	}
}

func TestDateOrdering(t *testing.T) {
	earlier := Date{Year: 2024, Month: time.December, Day: 31}
	later := Date{Year: 2025, Month: time.January, Day: 1}
	if !earlier.Before(later) || later.Before(earlier) {
		t.Fatalf("ordering broken across year boundary")
	}
	if !later.After(earlier) {
		t.Fatalf("After disagrees with Before")
	}
	if earlier.Before(earlier) {
		t.Fatalf("date compares before itself")
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-06-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2025-06-02" {
		t.Fatalf("String = %q", d.String())
	}
	if _, err := ParseDate("02/06/2025"); err == nil {
		t.Fatalf("expected malformed date to be rejected")
	}
}

func TestDateTextMarshalling(t *testing.T) {
	d := Date{Year: 2025, Month: time.June, Day: 2}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var parsed Date
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != d {
		t.Fatalf("round trip = %v, want %v", parsed, d)
	}
}
