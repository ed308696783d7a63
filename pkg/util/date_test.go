package util

import (
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-10-09", "2024/10/09", "09/10/2024"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: unexpected date %v", s, got)
		}
	}
	if _, ok := ParseDate("10-09-2024"); ok {
		t.Fatalf("expected failure for unknown layout")
	}
}

func TestDayRange(t *testing.T) {
	start := time.Date(2024, 12, 30, 15, 4, 5, 0, time.UTC)
	got := DayRange(start, 4)
	if len(got) != 4 {
		t.Fatalf("unexpected len %d", len(got))
	}
	if got[0].Format(SlashDate) != "2024/12/30" || got[3].Format(SlashDate) != "2025/01/02" {
		t.Fatalf("unexpected range %v", got)
	}
	if DayRange(start, 0) != nil {
		t.Fatalf("expected nil for empty range")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 2 {
		t.Fatalf("unexpected days %d", d)
	}
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal(" 74,63 ")
	if err != nil || v != 74.63 {
		t.Fatalf("unexpected %v %v", v, err)
	}
	if _, err := ParseDecimal("n/a"); err == nil {
		t.Fatalf("expected error")
	}
}
