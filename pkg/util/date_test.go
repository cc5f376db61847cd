package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-08-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 8, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 8, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestIntervalDuration(t *testing.T) {
	if d := IntervalDuration("4h"); d != 4*time.Hour {
		t.Fatalf("unexpected duration %v", d)
	}
	if d := IntervalDuration("bogus"); d != 15*time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-08-26 is a Wednesday; the containing week opens Monday 2026-08-24.
	in := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(in); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	// A Monday maps to itself.
	if got := WeekStart(want.Add(5 * time.Hour)); !got.Equal(want) {
		t.Fatalf("monday got %v want %v", got, want)
	}
}
