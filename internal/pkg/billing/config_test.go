package billing

import (
	"testing"
	"time"
)

func TestClassifyProduct(t *testing.T) {
	cfg := Config{
		LifetimeProductIDs: parseIDSet("100, 101"),
		AnnualProductIDs:   parseIDSet("200"),
		MonthlyProductIDs:  parseIDSet("300,301 ,"),
	}

	tests := []struct {
		in   string
		want Tier
	}{
		{in: "100", want: TierLifetime},
		{in: " 101 ", want: TierLifetime},
		{in: "200", want: TierAnnual},
		{in: "301", want: TierMonthly},
		{in: "999", want: TierUnmapped},
		{in: "", want: TierUnmapped},
	}

	for _, tt := range tests {
		if got := cfg.ClassifyProduct(tt.in); got != tt.want {
			t.Fatalf("ClassifyProduct(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventPaidAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		time string
		want time.Time
	}{
		{name: "compact date with time", date: "20260110", time: "08:30:00", want: time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)},
		{name: "dashed date", date: "2026-01-10", time: "08:30:00", want: time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)},
		{name: "missing time defaults to midnight", date: "20260110", time: "", want: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{name: "missing date falls back to now", date: "", time: "08:30:00", want: now},
		{name: "garbage falls back to now", date: "not-a-date", time: "", want: now},
	}

	for _, tt := range tests {
		e := Event{PaidDate: tt.date, PaidTime: tt.time}
		if got := e.PaidAt(time.UTC, now); !got.Equal(tt.want) {
			t.Fatalf("%s: PaidAt() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
