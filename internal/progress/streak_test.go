package progress

import "testing"

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		today string
		want  int
	}{
		{"no activity", nil, "2026-03-10", 0},
		{"single today", []string{"2026-03-10"}, "2026-03-10", 1},
		{"consecutive days", []string{"2026-03-09", "2026-03-10"}, "2026-03-10", 2},
		{"gap resets", []string{"2026-03-07", "2026-03-10"}, "2026-03-10", 1},
		{"duplicate same day unchanged", []string{"2026-03-09", "2026-03-10", "2026-03-10"}, "2026-03-10", 2},
		{"run ended yesterday still counts", []string{"2026-03-08", "2026-03-09"}, "2026-03-10", 2},
		{"stale run is broken", []string{"2026-03-05", "2026-03-06"}, "2026-03-10", 0},
		{"long run with earlier gap", []string{"2026-03-01", "2026-03-03", "2026-03-04", "2026-03-05"}, "2026-03-05", 3},
		{"unsorted input", []string{"2026-03-10", "2026-03-09"}, "2026-03-10", 2},
		{"across month boundary", []string{"2026-02-28", "2026-03-01"}, "2026-03-01", 2},
		{"leap day", []string{"2028-02-28", "2028-02-29", "2028-03-01"}, "2028-03-01", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.dates, tt.today); got != tt.want {
				t.Fatalf("Streak(%v, %s) = %d, want %d", tt.dates, tt.today, got, tt.want)
			}
		})
	}
}

func TestStreakIncrementByOne(t *testing.T) {
	dates := []string{"2026-03-09"}
	before := Streak(dates, "2026-03-10")
	after := Streak(append(dates, "2026-03-10"), "2026-03-10")
	if after != before+1 {
		t.Fatalf("expected streak to increment by exactly 1: before=%d after=%d", before, after)
	}
	// A second activity on the same day must not increment again.
	again := Streak([]string{"2026-03-09", "2026-03-10", "2026-03-10"}, "2026-03-10")
	if again != after {
		t.Fatalf("same-day activity changed streak: %d vs %d", again, after)
	}
}
