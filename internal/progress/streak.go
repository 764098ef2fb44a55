// Package progress computes streaks and progress reports from activity history.
package progress

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Today returns the current civil date in the local timezone.
func Today() string {
	return time.Now().Format(dateLayout)
}

// Streak returns the count of consecutive calendar days with activity,
// ending at the most recent activity date. A run that no longer touches
// today or yesterday is broken and counts as 0. Dates are civil
// ("2006-01-02") strings; duplicates and ordering do not matter.
func Streak(dates []string, today string) int {
	distinct := distinctSorted(dates)
	if len(distinct) == 0 {
		return 0
	}
	latest := distinct[len(distinct)-1]
	if daysBetween(latest, today) > 1 {
		return 0
	}
	streak := 1
	for i := len(distinct) - 2; i >= 0; i-- {
		if daysBetween(distinct[i], distinct[i+1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func distinctSorted(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		if _, err := time.ParseInLocation(dateLayout, d, time.UTC); err != nil {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// daysBetween computes whole calendar days from a to b. Civil dates are
// anchored in UTC so DST transitions cannot produce 23- or 25-hour days.
func daysBetween(a, b string) int {
	ta, errA := time.ParseInLocation(dateLayout, a, time.UTC)
	tb, errB := time.ParseInLocation(dateLayout, b, time.UTC)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
