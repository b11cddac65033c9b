// Package recur computes occurrence dates for recurrence rules. It is pure:
// no store access, no side effects.
package recur

import (
	"time"

	"dequeue/internal/model"
)

// NextDate returns the occurrence following ref under rule. The second
// return is false when no next date can be computed (malformed rule).
// End conditions are not evaluated here; callers check them against the
// returned date.
func NextDate(ref time.Time, rule model.RecurrenceRule) (time.Time, bool) {
	interval := rule.Interval
	if interval < 1 {
		return time.Time{}, false
	}

	switch rule.Frequency {
	case model.Daily:
		return ref.AddDate(0, 0, interval), true

	case model.Weekly:
		if len(rule.DaysOfWeek) == 0 {
			return ref.AddDate(0, 0, 7*interval), true
		}
		return nextWeekday(ref, rule.DaysOfWeek, interval), true

	case model.Monthly:
		return nextMonthly(ref, rule.DayOfMonth, interval), true

	case model.Yearly:
		return ref.AddDate(interval, 0, 0), true

	default:
		return time.Time{}, false
	}
}

// nextWeekday picks the smallest weekday in days strictly after ref's
// weekday within the same week. When none remains, it wraps to the smallest
// weekday of the set after skipping interval-1 additional full weeks.
func nextWeekday(ref time.Time, days []time.Weekday, interval int) time.Time {
	in := func(d time.Weekday) bool {
		for _, x := range days {
			if x == d {
				return true
			}
		}
		return false
	}

	cur := ref.Weekday()
	for d := cur + 1; d <= time.Saturday; d++ {
		if in(d) {
			return ref.AddDate(0, 0, int(d-cur))
		}
	}

	first := time.Saturday + 1
	for d := time.Sunday; d <= time.Saturday; d++ {
		if in(d) && d < first {
			first = d
		}
	}
	// Days until the same weekday next week, adjusted to the first weekday
	// of the set, plus the skipped weeks.
	delta := 7 - int(cur) + int(first) + 7*(interval-1)
	return ref.AddDate(0, 0, delta)
}

// nextMonthly adds interval months and clamps the day-of-month to the rule's
// configured day (or ref's day when unset), bounded by the target month's
// length. Jan 31 + 1 month lands on Feb 28/29, not Mar 2.
func nextMonthly(ref time.Time, dayOfMonth, interval int) time.Time {
	y, m, _ := ref.Date()
	total := int(m) - 1 + interval
	ty := y + total/12
	tm := time.Month(total%12 + 1)

	day := dayOfMonth
	if day < 1 {
		day = ref.Day()
	}
	if max := daysInMonth(ty, tm); day > max {
		day = max
	}

	h, min, sec := ref.Clock()
	return time.Date(ty, tm, day, h, min, sec, ref.Nanosecond(), ref.Location())
}

func daysInMonth(y int, m time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
