package model

import (
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type RecurrenceEndKind string

const (
	EndNever            RecurrenceEndKind = "never"
	EndAfterOccurrences RecurrenceEndKind = "afterOccurrences"
	EndOnDate           RecurrenceEndKind = "onDate"
)

// RecurrenceEnd is a tagged choice: never, after a fixed number of
// occurrences, or on a calendar date.
type RecurrenceEnd struct {
	Kind  RecurrenceEndKind `json:"kind"`
	Count int               `json:"count,omitempty"`
	Date  *time.Time        `json:"date,omitempty"`
}

// RecurrenceRule is a value object describing how to compute a task's next
// occurrence after completion. Interval must be >= 1.
type RecurrenceRule struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"` // weekly only
	DayOfMonth int            `json:"dayOfMonth,omitempty"`  // monthly only, 1-31
	End        RecurrenceEnd  `json:"end"`
}

func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return "", fmt.Errorf("invalid frequency: %q (expected daily|weekly|monthly|yearly)", s)
	}
}
