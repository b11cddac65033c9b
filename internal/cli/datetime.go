package cli

import (
	"fmt"
	"strings"
	"time"
)

// parseTimeFlag accepts RFC3339 or a bare date (interpreted as midnight UTC).
func parseTimeFlag(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", s)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func errInvalidWeekday(s string) error {
	return fmt.Errorf("invalid weekday %q (expected 0-6, Sunday = 0)", s)
}
