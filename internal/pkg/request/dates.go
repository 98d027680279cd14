package request

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// ParseDate parses a civil date into its midnight-UTC instant.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD date: %w", err)
	}
	return t, nil
}

// FormatDate renders a midnight-UTC instant as a civil date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
