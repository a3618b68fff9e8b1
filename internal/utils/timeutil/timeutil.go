package timeutil

import (
	"strings"
	"time"
)

// Layout is the canonical timestamp format used across the pipeline.
const Layout = "2006-01-02T15:04:05"

// DateLayout is the canonical calendar date format used for partitioning.
const DateLayout = "2006-01-02"

// acceptedLayouts are tried in order when parsing incoming timestamps.
// Offset-free layouts are interpreted as UTC.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	Layout,
	"2006-01-02 15:04:05",
	"01/02/2006 03:04 PM",
	"01/02/2006 15:04",
	DateLayout,
}

// Parse interprets a raw timestamp string permissively. ISO-8601 and the
// common exporter formats are accepted; anything else is a parse error.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	var lastErr error
	for _, layout := range acceptedLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Format renders t in the canonical YYYY-MM-DDTHH:MM:SS form.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FloorHour truncates t to the start of its hour.
func FloorHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}
