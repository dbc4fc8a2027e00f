// internal/canvas/dates.go
package canvas

import (
	"fmt"
	"strings"
	"time"
)

// Bucket classifies an assignment relative to the current time.
type Bucket string

const (
	BucketPast     Bucket = "past"
	BucketUpcoming Bucket = "upcoming"
	BucketUndated  Bucket = "undated"
)

// Buckets lists every valid bucket in display order.
var Buckets = []Bucket{BucketUpcoming, BucketPast, BucketUndated}

// offsetlessLayouts are tried after RFC 3339; all of them are read as UTC.
var offsetlessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseBucket validates a caller-supplied bucket name.
func ParseBucket(s string) (Bucket, error) {
	name := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range Buckets {
		if b == name {
			return b, nil
		}
	}
	return "", invalidArgument("bucket must be one of upcoming, past, undated (got %q)", s)
}

// ParseTimestamp reads an upstream timestamp. A nil, empty or "null" value is
// absent and yields nil. Values without an offset are treated as UTC.
func ParseTimestamp(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || s == "null" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		u := t.UTC()
		return &u, nil
	}
	for _, layout := range offsetlessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, upstreamError(fmt.Sprintf("malformed timestamp %q", s), nil)
}

// Classify buckets a due date relative to now.
func Classify(due *time.Time, now time.Time) Bucket {
	if due == nil {
		return BucketUndated
	}
	if due.UTC().Before(now.UTC()) {
		return BucketPast
	}
	return BucketUpcoming
}

// WithinWindow reports whether due falls in [now, now+daysAhead days]. Both
// ends are inclusive; an absent due date is never within any window.
func WithinWindow(due *time.Time, now time.Time, daysAhead int) bool {
	if due == nil {
		return false
	}
	d := due.UTC()
	start := now.UTC()
	end := start.Add(time.Duration(daysAhead) * 24 * time.Hour)
	return !d.Before(start) && !d.After(end)
}

// compareDue orders nil after every present time.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
