// Package expiry classifies inventory expiration instants relative to a reference time.
package expiry

import (
	"time"

	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// DefaultUpcomingDays is the look-ahead window for the upcoming bucket.
const DefaultUpcomingDays = 15

// Classifier buckets expiration instants. The zero value uses DefaultUpcomingDays.
type Classifier struct {
	UpcomingDays int
}

// NewClassifier returns a classifier with the given upcoming window; non-positive values fall
// back to DefaultUpcomingDays.
func NewClassifier(upcomingDays int) Classifier {
	if upcomingDays <= 0 {
		upcomingDays = DefaultUpcomingDays
	}
	return Classifier{UpcomingDays: upcomingDays}
}

func (c Classifier) window() time.Duration {
	days := c.UpcomingDays
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Classify is total: expired strictly before now, due today on now's calendar day,
// upcoming inside the window, ok otherwise. An expiration equal to now is never expired.
func (c Classifier) Classify(expiration, now time.Time) enums.ExpiryBucket {
	switch {
	case expiration.Before(now):
		return enums.ExpiryBucketExpired
	case SameDay(expiration, now):
		return enums.ExpiryBucketDueToday
	case !expiration.After(now.Add(c.window())):
		return enums.ExpiryBucketUpcoming
	default:
		return enums.ExpiryBucketOK
	}
}

// ClassifyPtr classifies an optional expiration. Items without one get an empty bucket.
func (c Classifier) ClassifyPtr(expiration *time.Time, now time.Time) enums.ExpiryBucket {
	if expiration == nil {
		return ""
	}
	return c.Classify(*expiration, now)
}

// Classify uses the default window.
func Classify(expiration, now time.Time) enums.ExpiryBucket {
	return Classifier{}.Classify(expiration, now)
}

// SameDay compares calendar dates in ref's location.
func SameDay(t, ref time.Time) bool {
	ty, tm, td := t.In(ref.Location()).Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
