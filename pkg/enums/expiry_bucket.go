package enums

import (
	"fmt"
	"strings"
)

// ExpiryBucket is the time-relative status of an inventory item.
type ExpiryBucket string

const (
	ExpiryBucketExpired  ExpiryBucket = "expired"
	ExpiryBucketDueToday ExpiryBucket = "due_today"
	ExpiryBucketUpcoming ExpiryBucket = "upcoming"
	ExpiryBucketOK       ExpiryBucket = "ok"
)

var validExpiryBuckets = []ExpiryBucket{
	ExpiryBucketExpired,
	ExpiryBucketDueToday,
	ExpiryBucketUpcoming,
	ExpiryBucketOK,
}

// aliases accepted from listing and report callers.
var expiryBucketAliases = map[string]ExpiryBucket{
	"expired":   ExpiryBucketExpired,
	"vencido":   ExpiryBucketExpired,
	"due_today": ExpiryBucketDueToday,
	"due-today": ExpiryBucketDueToday,
	"today":     ExpiryBucketDueToday,
	"hoje":      ExpiryBucketDueToday,
	"upcoming":  ExpiryBucketUpcoming,
	"proximo":   ExpiryBucketUpcoming,
	"próximo":   ExpiryBucketUpcoming,
	"ok":        ExpiryBucketOK,
}

func (b ExpiryBucket) String() string {
	return string(b)
}

// IsValid checks whether the given bucket matches the canonical enum.
func (b ExpiryBucket) IsValid() bool {
	for _, candidate := range validExpiryBuckets {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseExpiryBucket converts raw strings (including aliases) into ExpiryBucket.
func ParseExpiryBucket(value string) (ExpiryBucket, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if bucket, ok := expiryBucketAliases[key]; ok {
		return bucket, nil
	}
	return "", fmt.Errorf("invalid expiry bucket %q", value)
}
