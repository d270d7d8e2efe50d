package objectstore

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/giftagram/gift-insights/pkg/models"
)

// LogSuffix is the only object suffix recognized as a funds-log file.
const LogSuffix = ".json"

// Store defines the narrow object-storage surface the pipeline consumes.
// Timeout and retry policy belong to the implementation; callers treat any
// per-file failure as non-fatal.
type Store interface {
	// List returns the keys under prefix, in the order the backend reports
	// them. Failures are surfaced as *FileListError.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// Get returns the raw bytes of one object. Failures are surfaced as
	// *FileFetchError.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Log files are named after the five-minute window they cover, e.g.
// processed-logs/funds-log/5min/funds-log-2025-04-09-13-05.json.
var (
	keyDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	keyHourPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}-(\d{2})-\d{2}`)
)

// EmbeddedDate extracts the YYYY-MM-DD date embedded in a file key. The
// second return is false when the key carries no date.
func EmbeddedDate(key string) (time.Time, bool) {
	m := keyDatePattern.FindString(key)
	if m == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(models.DateLayout, m, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// EmbeddedHour extracts the hour component from a YYYY-MM-DD-HH-MM file key.
// The second return is false when the key does not follow that pattern or
// the hour is out of range.
func EmbeddedHour(key string) (int, bool) {
	m := keyHourPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// FilterKeys keeps the keys worth fetching: recognized log suffix, and an
// embedded date no older than cutoff. Keys without an embedded date pass the
// cutoff check. A zero cutoff disables it. Order is preserved.
func FilterKeys(keys []string, cutoff time.Time) []string {
	filtered := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, LogSuffix) {
			continue
		}
		if !cutoff.IsZero() {
			if d, ok := EmbeddedDate(key); ok && d.Before(cutoff) {
				continue
			}
		}
		filtered = append(filtered, key)
	}
	return filtered
}
