package objectstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestEmbeddedDate(t *testing.T) {
	d, ok := EmbeddedDate("processed-logs/funds-log/5min/funds-log-2025-04-09-13-05.json")
	require.True(t, ok)
	assert.Equal(t, day(t, "2025-04-09"), d)

	_, ok = EmbeddedDate("processed-logs/funds-log/misc.json")
	assert.False(t, ok)
}

func TestEmbeddedHour(t *testing.T) {
	h, ok := EmbeddedHour("funds-log-2025-04-09-13-05.json")
	require.True(t, ok)
	assert.Equal(t, 13, h)

	// Date without the hour-minute tail
	_, ok = EmbeddedHour("funds-log-2025-04-09.json")
	assert.False(t, ok)

	// Out-of-range hour
	_, ok = EmbeddedHour("funds-log-2025-04-09-25-05.json")
	assert.False(t, ok)
}

func TestFilterKeys_Cutoff(t *testing.T) {
	keys := []string{
		"5min/funds-log-2025-04-08-23-55.json",
		"5min/funds-log-2025-04-09-00-00.json",
		"5min/funds-log-2025-04-10-08-15.json",
	}

	got := FilterKeys(keys, day(t, "2025-04-09"))
	assert.Equal(t, []string{
		"5min/funds-log-2025-04-09-00-00.json",
		"5min/funds-log-2025-04-10-08-15.json",
	}, got)
}

func TestFilterKeys_SuffixAndDatelessKeys(t *testing.T) {
	keys := []string{
		"5min/funds-log-2025-04-08.json",
		"5min/readme.txt",
		"5min/manual-export.json", // no embedded date, passes the cutoff
	}

	got := FilterKeys(keys, day(t, "2025-04-09"))
	assert.Equal(t, []string{"5min/manual-export.json"}, got)
}

func TestFilterKeys_ZeroCutoff(t *testing.T) {
	keys := []string{"a-2020-01-01-00-00.json", "b.json"}
	assert.Equal(t, keys, FilterKeys(keys, time.Time{}))
}
