package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftagram/gift-insights/pkg/models"
	"github.com/giftagram/gift-insights/pkg/objectstore"
)

// fakeStore serves files from memory. A missing key fails the Get the way a
// real backend would.
type fakeStore struct {
	files   map[string][]byte
	listErr error
}

func (f *fakeStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.files))
	for key := range f.files {
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fakeStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, &objectstore.FileFetchError{Bucket: bucket, Key: key, Err: errors.New("no such key")}
	}
	return data, nil
}

func TestReload_MergesFiles(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{
		"funds-log-2025-04-09-10-00.json": []byte(`[{"UserId": 1, "InvoiceType": 1, "Amount": 25, "Timestamp": 1744192800}]`),
		"funds-log-2025-04-10-10-00.json": []byte(`[{"UserId": 2, "InvoiceType": 0, "Amount": 60, "Timestamp": 1744279200}, {"UserId": 3, "InvoiceType": 1, "Amount": 10, "Timestamp": 1744279200}]`),
	}}

	s := New(store, Config{Bucket: "b", Prefix: "p/"})
	require.NoError(t, s.Reload(context.Background()))

	assert.Len(t, s.Records(), 3)
	stats := s.Stats()
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 3, stats.Records)
	assert.False(t, stats.LoadedAt.IsZero())

	report := s.LastLoadReport()
	require.NotNil(t, report)
	assert.Len(t, report.Files, 4) // fetch and parse phase per file
	assert.Equal(t, int64(3), report.Summary["totalRecords"])
}

func TestReload_SkipsBadFiles(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{
		"funds-log-2025-04-09-10-00.json": []byte(`[{"UserId": 1, "InvoiceType": 1, "Amount": 25}]`),
		"funds-log-2025-04-09-10-05.json": []byte(`{{{not json`),
		"funds-log-2025-04-09-10-10.json": []byte(`[]`),
	}}

	s := New(store, Config{Bucket: "b", Prefix: "p/"})
	require.NoError(t, s.Reload(context.Background()))

	assert.Len(t, s.Records(), 1)
	stats := s.Stats()
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 2, stats.Skipped)
}

func TestReload_EmptyDataset(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{
		"funds-log-2025-04-09-10-00.json": []byte(`not json at all`),
	}}

	s := New(store, Config{Bucket: "b", Prefix: "p/"})
	err := s.Reload(context.Background())

	var emptyErr *EmptyDatasetError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, 1, emptyErr.Files)
	assert.Equal(t, 1, emptyErr.Skipped)
	assert.Empty(t, s.Records())
}

func TestReload_ListFailure(t *testing.T) {
	store := &fakeStore{listErr: &objectstore.FileListError{Bucket: "b", Prefix: "p/", Err: errors.New("denied")}}

	s := New(store, Config{Bucket: "b", Prefix: "p/"})
	err := s.Reload(context.Background())

	var listErr *objectstore.FileListError
	require.ErrorAs(t, err, &listErr)
}

func TestReload_CutoffExcludesOldKeys(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{
		"funds-log-2025-04-08-10-00.json": []byte(`[{"UserId": 1, "InvoiceType": 1, "Amount": 25}]`),
		"funds-log-2025-04-09-10-00.json": []byte(`[{"UserId": 2, "InvoiceType": 1, "Amount": 25}]`),
	}}

	cutoff := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	s := New(store, Config{Bucket: "b", Prefix: "p/", Cutoff: cutoff})
	require.NoError(t, s.Reload(context.Background()))

	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "funds-log-2025-04-09-10-00.json", records[0].SourceFile)
}

func TestReload_ManyFilesUnderConcurrencyLimit(t *testing.T) {
	files := make(map[string][]byte)
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("funds-log-2025-04-09-10-%02d.json", i)
		files[key] = []byte(fmt.Sprintf(`[{"UserId": %d, "InvoiceType": 1, "Amount": 25}]`, i))
	}
	store := &fakeStore{files: files}

	s := New(store, Config{Bucket: "b", Prefix: "p/", Concurrency: 3})
	require.NoError(t, s.Reload(context.Background()))
	assert.Len(t, s.Records(), 25)
}

func loaded(t *testing.T) *Session {
	t.Helper()
	store := &fakeStore{files: map[string][]byte{
		"funds-log-2025-04-08-10-00.json": []byte(`[
			{"UserId": 1, "InvoiceType": 0, "Amount": 25, "Timestamp": 1744106400},
			{"UserId": 2, "InvoiceType": 1, "Amount": 60, "Timestamp": 1744106400}
		]`),
		"funds-log-2025-04-09-10-00.json": []byte(`[
			{"UserId": 1, "InvoiceType": 1, "Amount": 25, "Timestamp": 1744192800},
			{"UserId": 3, "InvoiceType": 2, "Amount": 10, "Timestamp": 1744192800}
		]`),
	}}
	s := New(store, Config{Bucket: "b", Prefix: "p/"})
	require.NoError(t, s.Reload(context.Background()))
	return s
}

func TestFiltered_DateRange(t *testing.T) {
	s := loaded(t)
	day := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	s.SetDateRange(day, day)

	records := s.Filtered()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, day, rec.Date)
	}
}

func TestFiltered_TypeFlags(t *testing.T) {
	s := loaded(t)
	s.SetTypeFilters(false, true, false)

	records := s.Filtered()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, models.Paid, rec.InvoiceType)
	}
}

func TestFiltered_RangeThenType(t *testing.T) {
	s := loaded(t)
	day := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	s.SetDateRange(day, day)
	s.SetTypeFilters(false, false, true)

	records := s.Filtered()
	require.Len(t, records, 1)
	assert.Equal(t, models.Refunded, records[0].InvoiceType)
}

func TestFiltered_NoFiltersReturnsAll(t *testing.T) {
	s := loaded(t)
	assert.Len(t, s.Filtered(), 4)
}

func TestDefaultDateRange_TrailingWeekClamped(t *testing.T) {
	s := loaded(t)

	start, end, ok := s.DefaultDateRange()
	require.True(t, ok)
	// Two days of data, so the week clamps to the earliest date.
	assert.Equal(t, time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), end)
}

func TestDefaultDateRange_NoData(t *testing.T) {
	s := New(&fakeStore{}, Config{})
	_, _, ok := s.DefaultDateRange()
	assert.False(t, ok)
}

func TestDateRange_ZeroMeansUnset(t *testing.T) {
	s := New(&fakeStore{}, Config{})
	_, _, ok := s.DateRange()
	assert.False(t, ok)

	day := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	s.SetDateRange(day, day)
	start, end, ok := s.DateRange()
	assert.True(t, ok)
	assert.Equal(t, day, start)
	assert.Equal(t, day, end)
}
