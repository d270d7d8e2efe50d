package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giftagram/gift-insights/internal/analytics"
	"github.com/giftagram/gift-insights/internal/ingest"
	"github.com/giftagram/gift-insights/internal/metrics"
	"github.com/giftagram/gift-insights/pkg/models"
	"github.com/giftagram/gift-insights/pkg/objectstore"
)

// defaultConcurrency bounds the per-file fetch-and-parse fan-out.
const defaultConcurrency = 8

// Config holds the batch parameters of a session. The session treats them as
// opaque caller input; it never reads configuration files or environment
// variables itself.
type Config struct {
	Bucket      string
	Prefix      string
	Cutoff      time.Time // keys with an embedded date before this are skipped
	Concurrency int
}

// Session owns the current normalized dataset and the last-applied filters.
// The dataset is replaced wholesale on Reload and is read-only otherwise;
// every analysis is a pure function of the snapshot plus the filters, so
// repeated queries with identical inputs yield identical outputs.
type Session struct {
	id    string
	store objectstore.Store
	cfg   Config

	mu         sync.RWMutex
	records    []models.TransactionRecord
	loadedAt   time.Time
	files      int
	skipped    int
	lastReport *metrics.LoadReport

	startDate, endDate                  time.Time
	showCreated, showPaid, showRefunded bool
}

// Stats describes the outcome of the last reload.
type Stats struct {
	Files    int       `json:"files"`
	Skipped  int       `json:"skipped"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loadedAt"`
}

// New creates a session over the given store. All transaction types start
// enabled; the dataset is empty until the first Reload.
func New(store objectstore.Store, cfg Config) *Session {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Session{
		id:           uuid.NewString(),
		store:        store,
		cfg:          cfg,
		showCreated:  true,
		showPaid:     true,
		showRefunded: true,
	}
}

// ID returns the session's log-correlation identifier.
func (s *Session) ID() string { return s.id }

// Reload lists, fetches, parses and normalizes all files for the configured
// range, then swaps the dataset atomically. Per-file failures are logged and
// skipped; Reload fails only when zero files yield records, with
// *EmptyDatasetError. A previous snapshot stays in place until the new one
// is complete.
func (s *Session) Reload(ctx context.Context) error {
	keys, err := s.store.List(ctx, s.cfg.Bucket, s.cfg.Prefix)
	if err != nil {
		return err
	}
	keys = objectstore.FilterKeys(keys, s.cfg.Cutoff)
	log.Printf("session %s: %d files to load from s3://%s/%s", s.id, len(keys), s.cfg.Bucket, s.cfg.Prefix)

	collector := metrics.NewCollector()
	collector.StartLoad(s.id, s.cfg.Bucket, s.cfg.Prefix)

	// Per-file fetch-and-parse is independent, so fan out behind a
	// semaphore. Results keep the listing order.
	results := make([][]models.TransactionRecord, len(keys))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.cfg.Concurrency)

	for i, key := range keys {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int, key string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[index] = s.loadFile(ctx, collector, key)
		}(i, key)
	}
	wg.Wait()

	var records []models.TransactionRecord
	skipped := 0
	for _, fileRecords := range results {
		if fileRecords == nil {
			skipped++
			continue
		}
		records = append(records, fileRecords...)
	}

	report := collector.EndLoad()

	if len(records) == 0 {
		return &EmptyDatasetError{Files: len(keys), Skipped: skipped}
	}

	s.mu.Lock()
	s.records = records
	s.loadedAt = time.Now().UTC()
	s.files = len(keys)
	s.skipped = skipped
	s.lastReport = report
	s.mu.Unlock()

	log.Printf("session %s: loaded %d records from %d files (%d skipped) in %s", s.id, len(records), len(keys), skipped, report.Duration.Round(time.Millisecond))
	return nil
}

// loadFile fetches and normalizes one file. Any failure makes the file a
// skipped unit; nil marks it for the caller.
func (s *Session) loadFile(ctx context.Context, collector *metrics.Collector, key string) []models.TransactionRecord {
	var data []byte
	err := collector.MeasurePhase(metrics.FetchPhase, key, func() (int64, int64, error) {
		var err error
		data, err = s.store.Get(ctx, s.cfg.Bucket, key)
		return int64(len(data)), 0, err
	})
	if err != nil {
		log.Printf("session %s: skipping %s: %v", s.id, key, err)
		return nil
	}

	var records []models.TransactionRecord
	err = collector.MeasurePhase(metrics.ParsePhase, key, func() (int64, int64, error) {
		rows, err := ingest.ParseFile(data, key)
		if err != nil {
			return int64(len(data)), 0, err
		}
		records, err = ingest.Normalize(rows, key)
		return int64(len(data)), int64(len(records)), err
	})
	if err != nil {
		log.Printf("session %s: skipping %s: %v", s.id, key, err)
		return nil
	}

	return records
}

// Records returns the current snapshot. Callers must treat it as read-only.
func (s *Session) Records() []models.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Stats reports the outcome of the last reload.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Files: s.files, Skipped: s.skipped, Records: len(s.records), LoadedAt: s.loadedAt}
}

// LastLoadReport returns the per-file timing report of the last reload, or
// nil before the first one.
func (s *Session) LastLoadReport() *metrics.LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// SetDateRange stores the active inclusive date range. A zero pair clears
// it.
func (s *Session) SetDateRange(start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startDate, s.endDate = start, end
}

// DateRange returns the active date range; ok is false when none is set.
func (s *Session) DateRange() (start, end time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startDate, s.endDate, !s.startDate.IsZero() && !s.endDate.IsZero()
}

// SetTypeFilters stores which transaction types the caller wants in filtered
// views.
func (s *Session) SetTypeFilters(created, paid, refunded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showCreated, s.showPaid, s.showRefunded = created, paid, refunded
}

// TypeFilters returns the active type filter flags.
func (s *Session) TypeFilters() (created, paid, refunded bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showCreated, s.showPaid, s.showRefunded
}

// Filtered applies the active date range and type flags to the snapshot and
// returns the matching records. Without a date range the whole dated-or-not
// snapshot passes through the type filter.
func (s *Session) Filtered() []models.TransactionRecord {
	s.mu.RLock()
	records := s.records
	start, end := s.startDate, s.endDate
	created, paid, refunded := s.showCreated, s.showPaid, s.showRefunded
	s.mu.RUnlock()

	if !start.IsZero() && !end.IsZero() {
		records = analytics.FilterByDateRange(records, start, end)
	}

	if created && paid && refunded {
		return records
	}
	filtered := make([]models.TransactionRecord, 0, len(records))
	for _, rec := range records {
		switch rec.InvoiceType {
		case models.Created:
			if created {
				filtered = append(filtered, rec)
			}
		case models.Paid:
			if paid {
				filtered = append(filtered, rec)
			}
		case models.Refunded:
			if refunded {
				filtered = append(filtered, rec)
			}
		}
	}
	return filtered
}

// DefaultDateRange is the trailing week of the dataset, clamped to the
// available dates. ok is false when the snapshot has no dated records.
func (s *Session) DefaultDateRange() (start, end time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var min, max time.Time
	for _, rec := range s.records {
		if !rec.HasDate() {
			continue
		}
		if min.IsZero() || rec.Date.Before(min) {
			min = rec.Date
		}
		if max.IsZero() || rec.Date.After(max) {
			max = rec.Date
		}
	}
	if min.IsZero() {
		return time.Time{}, time.Time{}, false
	}

	start = max.AddDate(0, 0, -7)
	if start.Before(min) {
		start = min
	}
	return start, max, true
}
