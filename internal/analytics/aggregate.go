package analytics

import (
	"time"

	"github.com/giftagram/gift-insights/pkg/models"
)

// TypeCounts holds per-InvoiceType record counts plus their combined total.
type TypeCounts struct {
	Created  int `json:"created"`
	Paid     int `json:"paid"`
	Refunded int `json:"refunded"`
	Total    int `json:"total"`
}

func (c *TypeCounts) add(t models.InvoiceType) {
	switch t {
	case models.Created:
		c.Created++
	case models.Paid:
		c.Paid++
	case models.Refunded:
		c.Refunded++
	}
	c.Total++
}

// DailyBucket is the transaction volume of one calendar day.
type DailyBucket struct {
	Date time.Time `json:"date"`
	TypeCounts
}

// HourlyBucket is the transaction volume of one hour of day.
type HourlyBucket struct {
	Hour int `json:"hour"`
	TypeCounts
}

// DailyVolume buckets records by calendar day over the inclusive
// [start, end] range. Every day in the range gets a bucket, zero-filled when
// nothing matched, sorted ascending. Records without a usable date are
// excluded from the buckets but counted in the second return value.
func DailyVolume(records []models.TransactionRecord, start, end time.Time) ([]DailyBucket, TypeCounts) {
	start = dayOf(start)
	end = dayOf(end)

	byDay := make(map[time.Time]*TypeCounts)
	var undated TypeCounts

	for _, rec := range records {
		if !rec.HasDate() {
			undated.add(rec.InvoiceType)
			continue
		}
		day := dayOf(rec.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		counts, ok := byDay[day]
		if !ok {
			counts = &TypeCounts{}
			byDay[day] = counts
		}
		counts.add(rec.InvoiceType)
	}

	var buckets []DailyBucket
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		bucket := DailyBucket{Date: day}
		if counts, ok := byDay[day]; ok {
			bucket.TypeCounts = *counts
		}
		buckets = append(buckets, bucket)
	}

	return buckets, undated
}

// HourlyVolume buckets records by hour of day. All 24 hours are always
// present, ascending, zero-filled.
func HourlyVolume(records []models.TransactionRecord) [24]HourlyBucket {
	var buckets [24]HourlyBucket
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, rec := range records {
		if rec.Hour < 0 || rec.Hour > 23 {
			continue
		}
		buckets[rec.Hour].add(rec.InvoiceType)
	}
	return buckets
}

// FilterByDateRange returns the records whose date falls in the inclusive
// [start, end] range. Records without a usable date are excluded; they only
// take part in un-dated totals.
func FilterByDateRange(records []models.TransactionRecord, start, end time.Time) []models.TransactionRecord {
	start = dayOf(start)
	end = dayOf(end)

	filtered := make([]models.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		day := dayOf(rec.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// FilterByType returns the records with the given invoice type.
func FilterByType(records []models.TransactionRecord, t models.InvoiceType) []models.TransactionRecord {
	filtered := make([]models.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if rec.InvoiceType == t {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
