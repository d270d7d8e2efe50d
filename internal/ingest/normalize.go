package ingest

import (
	"log"
	"path"
	"strconv"
	"time"

	"github.com/giftagram/gift-insights/pkg/models"
	"github.com/giftagram/gift-insights/pkg/objectstore"
)

// Normalize converts raw rows into TransactionRecords, filling required
// fields and deriving the time attributes.
//
// Per-row rules:
//   - a missing UserId is synthesized from the row's position within the
//     file (file-scoped, not a global identity)
//   - a missing or unrecognized InvoiceType defaults to Created
//   - a missing Amount defaults to 0
//   - Date and Hour come from the epoch-seconds Timestamp when present,
//     otherwise from explicit Date/Hour columns, otherwise from the date and
//     hour embedded in the file key
//   - rows flagged TestMode are dropped
//
// A bad row is logged and dropped, never surfaced individually. The only
// error is *EmptyFileError, returned when every row was dropped.
func Normalize(rows []Row, key string) ([]models.TransactionRecord, error) {
	records := make([]models.TransactionRecord, 0, len(rows))
	sourceFile := path.Base(key)

	for i, row := range rows {
		if row == nil {
			log.Printf("dropping empty row %d in %s", i, key)
			continue
		}
		if testMode, ok := row["TestMode"].(bool); ok && testMode {
			continue
		}

		rec := models.TransactionRecord{
			InvoiceType: invoiceType(row["InvoiceType"]),
			SourceFile:  sourceFile,
		}

		if userID, ok := stringValue(row["UserId"]); ok {
			rec.UserID = userID
		} else {
			rec.UserID = strconv.Itoa(i)
		}

		if amount, ok := floatValue(row["Amount"]); ok {
			rec.Amount = amount
		}

		if ts, ok := floatValue(row["Timestamp"]); ok && ts > 0 {
			t := time.Unix(int64(ts), 0).UTC()
			rec.Timestamp = int64(ts)
			rec.Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			rec.Hour = t.Hour()
		} else {
			rec.Date, rec.Hour = fallbackDateHour(row, key)
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &EmptyFileError{Key: key}
	}

	return records, nil
}

// fallbackDateHour derives Date and Hour for rows without a timestamp:
// explicit Date/Hour columns win, then the pattern embedded in the file key.
// Hour defaults to 0; Date stays undefined when nothing matches.
func fallbackDateHour(row Row, key string) (time.Time, int) {
	var date time.Time
	hour := 0

	if s, ok := stringValue(row["Date"]); ok {
		if d, err := time.ParseInLocation(models.DateLayout, s, time.UTC); err == nil {
			date = d
		}
	}
	if date.IsZero() {
		if d, ok := objectstore.EmbeddedDate(key); ok {
			date = d
		}
	}

	if h, ok := floatValue(row["Hour"]); ok && h >= 0 && h <= 23 {
		hour = int(h)
	} else if h, ok := objectstore.EmbeddedHour(key); ok {
		hour = h
	}

	return date, hour
}

// invoiceType interprets the loosely-typed InvoiceType column: the numeric
// wire codes 0/1/2, their decimal-string forms, or the type names. Anything
// else is Created.
func invoiceType(v interface{}) models.InvoiceType {
	switch t := v.(type) {
	case float64:
		if code := models.InvoiceType(int(t)); code >= models.Created && code <= models.Refunded && float64(int(t)) == t {
			return code
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			if code := models.InvoiceType(n); code >= models.Created && code <= models.Refunded {
				return code
			}
		} else if code, ok := models.InvoiceTypeFromName(t); ok {
			return code
		}
	}
	return models.Created
}

// stringValue coerces the loosely-typed identifier columns. Integral numbers
// lose their JSON decimal point so "42" and 42 normalize identically.
func stringValue(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	default:
		return "", false
	}
}

func floatValue(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case string:
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
