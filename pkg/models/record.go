package models

import (
	"time"
)

// DateLayout is the calendar-day format used across reports and file keys.
const DateLayout = "2006-01-02"

// InvoiceType represents the lifecycle stage of a gift transaction.
// The numeric values are the codes used in the funds-log files.
type InvoiceType int

const (
	// Created represents an invoice that was opened but not yet paid
	Created InvoiceType = 0
	// Paid represents a completed payment
	Paid InvoiceType = 1
	// Refunded represents a payment that was returned
	Refunded InvoiceType = 2
)

// String implements fmt.Stringer.
func (t InvoiceType) String() string {
	switch t {
	case Created:
		return "Created"
	case Paid:
		return "Paid"
	case Refunded:
		return "Refunded"
	default:
		return "Unknown"
	}
}

// InvoiceTypeFromName maps a textual type name back to its code. The match is
// exact; anything else reports false so callers can apply the Created default.
func InvoiceTypeFromName(name string) (InvoiceType, bool) {
	switch name {
	case "Created", "created":
		return Created, true
	case "Paid", "paid":
		return Paid, true
	case "Refunded", "refunded":
		return Refunded, true
	default:
		return Created, false
	}
}

// TransactionRecord is one normalized row of a funds-log file.
//
// Records are immutable once normalized; analyzers never mutate them.
// A synthesized UserID (assigned when the source row carried none) is the
// row's position within its file and is unique only within that file's
// synthesized range, not globally.
type TransactionRecord struct {
	UserID      string      `json:"userId"`
	InvoiceType InvoiceType `json:"invoiceType"`
	Amount      float64     `json:"amount"`
	Timestamp   int64       `json:"timestamp,omitempty"` // epoch seconds, 0 when absent
	Date        time.Time   `json:"date,omitempty"`      // UTC midnight, zero when undefined
	Hour        int         `json:"hour"`                // 0..23
	SourceFile  string      `json:"sourceFile"`
}

// HasDate reports whether the record carries a usable calendar date.
// Records without one are kept for totals but excluded from date-bucketed
// views.
func (r TransactionRecord) HasDate() bool {
	return !r.Date.IsZero()
}
