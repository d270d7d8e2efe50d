package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/giftagram/gift-insights/pkg/models"
)

// maxEngagementRows caps the distribution to its smallest count values for
// presentation.
const maxEngagementRows = 10

// UserEngagementRow reports how many distinct users made exactly SpinCount
// transactions, and their share of all distinct users.
type UserEngagementRow struct {
	SpinCount  int     `json:"spinCount"`
	UserCount  int     `json:"userCount"`
	Percentage float64 `json:"percentage"`
}

// EngagementReport is the distribution of users by transaction count.
type EngagementReport struct {
	Rows           []UserEngagementRow `json:"rows"`
	TotalUsers     int                 `json:"totalUsers"`
	DistinctCounts int                 `json:"distinctCounts"`
	Truncated      bool                `json:"truncated"`
}

// DailyEngagementRow is one distribution row of one calendar day, with the
// percentage normalized against that day's distinct active users.
type DailyEngagementRow struct {
	Date       time.Time `json:"date"`
	SpinCount  int       `json:"spinCount"`
	UserCount  int       `json:"userCount"`
	Percentage float64   `json:"percentage"`
}

// UserAverages holds the per-user means over a record set.
type UserAverages struct {
	TransactionsPerUser float64 `json:"transactionsPerUser"`
	AmountPerUser       float64 `json:"amountPerUser"`
}

// Engagement computes the distribution of distinct users by their total
// transaction count over the given records. Rows come out ascending by
// count, capped to the smallest ten values with Truncated set when more
// exist. The caller picks the record subset (typically Paid only).
func Engagement(records []models.TransactionRecord) EngagementReport {
	perUser := countsPerUser(records)
	report := EngagementReport{TotalUsers: len(perUser)}
	if report.TotalUsers == 0 {
		return report
	}

	distribution := make(map[int]int)
	for _, n := range perUser {
		distribution[n]++
	}
	report.DistinctCounts = len(distribution)

	counts := make([]int, 0, len(distribution))
	for n := range distribution {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	if len(counts) > maxEngagementRows {
		counts = counts[:maxEngagementRows]
		report.Truncated = true
	}

	for _, n := range counts {
		report.Rows = append(report.Rows, UserEngagementRow{
			SpinCount:  n,
			UserCount:  distribution[n],
			Percentage: round2(float64(distribution[n]) / float64(report.TotalUsers) * 100),
		})
	}

	return report
}

// DailyEngagement repeats the engagement computation independently for each
// calendar day in the inclusive [start, end] range. Percentages are
// normalized against the day's distinct active users, not the global total.
// Days with no activity contribute no rows.
func DailyEngagement(records []models.TransactionRecord, start, end time.Time) []DailyEngagementRow {
	byDay := make(map[time.Time][]models.TransactionRecord)
	for _, rec := range FilterByDateRange(records, start, end) {
		day := dayOf(rec.Date)
		byDay[day] = append(byDay[day], rec)
	}

	var rows []DailyEngagementRow
	for day := dayOf(start); !day.After(dayOf(end)); day = day.AddDate(0, 0, 1) {
		dayRecords, ok := byDay[day]
		if !ok {
			continue
		}
		perUser := countsPerUser(dayRecords)
		distribution := make(map[int]int)
		for _, n := range perUser {
			distribution[n]++
		}
		counts := make([]int, 0, len(distribution))
		for n := range distribution {
			counts = append(counts, n)
		}
		sort.Ints(counts)
		for _, n := range counts {
			rows = append(rows, DailyEngagementRow{
				Date:       day,
				SpinCount:  n,
				UserCount:  distribution[n],
				Percentage: round2(float64(distribution[n]) / float64(len(perUser)) * 100),
			})
		}
	}

	return rows
}

// Averages computes the mean transaction count per user over records and the
// mean summed amount per user over amountRecords. The two subsets differ
// because amount metrics always restrict to paid transactions while the
// count metric follows the caller's type filter.
func Averages(records, amountRecords []models.TransactionRecord) UserAverages {
	var avg UserAverages

	perUser := countsPerUser(records)
	if len(perUser) > 0 {
		total := 0
		for _, n := range perUser {
			total += n
		}
		avg.TransactionsPerUser = float64(total) / float64(len(perUser))
	}

	amounts := make(map[string]float64)
	for _, rec := range amountRecords {
		amounts[rec.UserID] += rec.Amount
	}
	if len(amounts) > 0 {
		total := 0.0
		for _, sum := range amounts {
			total += sum
		}
		avg.AmountPerUser = total / float64(len(amounts))
	}

	return avg
}

func countsPerUser(records []models.TransactionRecord) map[string]int {
	perUser := make(map[string]int)
	for _, rec := range records {
		perUser[rec.UserID]++
	}
	return perUser
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
