package analytics

import (
	"sort"
	"time"

	"github.com/giftagram/gift-insights/pkg/models"
)

// Presentation caps for the retention views.
const (
	maxRetentionDays = 30
	maxCohortRows    = 10
	maxCohortDays    = 14
)

// RetentionRow reports how many distinct users returned exactly Day days
// after their first transaction.
type RetentionRow struct {
	Day           int     `json:"day"`
	ReturnedUsers int     `json:"returnedUsers"`
	RetentionRate float64 `json:"retentionRate"`
}

// RetentionReport is the day-N retention table. TotalUsers counts every
// distinct user with at least one dated record, regardless of the day-30
// display cap.
type RetentionReport struct {
	Rows       []RetentionRow `json:"rows"`
	TotalUsers int            `json:"totalUsers"`
	Truncated  bool           `json:"truncated"`
}

// CohortRow is one cohort of the retention matrix. Cells maps day number to
// retention rate; a missing key means no activity was observed, which is
// distinct from a zero rate.
type CohortRow struct {
	Cohort time.Time       `json:"cohort"`
	Size   int             `json:"size"`
	Cells  map[int]float64 `json:"cells"`
}

// RetentionSummary holds the mean retention rate across cohorts at the three
// reference day numbers. The Has flags are false when no cohort contributes
// to that column (insufficient data).
type RetentionSummary struct {
	Day1     float64 `json:"day1"`
	HasDay1  bool    `json:"hasDay1"`
	Day7     float64 `json:"day7"`
	HasDay7  bool    `json:"hasDay7"`
	Day14    float64 `json:"day14"`
	HasDay14 bool    `json:"hasDay14"`
}

// CohortReport is the cohort retention matrix, capped for presentation to
// the earliest ten cohorts and day numbers up to 14. The summary is computed
// over the full, uncapped matrix.
type CohortReport struct {
	Rows             []CohortRow      `json:"rows"`
	Summary          RetentionSummary `json:"summary"`
	TruncatedCohorts bool             `json:"truncatedCohorts"`
	TruncatedDays    bool             `json:"truncatedDays"`
}

// DayNRetention computes day-N retention over the given records (the caller
// restricts them to Paid). For each user the first dated transaction marks
// day zero; day-zero activity itself never counts as a return. Rows are
// ascending by day and capped at day 30 for display; the cap affects the
// rows only, never TotalUsers.
func DayNRetention(records []models.TransactionRecord) RetentionReport {
	first := firstDates(records)
	report := RetentionReport{TotalUsers: len(first)}
	if report.TotalUsers == 0 {
		return report
	}

	returned := make(map[int]map[string]struct{})
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		diff := daysBetween(first[rec.UserID], dayOf(rec.Date))
		if diff == 0 {
			continue
		}
		users, ok := returned[diff]
		if !ok {
			users = make(map[string]struct{})
			returned[diff] = users
		}
		users[rec.UserID] = struct{}{}
	}

	days := make([]int, 0, len(returned))
	for day := range returned {
		days = append(days, day)
	}
	sort.Ints(days)

	for _, day := range days {
		if day > maxRetentionDays {
			report.Truncated = true
			break
		}
		n := len(returned[day])
		report.Rows = append(report.Rows, RetentionRow{
			Day:           day,
			ReturnedUsers: n,
			RetentionRate: round2(float64(n) / float64(report.TotalUsers) * 100),
		})
	}

	return report
}

// CohortAnalysis assigns each user to the cohort of their first dated
// transaction and computes the retention rate of every (cohort, day number)
// cell with observed activity.
func CohortAnalysis(records []models.TransactionRecord) CohortReport {
	first := firstDates(records)
	var report CohortReport
	if len(first) == 0 {
		return report
	}

	cohortSize := make(map[time.Time]int)
	for _, cohort := range first {
		cohortSize[cohort]++
	}

	// Distinct active users per (cohort, activity date).
	active := make(map[time.Time]map[time.Time]map[string]struct{})
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		cohort := first[rec.UserID]
		day := dayOf(rec.Date)
		if active[cohort] == nil {
			active[cohort] = make(map[time.Time]map[string]struct{})
		}
		if active[cohort][day] == nil {
			active[cohort][day] = make(map[string]struct{})
		}
		active[cohort][day][rec.UserID] = struct{}{}
	}

	cohorts := make([]time.Time, 0, len(cohortSize))
	for cohort := range cohortSize {
		cohorts = append(cohorts, cohort)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Before(cohorts[j]) })

	full := make([]CohortRow, 0, len(cohorts))
	for _, cohort := range cohorts {
		row := CohortRow{Cohort: cohort, Size: cohortSize[cohort], Cells: make(map[int]float64)}
		for day, users := range active[cohort] {
			dayNumber := daysBetween(cohort, day)
			row.Cells[dayNumber] = round2(float64(len(users)) / float64(row.Size) * 100)
		}
		full = append(full, row)
	}

	report.Summary = summarize(full)
	report.Rows, report.TruncatedCohorts, report.TruncatedDays = capMatrix(full)
	return report
}

// summarize averages each reference column over every cohort that has the
// cell, on the uncapped matrix.
func summarize(rows []CohortRow) RetentionSummary {
	mean := func(day int) (float64, bool) {
		sum, n := 0.0, 0
		for _, row := range rows {
			if rate, ok := row.Cells[day]; ok {
				sum += rate
				n++
			}
		}
		if n == 0 {
			return 0, false
		}
		return round2(sum / float64(n)), true
	}

	var s RetentionSummary
	s.Day1, s.HasDay1 = mean(1)
	s.Day7, s.HasDay7 = mean(7)
	s.Day14, s.HasDay14 = mean(14)
	return s
}

func capMatrix(full []CohortRow) ([]CohortRow, bool, bool) {
	truncatedCohorts := len(full) > maxCohortRows
	if truncatedCohorts {
		full = full[:maxCohortRows]
	}

	truncatedDays := false
	capped := make([]CohortRow, len(full))
	for i, row := range full {
		cells := make(map[int]float64, len(row.Cells))
		for day, rate := range row.Cells {
			if day > maxCohortDays {
				truncatedDays = true
				continue
			}
			cells[day] = rate
		}
		capped[i] = CohortRow{Cohort: row.Cohort, Size: row.Size, Cells: cells}
	}

	return capped, truncatedCohorts, truncatedDays
}

// firstDates returns each user's earliest dated transaction day. Users with
// no dated records are absent.
func firstDates(records []models.TransactionRecord) map[string]time.Time {
	first := make(map[string]time.Time)
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		day := dayOf(rec.Date)
		if existing, ok := first[rec.UserID]; !ok || day.Before(existing) {
			first[rec.UserID] = day
		}
	}
	return first
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
