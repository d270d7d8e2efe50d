package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftagram/gift-insights/pkg/models"
)

func TestDayNRetention_TwoUserExample(t *testing.T) {
	// Both users first active on day 0; only u1 returns on day 1.
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u1", models.Paid, 25, "2025-04-10", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
	}

	report := DayNRetention(records)
	assert.Equal(t, 2, report.TotalUsers)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 1, report.Rows[0].Day)
	assert.Equal(t, 1, report.Rows[0].ReturnedUsers)
	assert.Equal(t, 50.0, report.Rows[0].RetentionRate)
}

func TestDayNRetention_DayZeroNeverCounts(t *testing.T) {
	// Repeated day-0 activity is still the first-activity event.
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u1", models.Paid, 25, "2025-04-09", 5),
		rec("u1", models.Paid, 25, "2025-04-09", 9),
	}

	report := DayNRetention(records)
	assert.Equal(t, 1, report.TotalUsers)
	assert.Empty(t, report.Rows)
}

func TestDayNRetention_CapsAtThirtyDays(t *testing.T) {
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-01", 0),
		rec("u1", models.Paid, 25, "2025-05-10", 0), // day 39
		rec("u2", models.Paid, 25, "2025-04-01", 0),
		rec("u2", models.Paid, 25, "2025-04-03", 0), // day 2
	}

	report := DayNRetention(records)
	assert.True(t, report.Truncated)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 2, report.Rows[0].Day)
	// The capped day-39 return still counts toward TotalUsers.
	assert.Equal(t, 2, report.TotalUsers)
	assert.Equal(t, 50.0, report.Rows[0].RetentionRate)
}

func TestDayNRetention_IgnoresUndated(t *testing.T) {
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "", 0),
	}

	report := DayNRetention(records)
	assert.Equal(t, 0, report.TotalUsers)
	assert.Empty(t, report.Rows)
}

func TestCohortAnalysis_TwoUserExample(t *testing.T) {
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u1", models.Paid, 25, "2025-04-10", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
	}

	report := CohortAnalysis(records)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, day(t, "2025-04-09"), row.Cohort)
	assert.Equal(t, 2, row.Size)
	assert.Equal(t, 100.0, row.Cells[0])
	assert.Equal(t, 50.0, row.Cells[1])

	_, present := row.Cells[2]
	assert.False(t, present, "days without activity are undefined, not zero")

	assert.True(t, report.Summary.HasDay1)
	assert.Equal(t, 50.0, report.Summary.Day1)
	assert.False(t, report.Summary.HasDay7)
	assert.False(t, report.Summary.HasDay14)
}

func TestCohortAnalysis_MultipleCohorts(t *testing.T) {
	records := []models.TransactionRecord{
		// Cohort 2025-04-09: two users, one returns next day
		rec("a1", models.Paid, 25, "2025-04-09", 0),
		rec("a1", models.Paid, 25, "2025-04-10", 0),
		rec("a2", models.Paid, 25, "2025-04-09", 0),
		// Cohort 2025-04-10: one user, returns next day
		rec("b1", models.Paid, 25, "2025-04-10", 0),
		rec("b1", models.Paid, 25, "2025-04-11", 0),
	}

	report := CohortAnalysis(records)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, day(t, "2025-04-09"), report.Rows[0].Cohort)
	assert.Equal(t, day(t, "2025-04-10"), report.Rows[1].Cohort)

	assert.Equal(t, 50.0, report.Rows[0].Cells[1])
	assert.Equal(t, 100.0, report.Rows[1].Cells[1])

	// Mean of 50 and 100 across the two cohorts.
	assert.True(t, report.Summary.HasDay1)
	assert.Equal(t, 75.0, report.Summary.Day1)
}

func TestCohortAnalysis_CapsCohortsAndDays(t *testing.T) {
	var records []models.TransactionRecord
	// 12 one-user cohorts on consecutive days; each user also returns 20
	// days after their first transaction.
	for i := 0; i < 12; i++ {
		user := fmt.Sprintf("u%d", i)
		first := day(t, "2025-04-01").AddDate(0, 0, i)
		records = append(records,
			models.TransactionRecord{UserID: user, InvoiceType: models.Paid, Amount: 25, Date: first},
			models.TransactionRecord{UserID: user, InvoiceType: models.Paid, Amount: 25, Date: first.AddDate(0, 0, 20)},
		)
	}

	report := CohortAnalysis(records)
	assert.True(t, report.TruncatedCohorts)
	assert.True(t, report.TruncatedDays)
	require.Len(t, report.Rows, 10)
	assert.Equal(t, day(t, "2025-04-01"), report.Rows[0].Cohort)

	for _, row := range report.Rows {
		for dayNumber := range row.Cells {
			assert.LessOrEqual(t, dayNumber, 14)
		}
	}
}

func TestCohortAnalysis_Empty(t *testing.T) {
	report := CohortAnalysis(nil)
	assert.Empty(t, report.Rows)
	assert.False(t, report.Summary.HasDay1)
}
