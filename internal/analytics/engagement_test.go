package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftagram/gift-insights/pkg/models"
)

func TestEngagement_Distribution(t *testing.T) {
	// u1: 1 spin, u2: 1 spin, u3: 2 spins, u4: 5 spins
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
		rec("u3", models.Paid, 25, "2025-04-09", 0),
		rec("u3", models.Paid, 25, "2025-04-10", 0),
		rec("u4", models.Paid, 25, "2025-04-09", 0),
		rec("u4", models.Paid, 25, "2025-04-09", 0),
		rec("u4", models.Paid, 25, "2025-04-10", 0),
		rec("u4", models.Paid, 25, "2025-04-10", 0),
		rec("u4", models.Paid, 25, "2025-04-11", 0),
	}

	report := Engagement(records)
	assert.Equal(t, 4, report.TotalUsers)
	assert.Equal(t, 3, report.DistinctCounts)
	assert.False(t, report.Truncated)
	require.Len(t, report.Rows, 3)

	assert.Equal(t, UserEngagementRow{SpinCount: 1, UserCount: 2, Percentage: 50}, report.Rows[0])
	assert.Equal(t, UserEngagementRow{SpinCount: 2, UserCount: 1, Percentage: 25}, report.Rows[1])
	assert.Equal(t, UserEngagementRow{SpinCount: 5, UserCount: 1, Percentage: 25}, report.Rows[2])
}

func TestEngagement_PercentageRounding(t *testing.T) {
	// 3 users, one count value each: 33.333... rounds to 33.33
	records := []models.TransactionRecord{
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
		rec("u3", models.Paid, 25, "2025-04-09", 0),
		rec("u3", models.Paid, 25, "2025-04-09", 0),
		rec("u3", models.Paid, 25, "2025-04-09", 0),
	}

	report := Engagement(records)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, 33.33, report.Rows[0].Percentage)
}

func TestEngagement_CapsToSmallestTen(t *testing.T) {
	// 12 users with 12 distinct counts: 1..12 spins
	var records []models.TransactionRecord
	for u := 1; u <= 12; u++ {
		for n := 0; n < u; n++ {
			records = append(records, rec(fmt.Sprintf("u%d", u), models.Paid, 25, "2025-04-09", 0))
		}
	}

	report := Engagement(records)
	assert.Equal(t, 12, report.DistinctCounts)
	assert.True(t, report.Truncated)
	require.Len(t, report.Rows, 10)
	assert.Equal(t, 1, report.Rows[0].SpinCount)
	assert.Equal(t, 10, report.Rows[9].SpinCount)
}

func TestEngagement_Empty(t *testing.T) {
	report := Engagement(nil)
	assert.Equal(t, 0, report.TotalUsers)
	assert.Empty(t, report.Rows)
}

func TestDailyEngagement_NormalizesPerDay(t *testing.T) {
	records := []models.TransactionRecord{
		// Day 1: u1 with 2 spins, u2 with 1 spin
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u1", models.Paid, 25, "2025-04-09", 0),
		rec("u2", models.Paid, 25, "2025-04-09", 0),
		// Day 3: only u1 with 1 spin
		rec("u1", models.Paid, 25, "2025-04-11", 0),
	}

	rows := DailyEngagement(records, day(t, "2025-04-09"), day(t, "2025-04-11"))
	require.Len(t, rows, 3)

	assert.Equal(t, day(t, "2025-04-09"), rows[0].Date)
	assert.Equal(t, 1, rows[0].SpinCount)
	assert.Equal(t, 1, rows[0].UserCount)
	assert.Equal(t, 50.0, rows[0].Percentage)

	assert.Equal(t, 2, rows[1].SpinCount)
	assert.Equal(t, 50.0, rows[1].Percentage)

	// The empty 2025-04-10 contributes nothing; day 3 normalizes against
	// its own single active user.
	assert.Equal(t, day(t, "2025-04-11"), rows[2].Date)
	assert.Equal(t, 100.0, rows[2].Percentage)
}

func TestAverages(t *testing.T) {
	records := []models.TransactionRecord{
		rec("u1", models.Created, 10, "2025-04-09", 0),
		rec("u1", models.Paid, 30, "2025-04-09", 0),
		rec("u2", models.Paid, 50, "2025-04-09", 0),
	}
	paid := FilterByType(records, models.Paid)

	avg := Averages(records, paid)
	assert.InDelta(t, 1.5, avg.TransactionsPerUser, 1e-9)
	assert.InDelta(t, 40.0, avg.AmountPerUser, 1e-9)
}

func TestAverages_Empty(t *testing.T) {
	avg := Averages(nil, nil)
	assert.Zero(t, avg.TransactionsPerUser)
	assert.Zero(t, avg.AmountPerUser)
}
