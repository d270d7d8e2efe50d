package analytics

import (
	"github.com/giftagram/gift-insights/pkg/models"
)

// TierBucket is the count and amount sum of one amount tier.
type TierBucket struct {
	Tier        models.Tier `json:"tier"`
	Count       int         `json:"count"`
	TotalAmount float64     `json:"totalAmount"`
}

// TierBreakdown groups records by amount tier. The three tiers are always
// emitted in the fixed 25 / 50 / 100+ order; tiers with no matches report
// zero count and zero amount.
func TierBreakdown(records []models.TransactionRecord) [3]TierBucket {
	var buckets [3]TierBucket
	index := make(map[models.Tier]int, len(models.TierOrder))
	for i, tier := range models.TierOrder {
		buckets[i].Tier = tier
		index[tier] = i
	}

	for _, rec := range records {
		i := index[models.TierFor(rec.Amount)]
		buckets[i].Count++
		buckets[i].TotalAmount += rec.Amount
	}

	return buckets
}
