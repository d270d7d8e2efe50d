package models

// Tier is the coarse amount bucket a transaction falls into, measured in
// stars.
type Tier string

const (
	// Tier25 covers amounts up to and including 25 stars
	Tier25 Tier = "25 Stars"
	// Tier50 covers amounts above 25 up to and including 50 stars
	Tier50 Tier = "50 Stars"
	// Tier100Plus covers everything above 50 stars
	Tier100Plus Tier = "100+ Stars"
)

// TierOrder is the fixed presentation order for tier breakdowns.
var TierOrder = [3]Tier{Tier25, Tier50, Tier100Plus}

// TierFor maps a transaction amount to its tier. Boundaries are inclusive at
// the lower tier: 25 is still "25 Stars", 50 is still "50 Stars".
func TierFor(amount float64) Tier {
	switch {
	case amount <= 25:
		return Tier25
	case amount <= 50:
		return Tier50
	default:
		return Tier100Plus
	}
}
