// Package ranking turns campaign records into comparable per-business
// performance metrics, a ranked comparison set and pairwise insights.
// Every function in the package is pure: the as-of date is always an argument.
package ranking

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// DurationDays returns the campaign length in whole days, rounding partial days up.
// Ongoing campaigns run until asOf. The result is never below one day.
func DurationDays(c domain.CampaignRecord, asOf time.Time) int {
	end := asOf
	if c.EndDate != nil {
		end = *c.EndDate
	}

	days := int(math.Ceil(float64(end.Sub(c.StartDate)) / float64(day)))
	if days < 1 {
		return 1
	}
	return days
}

// ROI is ((revenue - cost) / cost) * 100, or 0 when cost is zero.
func ROI(revenue, cost decimal.Decimal) float64 {
	if cost.IsZero() {
		return 0
	}
	return revenue.Sub(cost).Div(cost).Mul(hundred).InexactFloat64()
}

// ROAS is revenue / cost, or 0 when cost is zero.
func ROAS(revenue, cost decimal.Decimal) float64 {
	if cost.IsZero() {
		return 0
	}
	return revenue.Div(cost).InexactFloat64()
}
