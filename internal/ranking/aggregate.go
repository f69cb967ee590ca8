package ranking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// Aggregate groups campaigns by business and sums spend, revenue and duration.
// Overlapping campaigns contribute their full durations (advertising-days).
// Output order follows the first appearance of each business in campaigns;
// businesses without campaigns are not emitted. The directory only supplies
// display fields and may be nil.
func Aggregate(campaigns []domain.CampaignRecord, directory map[int64]domain.Business, asOf time.Time, keepCampaigns bool) []domain.BusinessAggregate {
	index := make(map[int64]int)
	var aggregates []domain.BusinessAggregate

	for _, c := range campaigns {
		i, ok := index[c.BusinessID]
		if !ok {
			agg := domain.BusinessAggregate{
				BusinessID:   c.BusinessID,
				TotalSpent:   decimal.Zero,
				TotalRevenue: decimal.Zero,
			}
			if b, found := directory[c.BusinessID]; found {
				agg.BusinessName = b.Name
				agg.BusinessType = b.Type
			}
			aggregates = append(aggregates, agg)
			i = len(aggregates) - 1
			index[c.BusinessID] = i
		}

		agg := &aggregates[i]
		agg.TotalSpent = agg.TotalSpent.Add(c.AmountSpent)
		agg.TotalRevenue = agg.TotalRevenue.Add(c.Earned())
		agg.TotalDurationDays += DurationDays(c, asOf)
		agg.CampaignCount++
		if keepCampaigns {
			agg.Campaigns = append(agg.Campaigns, c)
		}
	}

	for i := range aggregates {
		aggregates[i].ROI = ROI(aggregates[i].TotalRevenue, aggregates[i].TotalSpent)
		aggregates[i].ROAS = ROAS(aggregates[i].TotalRevenue, aggregates[i].TotalSpent)
	}

	return aggregates
}
