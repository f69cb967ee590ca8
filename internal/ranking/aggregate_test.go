package ranking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

func TestAggregate_GroupsByBusiness(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(2, "500", "750", "2025-01-01", datePtr("2025-01-11")),
		campaign(1, "1000", "2000", "2025-01-01", datePtr("2025-01-31")),
		campaign(2, "500", "", "2025-02-01", datePtr("2025-02-06")),
	}
	directory := Directory([]domain.Business{
		{ID: 1, Name: "Bella Pizza", Type: "restaurant"},
		{ID: 2, Name: "Glow Salon", Type: "salon"},
	})

	aggs := Aggregate(campaigns, directory, asOf, false)
	require.Len(t, aggs, 2)

	// first appearance order
	assert.Equal(t, int64(2), aggs[0].BusinessID)
	assert.Equal(t, int64(1), aggs[1].BusinessID)

	salon := aggs[0]
	assert.Equal(t, "Glow Salon", salon.BusinessName)
	assert.Equal(t, "salon", salon.BusinessType)
	assert.True(t, decimal.RequireFromString("1000").Equal(salon.TotalSpent))
	assert.True(t, decimal.RequireFromString("750").Equal(salon.TotalRevenue))
	assert.Equal(t, 15, salon.TotalDurationDays)
	assert.Equal(t, 2, salon.CampaignCount)
	assert.InDelta(t, -25.0, salon.ROI, 1e-9)
	assert.InDelta(t, 0.75, salon.ROAS, 1e-9)
	assert.Nil(t, salon.Campaigns)

	pizza := aggs[1]
	assert.Equal(t, 100.0, pizza.ROI)
	assert.Equal(t, 2.0, pizza.ROAS)
	assert.Equal(t, 30, pizza.TotalDurationDays)
}

func TestAggregate_OverlappingDurationsAreSummed(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(1, "100", "200", "2025-01-01", datePtr("2025-01-31")),
		campaign(1, "100", "200", "2025-01-01", datePtr("2025-01-31")),
	}

	aggs := Aggregate(campaigns, nil, asOf, true)
	require.Len(t, aggs, 1)
	assert.Equal(t, 60, aggs[0].TotalDurationDays)
	assert.Len(t, aggs[0].Campaigns, 2)
}

func TestAggregate_EmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil, asOf, false))
}

func TestAggregate_ZeroSpendBusiness(t *testing.T) {
	aggs := Aggregate([]domain.CampaignRecord{
		campaign(7, "0", "500", "2025-01-01", datePtr("2025-01-31")),
	}, nil, asOf, false)

	require.Len(t, aggs, 1)
	assert.Equal(t, 0.0, aggs[0].ROI)
	assert.Equal(t, 0.0, aggs[0].ROAS)
}
