package ranking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

func TestRun_SingleCampaignScenario(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(1, "1000", "2000", "2025-01-01", datePtr("2025-01-31")),
	}

	monthly := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisMonthly, Normalize: true, TargetBusinessID: 1, AsOf: asOf})
	require.Len(t, monthly.Entries, 1)
	assert.Equal(t, 100.0, monthly.Entries[0].ROI)
	assert.Equal(t, 2.0, monthly.Entries[0].ROAS)
	assert.InDelta(t, 100.0, monthly.Entries[0].NormalizedROI, 1e-9)

	daily := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisDaily, Normalize: true, TargetBusinessID: 1, AsOf: asOf})
	assert.InDelta(t, 3.33, daily.Entries[0].NormalizedROI, 0.01)

	// sole business: no reference to compare against
	require.NotNil(t, daily.TargetRank)
	assert.Equal(t, 1, *daily.TargetRank)
	assert.Nil(t, daily.Reference)
	assert.Empty(t, daily.Insights)
}

func TestRun_ZeroSpendScenario(t *testing.T) {
	result := Run([]domain.CampaignRecord{
		campaign(2, "0", "500", "2025-01-01", datePtr("2025-01-31")),
	}, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 2, AsOf: asOf})

	require.Len(t, result.Entries, 1)
	assert.Equal(t, 0.0, result.Entries[0].ROI)
	assert.Equal(t, 0.0, result.Entries[0].ROAS)
}

func TestRun_RankAndInsights(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(1, "800", "1200", "2025-01-01", datePtr("2025-01-31")),  // roi 50
		campaign(2, "1000", "1800", "2025-01-01", datePtr("2025-01-31")), // roi 80
	}

	result := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 1, AsOf: asOf})

	require.NotNil(t, result.TargetRank)
	assert.Equal(t, 2, *result.TargetRank)
	require.NotNil(t, result.TopPerformer)
	assert.Equal(t, int64(2), result.TopPerformer.BusinessID)
	require.NotNil(t, result.Reference)
	assert.Equal(t, int64(2), result.Reference.BusinessID)

	require.Len(t, result.Insights, 3)
	spend := result.Insights[1]
	assert.Equal(t, domain.MetricSpend, spend.Metric)
	assert.InDelta(t, 25.0, spend.PercentDifference, 1e-9)
	assert.True(t, spend.IsFavorable)
}

func TestRun_TopPerformerComparesWithRunnerUp(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(1, "800", "1200", "2025-01-01", datePtr("2025-01-31")),
		campaign(2, "1000", "1800", "2025-01-01", datePtr("2025-01-31")),
		campaign(3, "1000", "1000", "2025-01-01", datePtr("2025-01-31")),
	}

	result := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 2, AsOf: asOf})
	require.NotNil(t, result.Reference)
	assert.Equal(t, int64(1), result.Reference.BusinessID)

	explicit := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 2, CompareToBusinessID: 3, AsOf: asOf})
	require.NotNil(t, explicit.Reference)
	assert.Equal(t, int64(3), explicit.Reference.BusinessID)

	missing := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 2, CompareToBusinessID: 99, AsOf: asOf})
	assert.Nil(t, missing.Reference)
	assert.Empty(t, missing.Insights)
}

func TestRun_RunnerUpWithNegativeROI(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(1, "1000", "1500", "2025-01-01", datePtr("2025-01-31")), // roi 50
		campaign(2, "1000", "900", "2025-01-01", datePtr("2025-01-31")),  // roi -10
	}

	result := Run(campaigns, nil, Params{TimeBasis: domain.TimeBasisAll, TargetBusinessID: 1, AsOf: asOf})
	require.NotNil(t, result.TargetRank)
	assert.Equal(t, 1, *result.TargetRank)
	require.NotNil(t, result.Reference)
	assert.Equal(t, int64(2), result.Reference.BusinessID)

	require.Len(t, result.Insights, 3)
	roi := result.Insights[0]
	assert.Equal(t, domain.MetricROI, roi.Metric)
	assert.True(t, roi.IsFavorable)
	assert.InDelta(t, 600.0, roi.PercentDifference, 1e-9)
	assert.Contains(t, roi.Recommendation, "competitive")
}

func TestRun_FilteredOutBusiness(t *testing.T) {
	result := Run([]domain.CampaignRecord{
		campaign(1, "100", "150", "2025-01-01", datePtr("2025-01-31")),
	}, nil, Params{TimeBasis: domain.TimeBasisMonthly, Normalize: true, TargetBusinessID: 5, AsOf: asOf})

	assert.Nil(t, result.TargetRank)
	assert.NotNil(t, result.TopPerformer)
	assert.Empty(t, result.Insights)
}

func TestRun_EmptySet(t *testing.T) {
	result := Run(nil, nil, Params{TimeBasis: domain.TimeBasisMonthly, Normalize: true, TargetBusinessID: 1, AsOf: asOf})

	assert.Equal(t, 0, result.ComparisonSetSize)
	assert.Nil(t, result.TargetRank)
	assert.Nil(t, result.TopPerformer)
	assert.Empty(t, result.Entries)
}

func TestRun_Idempotent(t *testing.T) {
	campaigns := []domain.CampaignRecord{
		campaign(3, "300", "900", "2025-01-05", datePtr("2025-02-05")),
		campaign(1, "800", "1200", "2025-01-01", nil),
		campaign(2, "1000", "1800", "2025-01-01", datePtr("2025-03-01")),
		campaign(1, "250", "", "2025-02-01", datePtr("2025-02-02")),
	}
	params := Params{TimeBasis: domain.TimeBasisWeekly, Normalize: true, TargetBusinessID: 1, AsOf: asOf, IncludeCampaigns: true}

	first, err := json.Marshal(Run(campaigns, nil, params))
	require.NoError(t, err)
	second, err := json.Marshal(Run(campaigns, nil, params))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
