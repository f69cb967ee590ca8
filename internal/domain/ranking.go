package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TimeBasis string

const (
	TimeBasisDaily   TimeBasis = "daily"
	TimeBasisWeekly  TimeBasis = "weekly"
	TimeBasisMonthly TimeBasis = "monthly"
	TimeBasisAll     TimeBasis = "all"
)

// ParseTimeBasis accepts daily, weekly, monthly or all in any case.
// An empty string yields fallback.
func ParseTimeBasis(s string, fallback TimeBasis) (TimeBasis, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	switch tb := TimeBasis(strings.ToLower(strings.TrimSpace(s))); tb {
	case TimeBasisDaily, TimeBasisWeekly, TimeBasisMonthly, TimeBasisAll:
		return tb, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeBasis, s)
}

// Days is the number of days one unit of the basis represents; zero for all.
func (tb TimeBasis) Days() int {
	switch tb {
	case TimeBasisDaily:
		return 1
	case TimeBasisWeekly:
		return 7
	case TimeBasisMonthly:
		return 30
	}
	return 0
}

// per-business totals across the filtered comparison set
type BusinessAggregate struct {
	BusinessID        int64            `json:"business_id"`
	BusinessName      string           `json:"business_name,omitempty"`
	BusinessType      string           `json:"business_type,omitempty"`
	TotalSpent        decimal.Decimal  `json:"total_cost"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	TotalDurationDays int              `json:"total_duration_days"`
	CampaignCount     int              `json:"campaign_count"`
	ROI               float64          `json:"roi"`
	ROAS              float64          `json:"roas"`
	Campaigns         []CampaignRecord `json:"campaigns,omitempty"`
}

type NormalizedAggregate struct {
	BusinessAggregate
	TimeBasis      TimeBasis `json:"time_basis"`
	Normalized     bool      `json:"normalized"`
	NormalizedROI  float64   `json:"normalized_roi"`
	NormalizedROAS float64   `json:"normalized_roas"`
}

type RankedEntry struct {
	Rank int `json:"rank"`
	NormalizedAggregate
}

type Metric string

const (
	MetricROI     Metric = "roi"
	MetricSpend   Metric = "spend"
	MetricRevenue Metric = "revenue"
)

// pairwise comparison of a subject business against a reference business
type ComparisonInsight struct {
	Metric            Metric  `json:"metric"`
	SubjectValue      float64 `json:"subject_value"`
	ReferenceValue    float64 `json:"reference_value"`
	PercentDifference float64 `json:"percent_difference"`
	IsFavorable       bool    `json:"is_favorable"`
	Recommendation    string  `json:"recommendation"`
}

// RankingResult is the output of one pipeline run. TargetRank, TopPerformer and
// Reference are nil when there is not enough data.
type RankingResult struct {
	TimeBasis         TimeBasis           `json:"time_basis"`
	Normalize         bool                `json:"normalize"`
	AsOf              time.Time           `json:"as_of"`
	ComparisonSetSize int                 `json:"comparison_set_size"`
	Entries           []RankedEntry       `json:"entries"`
	TargetBusinessID  int64               `json:"target_business_id"`
	TargetRank        *int                `json:"target_rank"`
	TopPerformer      *RankedEntry        `json:"top_performer"`
	Reference         *RankedEntry        `json:"reference"`
	Insights          []ComparisonInsight `json:"insights"`
}

// RankingQuery describes a ranking request against stored campaigns.
type RankingQuery struct {
	TargetBusinessID    int64     `json:"business_id"`
	CompareToBusinessID int64     `json:"compare_to,omitempty"`
	TimeBasis           TimeBasis `json:"time_basis"`
	Normalize           bool      `json:"normalize"`
	AdMethodID          int64     `json:"ad_method_id,omitempty"`
	BusinessType        string    `json:"business_type,omitempty"`
	RadiusKm            float64   `json:"radius_km,omitempty"`
	AsOf                time.Time `json:"as_of"`
	IncludeCampaigns    bool      `json:"include_campaigns,omitempty"`
}

// CacheKey identifies a query for result caching. AsOf contributes its date only.
func (q RankingQuery) CacheKey() string {
	return fmt.Sprintf("b=%d|c=%d|tb=%s|n=%t|am=%d|bt=%s|r=%g|asof=%s|ic=%t",
		q.TargetBusinessID, q.CompareToBusinessID, q.TimeBasis, q.Normalize,
		q.AdMethodID, strings.ToLower(q.BusinessType), q.RadiusKm,
		q.AsOf.UTC().Format("2006-01-02"), q.IncludeCampaigns)
}

// snapshot pushed to the export sink
type RankingSnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Query       RankingQuery  `json:"query"`
	Result      RankingResult `json:"result"`
}
