package ranking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

var asOf = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func campaign(businessID int64, spent, earned string, start string, end *time.Time) domain.CampaignRecord {
	c := domain.CampaignRecord{
		BusinessID:  businessID,
		AdMethodID:  1,
		AmountSpent: decimal.RequireFromString(spent),
		StartDate:   date(start),
		EndDate:     end,
	}
	if earned != "" {
		c.AmountEarned = decimal.NewNullDecimal(decimal.RequireFromString(earned))
	}
	return c
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name     string
		campaign domain.CampaignRecord
		want     int
	}{
		{
			name:     "thirty day span",
			campaign: campaign(1, "100", "0", "2025-01-01", datePtr("2025-01-31")),
			want:     30,
		},
		{
			name:     "ongoing campaign runs until as-of",
			campaign: campaign(1, "100", "0", "2025-03-01", nil),
			want:     30,
		},
		{
			name:     "same day clamps to one",
			campaign: campaign(1, "100", "0", "2025-01-01", datePtr("2025-01-01")),
			want:     1,
		},
		{
			name:     "end before start clamps to one",
			campaign: campaign(1, "100", "0", "2025-01-10", datePtr("2025-01-01")),
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DurationDays(tt.campaign, asOf))
		})
	}
}

func TestDurationDays_PartialDayRoundsUp(t *testing.T) {
	c := campaign(1, "100", "0", "2025-03-01", nil)
	assert.Equal(t, 31, DurationDays(c, asOf.Add(6*time.Hour)))
}

func TestROI_ZeroCost(t *testing.T) {
	for _, revenue := range []string{"0", "500", "123456.78"} {
		rev := decimal.RequireFromString(revenue)
		assert.Equal(t, 0.0, ROI(rev, decimal.Zero))
		assert.Equal(t, 0.0, ROAS(rev, decimal.Zero))
	}
}

func TestROI_SignConsistency(t *testing.T) {
	tests := []struct {
		revenue, cost string
		sign          int
	}{
		{"2000", "1000", 1},
		{"1000.01", "1000", 1},
		{"500", "1000", -1},
		{"0", "1000", -1},
		{"1000", "1000", 0},
	}

	for _, tt := range tests {
		roi := ROI(decimal.RequireFromString(tt.revenue), decimal.RequireFromString(tt.cost))
		switch tt.sign {
		case 1:
			assert.Greater(t, roi, 0.0, "revenue=%s cost=%s", tt.revenue, tt.cost)
		case -1:
			assert.Less(t, roi, 0.0, "revenue=%s cost=%s", tt.revenue, tt.cost)
		default:
			assert.Equal(t, 0.0, roi)
		}
	}
}

func TestROIAndROAS_Values(t *testing.T) {
	revenue := decimal.RequireFromString("2000")
	cost := decimal.RequireFromString("1000")

	assert.Equal(t, 100.0, ROI(revenue, cost))
	assert.Equal(t, 2.0, ROAS(revenue, cost))
	assert.InDelta(t, -50.0, ROI(decimal.RequireFromString("500"), cost), 1e-9)
	assert.InDelta(t, 0.5, ROAS(decimal.RequireFromString("500"), cost), 1e-9)
}
