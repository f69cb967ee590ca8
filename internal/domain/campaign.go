package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignPayload is a campaign as delivered by the upstream API or a push caller.
// Dates are still strings; amounts accept JSON numbers or decimal strings.
type CampaignPayload struct {
	ID           string              `json:"id,omitempty"`
	BusinessID   int64               `json:"business_id"`
	AdMethodID   int64               `json:"ad_method_id"`
	AmountSpent  decimal.Decimal     `json:"amount_spent"`
	AmountEarned decimal.NullDecimal `json:"amount_earned"`
	StartDate    string              `json:"start_date"`
	EndDate      *string             `json:"end_date,omitempty"`
}

type CampaignFeed struct {
	Campaigns []CampaignPayload `json:"campaigns"`
}

type BusinessFeed struct {
	Businesses []Business `json:"businesses"`
}

// CampaignRecord is a validated campaign ready for the ranking pipeline.
type CampaignRecord struct {
	ID           string              `json:"id"`
	BusinessID   int64               `json:"business_id"`
	AdMethodID   int64               `json:"ad_method_id"`
	AmountSpent  decimal.Decimal     `json:"amount_spent"`
	AmountEarned decimal.NullDecimal `json:"amount_earned"`
	StartDate    time.Time           `json:"start_date"`
	EndDate      *time.Time          `json:"end_date,omitempty"`
}

// Earned returns the attributed revenue, zero when absent.
func (c CampaignRecord) Earned() decimal.Decimal {
	if !c.AmountEarned.Valid {
		return decimal.Zero
	}
	return c.AmountEarned.Decimal
}

// IsOngoing reports whether the campaign has no end date yet.
func (c CampaignRecord) IsOngoing() bool {
	return c.EndDate == nil
}

type Business struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (b Business) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// filters for selecting campaigns from a repository
type CampaignFilter struct {
	AdMethodID int64 `json:"ad_method_id,omitempty"`
	// nil means every business; an empty non-nil slice matches nothing
	BusinessIDs []int64 `json:"business_ids,omitempty"`
}

// Matches applies the filter to a single record.
func (f CampaignFilter) Matches(c CampaignRecord) bool {
	if f.AdMethodID != 0 && c.AdMethodID != f.AdMethodID {
		return false
	}
	if f.BusinessIDs == nil {
		return true
	}
	for _, id := range f.BusinessIDs {
		if id == c.BusinessID {
			return true
		}
	}
	return false
}
