package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
)

// rejection reasons, also used as metric labels
const (
	ReasonInvalidBusinessID = "invalid_business_id"
	ReasonNegativeSpend     = "negative_spend"
	ReasonNegativeRevenue   = "negative_revenue"
	ReasonInvalidStartDate  = "invalid_start_date"
	ReasonInvalidEndDate    = "invalid_end_date"
	ReasonEndBeforeStart    = "end_before_start"
)

// campaignNamespace seeds deterministic ids for payloads that arrive without one
var campaignNamespace = uuid.MustParse("8f0c7a52-3b9e-4d44-9a51-6f1f3c2a7e10")

var dateFormats = []string{
	"2006-01-02",          // YYYY-MM-DD
	time.RFC3339,          // 2006-01-02T15:04:05Z07:00
	"2006-01-02 15:04:05", // YYYY-MM-DD HH:MM:SS
	"2006-01-02T15:04:05", // no zone, read as UTC
	"2006/01/02",          // YYYY/MM/DD
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var (
		t   time.Time
		err error
	)
	for _, format := range dateFormats {
		t, err = time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ValidateCampaign turns a payload into a record or returns a *domain.ValidationError.
func ValidateCampaign(p domain.CampaignPayload) (domain.CampaignRecord, error) {
	if p.BusinessID <= 0 {
		return domain.CampaignRecord{}, &domain.ValidationError{Field: "business_id", Reason: ReasonInvalidBusinessID}
	}
	if p.AmountSpent.IsNegative() {
		return domain.CampaignRecord{}, &domain.ValidationError{Field: "amount_spent", Reason: ReasonNegativeSpend}
	}
	if p.AmountEarned.Valid && p.AmountEarned.Decimal.IsNegative() {
		return domain.CampaignRecord{}, &domain.ValidationError{Field: "amount_earned", Reason: ReasonNegativeRevenue}
	}

	start, err := parseDate(p.StartDate)
	if err != nil {
		return domain.CampaignRecord{}, &domain.ValidationError{Field: "start_date", Reason: ReasonInvalidStartDate}
	}

	record := domain.CampaignRecord{
		ID:           p.ID,
		BusinessID:   p.BusinessID,
		AdMethodID:   p.AdMethodID,
		AmountSpent:  p.AmountSpent,
		AmountEarned: p.AmountEarned,
		StartDate:    start,
	}

	if p.EndDate != nil && strings.TrimSpace(*p.EndDate) != "" {
		end, err := parseDate(*p.EndDate)
		if err != nil {
			return domain.CampaignRecord{}, &domain.ValidationError{Field: "end_date", Reason: ReasonInvalidEndDate}
		}
		if end.Before(start) {
			return domain.CampaignRecord{}, &domain.ValidationError{Field: "end_date", Reason: ReasonEndBeforeStart}
		}
		record.EndDate = &end
	}

	if record.ID == "" {
		record.ID = campaignID(record)
	}
	return record, nil
}

// same upstream record always maps to the same id, so re-ingesting upserts
func campaignID(c domain.CampaignRecord) string {
	key := fmt.Sprintf("%d|%d|%s|%s", c.BusinessID, c.AdMethodID, c.StartDate.Format(time.RFC3339), c.AmountSpent.String())
	if c.EndDate != nil {
		key += "|" + c.EndDate.Format(time.RFC3339)
	}
	return uuid.NewSHA1(campaignNamespace, []byte(key)).String()
}
