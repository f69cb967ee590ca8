package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/ranking"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/clock"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// CampaignPage is one page of stored campaigns.
type CampaignPage struct {
	Data    []domain.CampaignRecord `json:"data"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
	HasMore bool                    `json:"has_more"`
}

// CampaignSummary totals every stored campaign matching a filter.
type CampaignSummary struct {
	AsOf             string          `json:"as_of"`
	TotalSpent       decimal.Decimal `json:"total_cost"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	ROI              float64         `json:"roi"`
	ROAS             float64         `json:"roas"`
	Campaigns        int             `json:"campaigns"`
	OngoingCampaigns int             `json:"ongoing_campaigns"`
	Businesses       int             `json:"businesses"`
	AdMethods        int             `json:"ad_methods"`
	AdvertisingDays  int             `json:"advertising_days"`
}

// CatalogService answers read-only questions about stored campaigns.
type CatalogService struct {
	campaignRepo domain.CampaignRepository
	clock        clock.Clock
	logger       *logger.Logger
}

func NewCatalogService(campaignRepo domain.CampaignRepository, clk clock.Clock, logger *logger.Logger) *CatalogService {
	return &CatalogService{campaignRepo: campaignRepo, clock: clk, logger: logger}
}

// ListCampaigns returns a page of campaigns in repository order.
func (s *CatalogService) ListCampaigns(ctx context.Context, filter domain.CampaignFilter, limit, offset int) (*CampaignPage, error) {
	log := s.logger.WithContext(ctx)

	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	campaigns, err := s.campaignRepo.FindCampaigns(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list campaigns")
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	total := len(campaigns)
	start := min(offset, total)
	end := min(start+limit, total)

	page := &CampaignPage{
		Data:    campaigns[start:end],
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}

	log.WithFields(map[string]any{
		"ad_method_id": filter.AdMethodID,
		"limit":        limit,
		"offset":       offset,
		"count":        len(page.Data),
	}).Info("Listed campaigns")

	return page, nil
}

// Summary totals spend and revenue across matching campaigns as of today.
func (s *CatalogService) Summary(ctx context.Context, filter domain.CampaignFilter) (*CampaignSummary, error) {
	campaigns, err := s.campaignRepo.FindCampaigns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize campaigns: %w", err)
	}

	asOf := clock.Today(s.clock)
	summary := &CampaignSummary{
		AsOf:         asOf.Format("2006-01-02"),
		TotalSpent:   decimal.Zero,
		TotalRevenue: decimal.Zero,
		Campaigns:    len(campaigns),
	}

	businesses := make(map[int64]bool)
	adMethods := make(map[int64]bool)
	for _, c := range campaigns {
		summary.TotalSpent = summary.TotalSpent.Add(c.AmountSpent)
		summary.TotalRevenue = summary.TotalRevenue.Add(c.Earned())
		summary.AdvertisingDays += ranking.DurationDays(c, asOf)
		if c.IsOngoing() {
			summary.OngoingCampaigns++
		}
		businesses[c.BusinessID] = true
		adMethods[c.AdMethodID] = true
	}

	summary.Businesses = len(businesses)
	summary.AdMethods = len(adMethods)
	summary.ROI = ranking.ROI(summary.TotalRevenue, summary.TotalSpent)
	summary.ROAS = ranking.ROAS(summary.TotalRevenue, summary.TotalSpent)

	s.logger.WithContext(ctx).WithField("campaigns", summary.Campaigns).Info("Campaign summary generated")
	return summary, nil
}
