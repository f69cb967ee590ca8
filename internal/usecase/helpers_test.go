package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"
)

var testNow = time.Date(2025, 3, 31, 15, 30, 0, 0, time.UTC)

func testMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func payload(businessID, adMethodID int64, spent, earned, start string, end *string) domain.CampaignPayload {
	p := domain.CampaignPayload{
		BusinessID:  businessID,
		AdMethodID:  adMethodID,
		AmountSpent: decimal.RequireFromString(spent),
		StartDate:   start,
		EndDate:     end,
	}
	if earned != "" {
		p.AmountEarned = decimal.NewNullDecimal(decimal.RequireFromString(earned))
	}
	return p
}

type fakeAPIClient struct {
	campaigns     []domain.CampaignPayload
	businesses    []domain.Business
	campaignsErr  error
	businessesErr error
}

func (f *fakeAPIClient) FetchCampaigns(ctx context.Context) (*domain.CampaignFeed, error) {
	if f.campaignsErr != nil {
		return nil, f.campaignsErr
	}
	return &domain.CampaignFeed{Campaigns: f.campaigns}, nil
}

func (f *fakeAPIClient) FetchBusinesses(ctx context.Context) (*domain.BusinessFeed, error) {
	if f.businessesErr != nil {
		return nil, f.businessesErr
	}
	return &domain.BusinessFeed{Businesses: f.businesses}, nil
}

type fakeCache struct {
	mu            sync.Mutex
	data          map[string]domain.RankingResult
	generation    int64
	sets          int
	invalidations int
	getErr        error
	generationErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]domain.RankingResult)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*domain.RankingResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, result *domain.RankingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = *result
	c.sets++
	return nil
}

func (c *fakeCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationErr != nil {
		return 0, c.generationErr
	}
	return c.generation, nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.data = make(map[string]domain.RankingResult)
	c.invalidations++
	return nil
}

type fakeExporter struct {
	snapshots []domain.RankingSnapshot
	err       error
}

func (e *fakeExporter) Export(ctx context.Context, snapshot domain.RankingSnapshot) error {
	if e.err != nil {
		return e.err
	}
	e.snapshots = append(e.snapshots, snapshot)
	return nil
}

// failingBusinessRepo fails every call; used to check error propagation
type failingBusinessRepo struct{}

var errStorage = errors.New("storage unavailable")

func (failingBusinessRepo) StoreBusinesses(context.Context, []domain.Business) error {
	return errStorage
}

func (failingBusinessRepo) ListBusinesses(context.Context) ([]domain.Business, error) {
	return nil, errStorage
}

func (failingBusinessRepo) GetBusiness(context.Context, int64) (*domain.Business, error) {
	return nil, errStorage
}

// hookedCampaignRepo runs afterFind once, right after the first FindCampaigns
// returns its rows, to interleave a write with a read in progress
type hookedCampaignRepo struct {
	domain.CampaignRepository
	afterFind func()
}

func (r *hookedCampaignRepo) FindCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]domain.CampaignRecord, error) {
	out, err := r.CampaignRepository.FindCampaigns(ctx, filter)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return out, err
}
