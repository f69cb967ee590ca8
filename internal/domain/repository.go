package domain

import (
	"context"
)

// interface for campaign storage
type CampaignRepository interface {
	StoreCampaigns(ctx context.Context, campaigns []CampaignRecord) error
	FindCampaigns(ctx context.Context, filter CampaignFilter) ([]CampaignRecord, error)
}

// interface for business directory storage
type BusinessRepository interface {
	StoreBusinesses(ctx context.Context, businesses []Business) error
	ListBusinesses(ctx context.Context) ([]Business, error)
	GetBusiness(ctx context.Context, id int64) (*Business, error)
}

// interface for computed ranking caching
// Generation changes on every Invalidate; callers read it before loading data
// and fold it into their keys so a result computed before an invalidation is
// never served after it.
type RankingCache interface {
	Get(ctx context.Context, key string) (*RankingResult, bool, error)
	Set(ctx context.Context, key string, result *RankingResult) error
	Generation(ctx context.Context) (int64, error)
	Invalidate(ctx context.Context) error
}

// interface for upstream API calls
type ExternalAPIClient interface {
	FetchCampaigns(ctx context.Context) (*CampaignFeed, error)
	FetchBusinesses(ctx context.Context) (*BusinessFeed, error)
}

// interface for snapshot export
type ExportClient interface {
	Export(ctx context.Context, snapshot RankingSnapshot) error
}
