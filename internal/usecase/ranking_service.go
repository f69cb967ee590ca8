package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/ranking"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/clock"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"
)

// RankingDefaults apply when a query leaves time basis or normalize unset.
type RankingDefaults struct {
	TimeBasis domain.TimeBasis
	Normalize bool
}

type RankingService struct {
	campaignRepo domain.CampaignRepository
	businessRepo domain.BusinessRepository
	cache        domain.RankingCache
	exporter     domain.ExportClient
	clock        clock.Clock
	logger       *logger.Logger
	metrics      *metrics.Metrics
	defaults     RankingDefaults
}

func NewRankingService(
	campaignRepo domain.CampaignRepository,
	businessRepo domain.BusinessRepository,
	cache domain.RankingCache,
	exporter domain.ExportClient,
	clk clock.Clock,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	defaults RankingDefaults,
) *RankingService {
	if defaults.TimeBasis == "" {
		defaults.TimeBasis = domain.TimeBasisMonthly
	}
	return &RankingService{
		campaignRepo: campaignRepo,
		businessRepo: businessRepo,
		cache:        cache,
		exporter:     exporter,
		clock:        clk,
		logger:       logger,
		metrics:      metrics,
		defaults:     defaults,
	}
}

// NewQuery returns a query for the target business carrying the configured defaults.
func (s *RankingService) NewQuery(targetBusinessID int64) domain.RankingQuery {
	return domain.RankingQuery{
		TargetBusinessID: targetBusinessID,
		TimeBasis:        s.defaults.TimeBasis,
		Normalize:        s.defaults.Normalize,
	}
}

// GetRanking ranks the target business against stored campaigns.
func (s *RankingService) GetRanking(ctx context.Context, q domain.RankingQuery) (*domain.RankingResult, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	q, err := s.prepare(q)
	if err != nil {
		return nil, err
	}

	// read before any data is loaded; an ingest after this point moves the
	// generation on and the result below lands under a key nobody reads
	key, cacheable := s.cacheKey(ctx, q)
	if cacheable {
		if cached, ok := s.lookupCache(ctx, key); ok {
			s.metrics.RecordRanking(string(q.TimeBasis), "cache", cached.ComparisonSetSize, time.Since(start))
			return cached, nil
		}
	}

	target, err := s.businessRepo.GetBusiness(ctx, q.TargetBusinessID)
	switch {
	case errors.Is(err, domain.ErrBusinessNotFound):
		// a target without a directory entry is still rankable when it has campaigns
		own, err := s.campaignRepo.FindCampaigns(ctx, domain.CampaignFilter{BusinessIDs: []int64{q.TargetBusinessID}})
		if err != nil {
			return nil, fmt.Errorf("failed to look up target campaigns: %w", err)
		}
		if len(own) == 0 {
			return nil, fmt.Errorf("business %d: %w", q.TargetBusinessID, domain.ErrBusinessNotFound)
		}
		target = nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up business %d: %w", q.TargetBusinessID, err)
	}

	businesses, err := s.businessRepo.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	filter, err := comparisonFilter(q, businesses, target)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.campaignRepo.FindCampaigns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	result := ranking.Run(campaigns, ranking.Directory(businesses), params(q))

	if cacheable {
		if err := s.cache.Set(ctx, key, &result); err != nil {
			log.WithError(err).Warn("Failed to cache ranking")
		}
	}

	duration := time.Since(start)
	s.metrics.RecordRanking(string(q.TimeBasis), "store", result.ComparisonSetSize, duration)

	log.WithFields(map[string]any{
		"business_id":     q.TargetBusinessID,
		"time_basis":      q.TimeBasis,
		"normalize":       q.Normalize,
		"campaigns":       len(campaigns),
		"comparison_size": result.ComparisonSetSize,
		"duration":        duration,
	}).Info("Ranking computed")

	return &result, nil
}

// Compute runs the pipeline on exactly the supplied records. Invalid payloads
// are left out and reported back.
func (s *RankingService) Compute(ctx context.Context, q domain.RankingQuery, payloads []domain.CampaignPayload, businesses []domain.Business) (*domain.RankingResult, []RejectedRecord, error) {
	start := time.Now()

	q, err := s.prepare(q)
	if err != nil {
		return nil, nil, err
	}

	filter, err := comparisonFilter(q, businesses, findBusiness(businesses, q.TargetBusinessID))
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]domain.CampaignRecord, 0, len(payloads))
	rejected := []RejectedRecord{}
	for i, p := range payloads {
		record, err := ValidateCampaign(p)
		if err != nil {
			rec := RejectedRecord{Index: i, ID: p.ID, BusinessID: p.BusinessID, Reason: err.Error()}
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				rec.Field = verr.Field
				rec.Reason = verr.Reason
			}
			rejected = append(rejected, rec)
			s.metrics.RecordIngestRejection("compute", rec.Reason)
			continue
		}
		if filter.Matches(record) {
			campaigns = append(campaigns, record)
		}
	}

	result := ranking.Run(campaigns, ranking.Directory(businesses), params(q))
	s.metrics.RecordRanking(string(q.TimeBasis), "request", result.ComparisonSetSize, time.Since(start))

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"business_id":     q.TargetBusinessID,
		"campaigns":       len(campaigns),
		"rejected":        len(rejected),
		"comparison_size": result.ComparisonSetSize,
	}).Debug("Stateless ranking computed")

	return &result, rejected, nil
}

// ExportRanking computes a ranking and pushes it to the sink.
func (s *RankingService) ExportRanking(ctx context.Context, q domain.RankingQuery) (*domain.RankingSnapshot, error) {
	if s.exporter == nil {
		return nil, domain.ErrSinkNotConfigured
	}

	q, err := s.prepare(q)
	if err != nil {
		return nil, err
	}

	result, err := s.GetRanking(ctx, q)
	if err != nil {
		return nil, err
	}

	snapshot := domain.RankingSnapshot{
		GeneratedAt: s.clock.Now(),
		Query:       q,
		Result:      *result,
	}

	if err := s.exporter.Export(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to export ranking: %w", err)
	}
	return &snapshot, nil
}

// prepare validates a query and fills in defaults and the as-of date
func (s *RankingService) prepare(q domain.RankingQuery) (domain.RankingQuery, error) {
	if q.TargetBusinessID <= 0 {
		return q, &domain.ValidationError{Field: "business_id", Reason: "must be a positive integer"}
	}
	if q.RadiusKm < 0 {
		return q, &domain.ValidationError{Field: "radius_km", Reason: "must not be negative"}
	}
	if q.CompareToBusinessID < 0 {
		return q, &domain.ValidationError{Field: "compare_to", Reason: "must be a positive integer"}
	}

	tb, err := domain.ParseTimeBasis(string(q.TimeBasis), s.defaults.TimeBasis)
	if err != nil {
		return q, err
	}
	q.TimeBasis = tb
	q.BusinessType = strings.TrimSpace(q.BusinessType)

	if q.AsOf.IsZero() {
		q.AsOf = clock.Today(s.clock)
	} else {
		q.AsOf = clock.StartOfDay(q.AsOf)
	}
	return q, nil
}

// cacheKey prefixes the query key with the cache generation. False when the
// generation cannot be read; the ranking is then computed without the cache.
func (s *RankingService) cacheKey(ctx context.Context, q domain.RankingQuery) (string, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.metrics.RecordCacheLookup("error")
		s.logger.WithContext(ctx).WithError(err).Warn("Ranking cache generation unavailable")
		return "", false
	}
	return fmt.Sprintf("g%d:%s", gen, q.CacheKey()), true
}

func (s *RankingService) lookupCache(ctx context.Context, key string) (*domain.RankingResult, bool) {
	cached, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.RecordCacheLookup("error")
		s.logger.WithContext(ctx).WithError(err).Warn("Ranking cache lookup failed")
		return nil, false
	case !found:
		s.metrics.RecordCacheLookup("miss")
		return nil, false
	}
	s.metrics.RecordCacheLookup("hit")
	return cached, true
}

// comparisonFilter narrows the comparison set by ad method, business type and
// distance from the target. The target is always part of its own set.
func comparisonFilter(q domain.RankingQuery, businesses []domain.Business, target *domain.Business) (domain.CampaignFilter, error) {
	filter := domain.CampaignFilter{AdMethodID: q.AdMethodID}
	if q.BusinessType == "" && q.RadiusKm == 0 {
		return filter, nil
	}

	if q.RadiusKm > 0 && (target == nil || !target.HasLocation()) {
		return filter, fmt.Errorf("business %d: %w", q.TargetBusinessID, domain.ErrMissingLocation)
	}

	ids := []int64{q.TargetBusinessID}
	for _, b := range businesses {
		if b.ID == q.TargetBusinessID {
			continue
		}
		if q.BusinessType != "" && !strings.EqualFold(b.Type, q.BusinessType) {
			continue
		}
		if q.RadiusKm > 0 {
			if !b.HasLocation() {
				continue
			}
			if haversineKm(*target.Latitude, *target.Longitude, *b.Latitude, *b.Longitude) > q.RadiusKm {
				continue
			}
		}
		ids = append(ids, b.ID)
	}
	filter.BusinessIDs = ids
	return filter, nil
}

func findBusiness(businesses []domain.Business, id int64) *domain.Business {
	for i := range businesses {
		if businesses[i].ID == id {
			return &businesses[i]
		}
	}
	return nil
}

func params(q domain.RankingQuery) ranking.Params {
	return ranking.Params{
		TimeBasis:           q.TimeBasis,
		Normalize:           q.Normalize,
		TargetBusinessID:    q.TargetBusinessID,
		CompareToBusinessID: q.CompareToBusinessID,
		AsOf:                q.AsOf,
		IncludeCampaigns:    q.IncludeCampaigns,
	}
}
