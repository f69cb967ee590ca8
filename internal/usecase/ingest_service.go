package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"
)

// RejectedRecord describes one campaign payload that failed validation.
type RejectedRecord struct {
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	BusinessID int64  `json:"business_id"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// IngestReport summarizes one ingest run.
type IngestReport struct {
	Source     string           `json:"source"`
	Accepted   int              `json:"accepted"`
	Skipped    int              `json:"skipped"`
	Businesses int              `json:"businesses"`
	Rejected   []RejectedRecord `json:"rejected"`
	Duration   time.Duration    `json:"duration_ns"`
}

type IngestService struct {
	campaignRepo domain.CampaignRepository
	businessRepo domain.BusinessRepository
	cache        domain.RankingCache
	apiClient    domain.ExternalAPIClient
	logger       *logger.Logger
	metrics      *metrics.Metrics
	workerPool   int
}

func NewIngestService(
	campaignRepo domain.CampaignRepository,
	businessRepo domain.BusinessRepository,
	cache domain.RankingCache,
	apiClient domain.ExternalAPIClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	workerPool int,
) *IngestService {
	if workerPool <= 0 {
		workerPool = 1
	}
	return &IngestService{
		campaignRepo: campaignRepo,
		businessRepo: businessRepo,
		cache:        cache,
		apiClient:    apiClient,
		logger:       logger,
		metrics:      metrics,
		workerPool:   workerPool,
	}
}

// RunIngest pulls campaigns and businesses from the upstream APIs and stores them.
// Campaigns that ended before since are skipped.
func (s *IngestService) RunIngest(ctx context.Context, since *time.Time) (*IngestReport, error) {
	start := time.Now()
	s.metrics.IncIngestJobsInProgress()
	defer s.metrics.DecIngestJobsInProgress()

	log := s.logger.WithContext(ctx)
	log.Info("Starting ingest from upstream APIs")

	campaigns, businesses, err := s.extract(ctx)
	if err != nil {
		s.metrics.RecordIngestJob("failed", "extract", time.Since(start))
		return nil, fmt.Errorf("failed to extract data: %w", err)
	}

	report, err := s.ingest(ctx, "api", campaigns, businesses, since)
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	s.metrics.RecordIngestJob("success", "complete", report.Duration)

	log.WithFields(map[string]any{
		"duration":     report.Duration,
		"accepted":     report.Accepted,
		"rejected":     len(report.Rejected),
		"skipped":      report.Skipped,
		"businesses":   report.Businesses,
		"since_filter": since != nil,
	}).Info("Ingest completed successfully")

	return report, nil
}

// IngestPayloads validates and stores pushed campaigns and businesses.
func (s *IngestService) IngestPayloads(ctx context.Context, campaigns []domain.CampaignPayload, businesses []domain.Business) (*IngestReport, error) {
	start := time.Now()
	s.metrics.IncIngestJobsInProgress()
	defer s.metrics.DecIngestJobsInProgress()

	report, err := s.ingest(ctx, "push", campaigns, businesses, nil)
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	s.metrics.RecordIngestJob("success", "push", report.Duration)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"accepted":   report.Accepted,
		"rejected":   len(report.Rejected),
		"businesses": report.Businesses,
	}).Info("Pushed campaigns ingested")

	return report, nil
}

// extract fetches both feeds concurrently
func (s *IngestService) extract(ctx context.Context) ([]domain.CampaignPayload, []domain.Business, error) {
	log := s.logger.WithContext(ctx)

	var campaignFeed *domain.CampaignFeed
	var businessFeed *domain.BusinessFeed
	var campaignErr, businessErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		campaignFeed, campaignErr = s.apiClient.FetchCampaigns(ctx)
		if campaignErr != nil {
			log.WithError(campaignErr).Error("Failed to fetch campaigns")
		}
	}()

	go func() {
		defer wg.Done()
		businessFeed, businessErr = s.apiClient.FetchBusinesses(ctx)
		if businessErr != nil {
			log.WithError(businessErr).Error("Failed to fetch businesses")
		}
	}()

	wg.Wait()

	if err := errors.Join(campaignErr, businessErr); err != nil {
		return nil, nil, err
	}

	log.WithFields(map[string]any{
		"campaigns":  len(campaignFeed.Campaigns),
		"businesses": len(businessFeed.Businesses),
	}).Info("Data extraction completed")

	return campaignFeed.Campaigns, businessFeed.Businesses, nil
}

func (s *IngestService) ingest(ctx context.Context, source string, payloads []domain.CampaignPayload, businesses []domain.Business, since *time.Time) (*IngestReport, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	records, rejected := s.transform(ctx, source, payloads)

	report := &IngestReport{Source: source, Rejected: rejected}

	kept := records[:0]
	for _, r := range records {
		if since != nil && r.EndDate != nil && r.EndDate.Before(*since) {
			report.Skipped++
			continue
		}
		kept = append(kept, r)
	}
	report.Accepted = len(kept)

	validBusinesses := make([]domain.Business, 0, len(businesses))
	for _, b := range businesses {
		if b.ID <= 0 {
			log.WithField("business_id", b.ID).Warn("Skipping business with invalid id")
			s.metrics.RecordIngestRejection("businesses", ReasonInvalidBusinessID)
			continue
		}
		validBusinesses = append(validBusinesses, b)
	}
	report.Businesses = len(validBusinesses)

	s.metrics.RecordIngestRecords("campaigns", "accepted", report.Accepted)
	s.metrics.RecordIngestRecords("campaigns", "rejected", len(rejected))
	s.metrics.RecordIngestRecords("businesses", "accepted", report.Businesses)

	// businesses first so rankings never see campaigns without their directory entry
	if err := s.businessRepo.StoreBusinesses(ctx, validBusinesses); err != nil {
		s.metrics.RecordIngestJob("failed", "load", time.Since(start))
		return nil, fmt.Errorf("failed to store businesses: %w", err)
	}
	if err := s.campaignRepo.StoreCampaigns(ctx, kept); err != nil {
		s.metrics.RecordIngestJob("failed", "load", time.Since(start))
		return nil, fmt.Errorf("failed to store campaigns: %w", err)
	}

	if report.Accepted > 0 || report.Businesses > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("Failed to invalidate ranking cache")
		}
	}

	return report, nil
}

type transformResult struct {
	record domain.CampaignRecord
	err    error
}

// transform validates payloads on the worker pool; output keeps input order
func (s *IngestService) transform(ctx context.Context, source string, payloads []domain.CampaignPayload) ([]domain.CampaignRecord, []RejectedRecord) {
	results := make([]transformResult, len(payloads))
	jobs := make(chan int, len(payloads))

	var wg sync.WaitGroup
	for i := 0; i < s.workerPool; i++ {
		wg.Go(func() {
			for idx := range jobs {
				record, err := ValidateCampaign(payloads[idx])
				results[idx] = transformResult{record: record, err: err}
			}
		})
	}

	for i := range payloads {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log := s.logger.WithContext(ctx)
	records := make([]domain.CampaignRecord, 0, len(payloads))
	rejected := []RejectedRecord{}

	for i, res := range results {
		if res.err == nil {
			records = append(records, res.record)
			continue
		}

		rec := RejectedRecord{Index: i, ID: payloads[i].ID, BusinessID: payloads[i].BusinessID, Reason: res.err.Error()}
		var verr *domain.ValidationError
		if errors.As(res.err, &verr) {
			rec.Field = verr.Field
			rec.Reason = verr.Reason
		}
		rejected = append(rejected, rec)

		s.metrics.RecordIngestRejection(source, rec.Reason)
		log.WithFields(map[string]any{
			"index":       i,
			"business_id": rec.BusinessID,
			"field":       rec.Field,
			"reason":      rec.Reason,
		}).Warn("Rejected campaign record")
	}

	return records, rejected
}
