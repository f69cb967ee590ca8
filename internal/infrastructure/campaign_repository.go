package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
)

// implements domain.CampaignRepository in memory
type CampaignRepository struct {
	data   map[string]domain.CampaignRecord
	order  []string
	mutex  sync.RWMutex
	logger *logger.Logger
}

// creates a new in-memory campaign repository
func NewCampaignRepository(logger *logger.Logger) *CampaignRepository {
	return &CampaignRepository{
		data:   make(map[string]domain.CampaignRecord),
		logger: logger,
	}
}

// Store upserts campaigns by id, keeping first-insert order.
func (r *CampaignRepository) StoreCampaigns(ctx context.Context, campaigns []domain.CampaignRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, c := range campaigns {
		if _, exists := r.data[c.ID]; !exists {
			r.order = append(r.order, c.ID)
		}
		r.data[c.ID] = c
	}

	r.logger.WithContext(ctx).WithField("count", len(campaigns)).Info("Stored campaigns in memory")
	return nil
}

// FindCampaigns returns matching campaigns ordered by business, start date and id,
// the same order the Postgres repository uses.
func (r *CampaignRepository) FindCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]domain.CampaignRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []domain.CampaignRecord{}
	for _, id := range r.order {
		c := r.data[id]
		if filter.Matches(c) {
			result = append(result, c)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BusinessID != result[j].BusinessID {
			return result[i].BusinessID < result[j].BusinessID
		}
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"ad_method_id": filter.AdMethodID,
		"businesses":   len(filter.BusinessIDs),
		"matched":      len(result),
	}).Debug("Found campaigns")

	return result, nil
}

// implements domain.BusinessRepository in memory
type BusinessRepository struct {
	data   map[int64]domain.Business
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewBusinessRepository(logger *logger.Logger) *BusinessRepository {
	return &BusinessRepository{
		data:   make(map[int64]domain.Business),
		logger: logger,
	}
}

func (r *BusinessRepository) StoreBusinesses(ctx context.Context, businesses []domain.Business) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, b := range businesses {
		r.data[b.ID] = b
	}

	r.logger.WithContext(ctx).WithField("count", len(businesses)).Info("Stored businesses in memory")
	return nil
}

// ListBusinesses returns businesses ordered by id.
func (r *BusinessRepository) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]domain.Business, 0, len(r.data))
	for _, b := range r.data {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *BusinessRepository) GetBusiness(ctx context.Context, id int64) (*domain.Business, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	b, exists := r.data[id]
	if !exists {
		return nil, domain.ErrBusinessNotFound
	}
	return &b, nil
}
