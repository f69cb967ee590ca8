package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
)

var campaignColumns = []string{"id", "business_id", "ad_method_id", "amount_spent", "amount_earned", "start_date", "end_date"}

var businessColumns = []string{"id", "name", "type", "latitude", "longitude"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS businesses").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCampaignRepository_StoreCampaigns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCampaignRepository(db, logger.Discard())

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	campaigns := []domain.CampaignRecord{
		{
			ID: "c1", BusinessID: 1, AdMethodID: 2,
			AmountSpent:  decimal.RequireFromString("100.50"),
			AmountEarned: decimal.NewNullDecimal(decimal.RequireFromString("300")),
			StartDate:    start,
			EndDate:      &end,
		},
		{
			ID: "c2", BusinessID: 2, AdMethodID: 2,
			AmountSpent: decimal.RequireFromString("40"),
			StartDate:   start,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertCampaignQuery)).
		WithArgs("c1", int64(1), int64(2), "100.5", "300", start, end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertCampaignQuery)).
		WithArgs("c2", int64(2), int64(2), "40", nil, start, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.StoreCampaigns(context.Background(), campaigns))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCampaignRepository_StoreCampaignsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCampaignRepository(db, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertCampaignQuery)).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.StoreCampaigns(context.Background(), []domain.CampaignRecord{
		{ID: "c1", BusinessID: 1, AmountSpent: decimal.NewFromInt(1), StartDate: time.Now()},
	})
	assert.ErrorContains(t, err, "failed to upsert campaign c1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCampaignRepository_FindCampaigns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCampaignRepository(db, logger.Discard())

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	filter := domain.CampaignFilter{AdMethodID: 3, BusinessIDs: []int64{1, 2}}
	query, _ := buildCampaignQuery(filter)
	assert.Equal(t, selectCampaignsQuery+" WHERE ad_method_id = $1 AND business_id = ANY($2) ORDER BY business_id, start_date, id", query)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(3), pq.Array([]int64{1, 2})).
		WillReturnRows(sqlmock.NewRows(campaignColumns).
			AddRow("c1", int64(1), int64(3), "100.50", nil, start, nil).
			AddRow("c2", int64(2), int64(3), "50", "75", start, end))

	got, err := repo.FindCampaigns(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].AmountSpent.Equal(decimal.RequireFromString("100.5")))
	assert.False(t, got[0].AmountEarned.Valid)
	assert.Nil(t, got[0].EndDate)

	assert.True(t, got[1].Earned().Equal(decimal.NewFromInt(75)))
	require.NotNil(t, got[1].EndDate)
	assert.True(t, got[1].EndDate.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCampaignRepository_FindCampaignsNoConditions(t *testing.T) {
	query, args := buildCampaignQuery(domain.CampaignFilter{})
	assert.Equal(t, selectCampaignsQuery+" ORDER BY business_id, start_date, id", query)
	assert.Empty(t, args)
}

func TestPostgresCampaignRepository_EmptyBusinessSetSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCampaignRepository(db, logger.Discard())

	got, err := repo.FindCampaigns(context.Background(), domain.CampaignFilter{BusinessIDs: []int64{}})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBusinessRepository_StoreAndList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresBusinessRepository(db, logger.Discard())
	lat, lon := 36.17, -115.14

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertBusinessQuery)).
		WithArgs(int64(1), "Bakery", "food", lat, lon).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.StoreBusinesses(context.Background(), []domain.Business{
		{ID: 1, Name: "Bakery", Type: "food", Latitude: &lat, Longitude: &lon},
	}))

	mock.ExpectQuery(regexp.QuoteMeta(selectBusinessesQuery + " ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(businessColumns).
			AddRow(int64(1), "Bakery", "food", lat, lon).
			AddRow(int64(2), "Gym", "fitness", nil, nil))

	list, err := repo.ListBusinesses(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].HasLocation())
	assert.InDelta(t, lat, *list[0].Latitude, 1e-9)
	assert.False(t, list[1].HasLocation())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBusinessRepository_GetBusinessNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresBusinessRepository(db, logger.Discard())

	mock.ExpectQuery(regexp.QuoteMeta(selectBusinessesQuery + " WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(businessColumns))

	_, err := repo.GetBusiness(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrBusinessNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
