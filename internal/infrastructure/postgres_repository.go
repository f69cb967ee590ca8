package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/config"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS businesses (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	business_id BIGINT NOT NULL,
	ad_method_id BIGINT NOT NULL,
	amount_spent NUMERIC(20, 4) NOT NULL,
	amount_earned NUMERIC(20, 4),
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_campaigns_business ON campaigns (business_id);
CREATE INDEX IF NOT EXISTS idx_campaigns_ad_method ON campaigns (ad_method_id);
`

const (
	upsertCampaignQuery = `INSERT INTO campaigns (id, business_id, ad_method_id, amount_spent, amount_earned, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET business_id = EXCLUDED.business_id, ad_method_id = EXCLUDED.ad_method_id,
amount_spent = EXCLUDED.amount_spent, amount_earned = EXCLUDED.amount_earned,
start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date`

	selectCampaignsQuery = `SELECT id, business_id, ad_method_id, amount_spent, amount_earned, start_date, end_date FROM campaigns`

	upsertBusinessQuery = `INSERT INTO businesses (id, name, type, latitude, longitude)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type,
latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`

	selectBusinessesQuery = `SELECT id, name, type, latitude, longitude FROM businesses`
)

// OpenPostgres opens a pooled connection and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// implements domain.CampaignRepository on Postgres
type PostgresCampaignRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewPostgresCampaignRepository(db *sql.DB, logger *logger.Logger) *PostgresCampaignRepository {
	return &PostgresCampaignRepository{db: db, logger: logger}
}

func (r *PostgresCampaignRepository) StoreCampaigns(ctx context.Context, campaigns []domain.CampaignRecord) error {
	if len(campaigns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range campaigns {
		var end sql.NullTime
		if c.EndDate != nil {
			end = sql.NullTime{Time: *c.EndDate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, upsertCampaignQuery,
			c.ID, c.BusinessID, c.AdMethodID, c.AmountSpent, c.AmountEarned, c.StartDate, end,
		); err != nil {
			return fmt.Errorf("failed to upsert campaign %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaigns: %w", err)
	}

	r.logger.WithContext(ctx).WithField("count", len(campaigns)).Info("Stored campaigns in postgres")
	return nil
}

func (r *PostgresCampaignRepository) FindCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]domain.CampaignRecord, error) {
	if filter.BusinessIDs != nil && len(filter.BusinessIDs) == 0 {
		return []domain.CampaignRecord{}, nil
	}

	query, args := buildCampaignQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	result := []domain.CampaignRecord{}
	for rows.Next() {
		var (
			c   domain.CampaignRecord
			end sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.AdMethodID, &c.AmountSpent, &c.AmountEarned, &c.StartDate, &end); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		c.StartDate = c.StartDate.UTC()
		if end.Valid {
			t := end.Time.UTC()
			c.EndDate = &t
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	return result, nil
}

func buildCampaignQuery(filter domain.CampaignFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.AdMethodID != 0 {
		args = append(args, filter.AdMethodID)
		conditions = append(conditions, fmt.Sprintf("ad_method_id = $%d", len(args)))
	}
	if filter.BusinessIDs != nil {
		args = append(args, pq.Array(filter.BusinessIDs))
		conditions = append(conditions, fmt.Sprintf("business_id = ANY($%d)", len(args)))
	}

	query := selectCampaignsQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	return query + " ORDER BY business_id, start_date, id", args
}

// implements domain.BusinessRepository on Postgres
type PostgresBusinessRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewPostgresBusinessRepository(db *sql.DB, logger *logger.Logger) *PostgresBusinessRepository {
	return &PostgresBusinessRepository{db: db, logger: logger}
}

func (r *PostgresBusinessRepository) StoreBusinesses(ctx context.Context, businesses []domain.Business) error {
	if len(businesses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range businesses {
		if _, err := tx.ExecContext(ctx, upsertBusinessQuery,
			b.ID, b.Name, b.Type, nullFloat(b.Latitude), nullFloat(b.Longitude),
		); err != nil {
			return fmt.Errorf("failed to upsert business %d: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit businesses: %w", err)
	}

	r.logger.WithContext(ctx).WithField("count", len(businesses)).Info("Stored businesses in postgres")
	return nil
}

func (r *PostgresBusinessRepository) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, selectBusinessesQuery+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	result := []domain.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}
	return result, nil
}

func (r *PostgresBusinessRepository) GetBusiness(ctx context.Context, id int64) (*domain.Business, error) {
	row := r.db.QueryRowContext(ctx, selectBusinessesQuery+" WHERE id = $1", id)
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(s scanner) (domain.Business, error) {
	var (
		b        domain.Business
		lat, lon sql.NullFloat64
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Type, &lat, &lon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan business: %w", err)
	}
	if lat.Valid {
		b.Latitude = &lat.Float64
	}
	if lon.Valid {
		b.Longitude = &lon.Float64
	}
	return b, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
