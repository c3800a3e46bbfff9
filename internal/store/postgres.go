package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var recordColumns = []string{
	"dataset_id", "row_index", "brand_id", "brand_name", "country", "year",
	"material_type", "certifications", "market_trend",
	"carbon_footprint_mt", "water_usage_liters", "waste_production_kg",
	"average_price_usd", "sustainability_rating", "recycling_programs",
	"eco_friendly_manufacturing", "product_lines",
}

// CreateDataset inserts the dataset row and bulk-copies its records in one
// transaction.
func (s *PostgresStore) CreateDataset(ctx context.Context, ds *Dataset, records []dataset.Record) error {
	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	ds.RecordCount = len(records)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO canopy_datasets (dataset_id, name, record_count)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		ds.ID, ds.Name, ds.RecordCount,
	).Scan(&ds.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	rows := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{
			ds.ID, i, r.BrandID, r.BrandName, r.Country, int(r.Year),
			r.MaterialType, r.Certifications, r.MarketTrend,
			float64(r.CarbonFootprintMT), float64(r.WaterUsageLiters), float64(r.WasteProductionKG),
			float64(r.AveragePriceUSD), float64(r.SustainabilityRating), float64(r.RecyclingPrograms),
			float64(r.EcoFriendlyManufacturing), float64(r.ProductLines),
		}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"canopy_records"}, recordColumns, rows); err != nil {
		return fmt.Errorf("copy records: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetDataset(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	ds := &Dataset{}
	err := s.pool.QueryRow(ctx, `
		SELECT dataset_id, name, record_count, created_at
		FROM canopy_datasets WHERE dataset_id = $1`, id,
	).Scan(&ds.ID, &ds.Name, &ds.RecordCount, &ds.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *PostgresStore) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT dataset_id, name, record_count, created_at
		FROM canopy_datasets ORDER BY created_at DESC, dataset_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Dataset{}
	for rows.Next() {
		ds := &Dataset{}
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.RecordCount, &ds.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// GetDatasetRecords returns the records in upload order, or nil when the
// dataset does not exist.
func (s *PostgresStore) GetDatasetRecords(ctx context.Context, id uuid.UUID) ([]dataset.Record, error) {
	ds, err := s.GetDataset(ctx, id)
	if err != nil || ds == nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT brand_id, brand_name, country, year, material_type, certifications, market_trend,
			carbon_footprint_mt, water_usage_liters, waste_production_kg, average_price_usd,
			sustainability_rating, recycling_programs, eco_friendly_manufacturing, product_lines
		FROM canopy_records WHERE dataset_id = $1 ORDER BY row_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dataset.Record, 0, ds.RecordCount)
	for rows.Next() {
		var r dataset.Record
		var year int
		var carbon, water, waste, price, rating, recycling, eco, lines float64
		if err := rows.Scan(
			&r.BrandID, &r.BrandName, &r.Country, &year, &r.MaterialType, &r.Certifications, &r.MarketTrend,
			&carbon, &water, &waste, &price, &rating, &recycling, &eco, &lines,
		); err != nil {
			return nil, err
		}
		r.Year = dataset.Year(year)
		r.CarbonFootprintMT = dataset.Number(carbon)
		r.WaterUsageLiters = dataset.Number(water)
		r.WasteProductionKG = dataset.Number(waste)
		r.AveragePriceUSD = dataset.Number(price)
		r.SustainabilityRating = dataset.Number(rating)
		r.RecyclingPrograms = dataset.Number(recycling)
		r.EcoFriendlyManufacturing = dataset.Number(eco)
		r.ProductLines = dataset.Number(lines)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteDataset removes the dataset and its records. Runs keep their
// summary with a NULL dataset reference.
func (s *PostgresStore) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM canopy_datasets WHERE dataset_id = $1`, id)
	return err
}

const runColumns = `run_id, dataset_id, options, filter, record_count, filtered_count, best_k,
	weights, stats, recommendations, warnings, duration_ms, created_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *AnalysisRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	filterJSON, err := json.Marshal(run.Filter)
	if err != nil {
		return fmt.Errorf("marshal filter: %w", err)
	}
	weightsJSON, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	recsJSON, err := json.Marshal(run.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []analysis.Warning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	createdAt := &run.CreatedAt
	if run.CreatedAt.IsZero() {
		createdAt = nil
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO canopy_runs (run_id, dataset_id, options, filter, record_count, filtered_count,
			best_k, weights, stats, recommendations, warnings, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()))
		RETURNING created_at`,
		run.ID, run.DatasetID, optionsJSON, filterJSON, run.RecordCount, run.FilteredCount,
		run.BestK, weightsJSON, statsJSON, recsJSON, warningsJSON, run.DurationMs, createdAt,
	).Scan(&run.CreatedAt)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*AnalysisRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM canopy_runs WHERE run_id = $1`, id)
	run, err := scanRun(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM canopy_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.DatasetID != nil {
		n++
		query += fmt.Sprintf(" AND dataset_id = $%d", n)
		args = append(args, *filter.DatasetID)
	}

	query += " ORDER BY created_at DESC, run_id"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*AnalysisRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (*AnalysisRun, error) {
	run := &AnalysisRun{}
	var optionsJSON, filterJSON, weightsJSON, statsJSON, recsJSON, warningsJSON []byte
	err := row.Scan(
		&run.ID, &run.DatasetID, &optionsJSON, &filterJSON, &run.RecordCount, &run.FilteredCount,
		&run.BestK, &weightsJSON, &statsJSON, &recsJSON, &warningsJSON, &run.DurationMs, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"options", optionsJSON, &run.Options},
		{"filter", filterJSON, &run.Filter},
		{"weights", weightsJSON, &run.Weights},
		{"stats", statsJSON, &run.Stats},
		{"recommendations", recsJSON, &run.Recommendations},
		{"warnings", warningsJSON, &run.Warnings},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", col.name, err)
		}
	}
	return run, nil
}
