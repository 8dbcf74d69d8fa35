package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/asset-migrator/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS image_assets (
	local_path   TEXT PRIMARY KEY,
	original_url TEXT NOT NULL,
	filename     TEXT NOT NULL,
	category     TEXT NOT NULL,
	alt          TEXT NOT NULL DEFAULT '',
	page         TEXT NOT NULL DEFAULT '',
	size_bytes   BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS image_optimizations (
	original_path        TEXT PRIMARY KEY,
	category             TEXT NOT NULL,
	original_size        BIGINT NOT NULL,
	optimized_size       BIGINT NOT NULL,
	savings_percent      DOUBLE PRECISION NOT NULL,
	original_dimensions  TEXT NOT NULL,
	optimized_dimensions TEXT NOT NULL,
	webp_created         BOOLEAN NOT NULL,
	avif_created         BOOLEAN NOT NULL,
	responsive_versions  JSONB NOT NULL DEFAULT '{}',
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS migration_runs (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	total       INTEGER NOT NULL,
	total_bytes BIGINT NOT NULL,
	saved_bytes BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// ExportStore mirrors catalogs and optimization reports into PostgreSQL.
// Nothing is read back by the migrator.
type ExportStore struct {
	db *pgxpool.Pool
}

// NewExportStore connects to connStr and makes sure the export tables exist.
func NewExportStore(ctx context.Context, connStr string) (*ExportStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create export schema: %w", err)
	}
	return &ExportStore{db: db}, nil
}

// Close releases the connection pool.
func (s *ExportStore) Close() {
	s.db.Close()
}

// SaveCatalog upserts every catalog record and logs the run, in one transaction.
func (s *ExportStore) SaveCatalog(ctx context.Context, catalog *entity.Catalog) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	batch := &pgx.Batch{}
	for _, r := range catalog.Images {
		batch.Queue(`INSERT INTO image_assets (local_path, original_url, filename, category, alt, page, size_bytes, updated_at)
		             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		             ON CONFLICT (local_path) DO UPDATE SET
		               original_url = EXCLUDED.original_url, filename = EXCLUDED.filename,
		               category = EXCLUDED.category, alt = EXCLUDED.alt, page = EXCLUDED.page,
		               size_bytes = EXCLUDED.size_bytes, updated_at = EXCLUDED.updated_at`,
			r.LocalPath, r.SourceURL, r.Filename, string(r.Category), r.AltText, r.SourcePage, r.ByteSize, now)
	}
	batch.Queue(`INSERT INTO migration_runs (kind, total, total_bytes) VALUES ($1, $2, $3)`,
		"crawl", catalog.TotalImages, catalog.TotalBytes)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	return tx.Commit(ctx)
}

// SaveReport upserts every optimization record and logs the run, in one transaction.
func (s *ExportStore) SaveReport(ctx context.Context, report *entity.OptimizationReport) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	batch := &pgx.Batch{}
	for _, r := range report.Images {
		variants := r.ResponsiveVariants
		if variants == nil {
			variants = map[string]string{}
		}
		batch.Queue(`INSERT INTO image_optimizations (original_path, category, original_size, optimized_size, savings_percent,
		               original_dimensions, optimized_dimensions, webp_created, avif_created, responsive_versions, updated_at)
		             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		             ON CONFLICT (original_path) DO UPDATE SET
		               category = EXCLUDED.category, original_size = EXCLUDED.original_size,
		               optimized_size = EXCLUDED.optimized_size, savings_percent = EXCLUDED.savings_percent,
		               original_dimensions = EXCLUDED.original_dimensions, optimized_dimensions = EXCLUDED.optimized_dimensions,
		               webp_created = EXCLUDED.webp_created, avif_created = EXCLUDED.avif_created,
		               responsive_versions = EXCLUDED.responsive_versions, updated_at = EXCLUDED.updated_at`,
			r.OriginalPath, string(r.Category), r.OriginalByteSize, r.OptimizedByteSize, r.SavingsPercent,
			r.OriginalDimensions.String(), r.OptimizedDimensions.String(), r.WebPCreated, r.AVIFCreated, variants, now)
	}
	batch.Queue(`INSERT INTO migration_runs (kind, total, total_bytes, saved_bytes) VALUES ($1, $2, $3, $4)`,
		"optimize", report.Summary.TotalImages, report.Summary.TotalOriginalBytes,
		report.Summary.TotalOriginalBytes-report.Summary.TotalOptimizedBytes)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	return tx.Commit(ctx)
}
