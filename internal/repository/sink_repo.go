package repository

import (
	"context"

	"github.com/user/asset-migrator/internal/entity"
)

// CatalogSink defines a destination for the crawl catalog.
type CatalogSink interface {
	SaveCatalog(ctx context.Context, catalog *entity.Catalog) error
}

// ReportSink defines a destination for the optimization report.
type ReportSink interface {
	SaveReport(ctx context.Context, report *entity.OptimizationReport) error
}
