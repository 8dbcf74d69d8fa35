package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/pkg/metrics"
)

// CrawlConfig holds the settings of a crawl run.
type CrawlConfig struct {
	ImagesDir string
	PageURLs  []string
	// Delay is the pause after every successful download.
	Delay time.Duration
}

// CrawlUseCase discovers, categorizes and downloads the images of the configured pages.
type CrawlUseCase struct {
	cfg        CrawlConfig
	pages      repository.PageFetcher
	downloader *Downloader
	catalog    repository.CatalogSink
	exports    []repository.CatalogSink
	metrics    *metrics.Metrics
	logger     *zap.Logger

	now   func() time.Time
	pause func(context.Context, time.Duration) error
}

// NewCrawlUseCase wires a crawl run. catalog is the durable catalog writer and
// must succeed; exports are best-effort.
func NewCrawlUseCase(
	cfg CrawlConfig,
	pages repository.PageFetcher,
	downloader *Downloader,
	catalog repository.CatalogSink,
	exports []repository.CatalogSink,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CrawlUseCase {
	return &CrawlUseCase{
		cfg:        cfg,
		pages:      pages,
		downloader: downloader,
		catalog:    catalog,
		exports:    exports,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		pause:      sleepContext,
	}
}

// Run executes the crawl. Page and image failures are logged and skipped.
func (uc *CrawlUseCase) Run(ctx context.Context) (*entity.Catalog, error) {
	start := uc.now()
	if err := uc.setupDirectories(); err != nil {
		return nil, err
	}

	refs := uc.collectReferences(ctx)
	uc.logger.Info("image references collected", zap.Int("count", len(refs)))

	records, runErr := uc.downloadAll(ctx, refs)
	if runErr == nil {
		runErr = ctx.Err()
	}

	catalog := BuildCatalog(records, uc.now())
	if err := uc.catalog.SaveCatalog(ctx, catalog); err != nil {
		return catalog, fmt.Errorf("save catalog: %w", err)
	}
	for _, sink := range uc.exports {
		if err := sink.SaveCatalog(ctx, catalog); err != nil {
			uc.logger.Error("catalog export failed", zap.Error(err))
			uc.metrics.IncErrors("sink")
		}
	}

	uc.metrics.RunDuration.WithLabelValues("crawl").Set(time.Since(start).Seconds())
	uc.logSummary(catalog, len(refs))
	return catalog, runErr
}

func (uc *CrawlUseCase) setupDirectories() error {
	for _, c := range entity.AllCategories {
		dir := filepath.Join(uc.cfg.ImagesDir, filepath.FromSlash(string(c)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create category dir %s: %w", dir, err)
		}
		uc.logger.Debug("category directory ready", zap.String("category", string(c)), zap.String("description", c.Description()))
	}
	return nil
}

func (uc *CrawlUseCase) collectReferences(ctx context.Context) []entity.ImageReference {
	var refs []entity.ImageReference
	for _, page := range uc.cfg.PageURLs {
		if ctx.Err() != nil {
			break
		}
		uc.logger.Info("analyzing page", zap.String("url", page))

		body, err := uc.pages.FetchPage(ctx, page)
		if err != nil {
			uc.logger.Warn("failed to fetch page", zap.String("url", page), zap.Error(err))
			uc.metrics.IncPage("failure")
			uc.metrics.IncErrors("page_fetch")
			continue
		}
		found, err := ExtractImages(page, body)
		if err != nil {
			uc.logger.Warn("failed to parse page", zap.String("url", page), zap.Error(err))
			uc.metrics.IncPage("failure")
			uc.metrics.IncErrors("page_fetch")
			continue
		}
		uc.metrics.IncPage("success")
		uc.logger.Info("images found on page", zap.String("url", page), zap.Int("count", len(found)))
		refs = append(refs, found...)
	}
	return refs
}

func (uc *CrawlUseCase) downloadAll(ctx context.Context, refs []entity.ImageReference) ([]entity.DownloadRecord, error) {
	records := make([]entity.DownloadRecord, 0, len(refs))
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("crawl interrupted", zap.Int("processed", i), zap.Int("total", len(refs)))
			return records, err
		}

		category := Categorize(ref)
		record, outcome, err := uc.downloader.Download(ctx, ref, category, i)
		if err != nil {
			uc.logger.Warn("failed to download image", zap.String("url", ref.URL), zap.Error(err))
			uc.metrics.IncImage("download", "failed")
			uc.metrics.IncErrors("image_fetch")
			continue
		}

		records = append(records, record)
		uc.metrics.IncImage("download", outcome.String())
		log := uc.logger.With(
			zap.Int("index", i+1),
			zap.Int("total", len(refs)),
			zap.String("category", string(category)),
			zap.String("file", record.Filename),
		)
		if outcome == OutcomeSkipped {
			log.Info("image already present")
			continue
		}

		uc.metrics.AddBytes("downloaded", record.ByteSize)
		log.Info("image saved", zap.Int64("bytes", record.ByteSize))
		if err := uc.pause(ctx, uc.cfg.Delay); err != nil {
			return records, err
		}
	}
	return records, nil
}

func (uc *CrawlUseCase) logSummary(c *entity.Catalog, found int) {
	categories := make([]string, 0, len(c.Categories))
	for cat := range c.Categories {
		categories = append(categories, string(cat))
	}
	sort.Strings(categories)

	for _, cat := range categories {
		uc.logger.Info("category summary",
			zap.String("category", cat),
			zap.Int("images", c.Categories[entity.Category(cat)]),
			zap.Float64("size_mb", toMB(c.CategoryBytes[entity.Category(cat)])),
		)
	}
	uc.logger.Info("migration finished",
		zap.Int("references", found),
		zap.Int("images", c.TotalImages),
		zap.Float64("size_mb", toMB(c.TotalBytes)),
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
