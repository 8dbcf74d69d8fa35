package usecase

import (
	"time"

	"github.com/user/asset-migrator/internal/entity"
)

const bytesPerMB = 1024 * 1024

// BuildCatalog reduces download records into the crawl catalog.
func BuildCatalog(records []entity.DownloadRecord, now time.Time) *entity.Catalog {
	catalog := &entity.Catalog{
		TotalImages:   len(records),
		Categories:    make(map[entity.Category]int),
		CategoryBytes: make(map[entity.Category]int64),
		Images:        make([]entity.DownloadRecord, len(records)),
		GeneratedAt:   entity.FormatTimestamp(now),
	}
	copy(catalog.Images, records)

	for _, r := range records {
		catalog.Categories[r.Category]++
		catalog.CategoryBytes[r.Category] += r.ByteSize
		catalog.TotalBytes += r.ByteSize
	}
	return catalog
}

// BuildOptimizationReport reduces optimization records into the report.
func BuildOptimizationReport(records []entity.OptimizationRecord, now time.Time) *entity.OptimizationReport {
	report := &entity.OptimizationReport{
		Images: make([]entity.OptimizationRecord, len(records)),
	}
	copy(report.Images, records)

	var original, optimized int64
	for _, r := range records {
		original += r.OriginalByteSize
		optimized += r.OptimizedByteSize
	}

	report.Summary = entity.OptimizationSummary{
		TotalImages:          len(records),
		TotalOriginalBytes:   original,
		TotalOptimizedBytes:  optimized,
		TotalOriginalSizeMB:  toMB(original),
		TotalOptimizedSizeMB: toMB(optimized),
		TotalSavingsMB:       toMB(original - optimized),
		TotalSavingsPercent:  SavingsPercent(original, optimized),
		GeneratedAt:          entity.FormatTimestamp(now),
	}
	return report
}

// SavingsPercent is (original-optimized)/original*100, or 0 when original is 0.
func SavingsPercent(original, optimized int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-optimized) / float64(original) * 100
}

func toMB(n int64) float64 {
	return float64(n) / bytesPerMB
}
