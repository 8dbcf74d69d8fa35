package entity

import (
	"fmt"
	"time"
)

// ReferenceKind tells where on the page an image reference was found.
type ReferenceKind string

const (
	KindImg        ReferenceKind = "img"
	KindBackground ReferenceKind = "background"
)

// ImageReference is a candidate image discovered on a crawled page.
type ImageReference struct {
	URL        string        `json:"url"`
	Alt        string        `json:"alt"`
	CSSClasses []string      `json:"class"`
	SourcePage string        `json:"page"`
	Kind       ReferenceKind `json:"type"`
	Width      string        `json:"width,omitempty"`
	Height     string        `json:"height,omitempty"`
}

// DownloadRecord describes one image stored under the images root.
type DownloadRecord struct {
	SourceURL  string   `json:"original_url"`
	LocalPath  string   `json:"local_path"`
	Filename   string   `json:"filename"`
	Category   Category `json:"category"`
	AltText    string   `json:"alt"`
	SourcePage string   `json:"page"`
	ByteSize   int64    `json:"size"`
	Skipped    bool     `json:"already_present,omitempty"`
}

// Catalog is the crawl run summary persisted as image_catalog.json.
type Catalog struct {
	TotalImages   int                `json:"total_images"`
	TotalBytes    int64              `json:"total_bytes"`
	Categories    map[Category]int   `json:"categories"`
	CategoryBytes map[Category]int64 `json:"category_bytes"`
	Images        []DownloadRecord   `json:"images"`
	GeneratedAt   string             `json:"timestamp"`
}

// Dimensions is a width/height pair serialized as "WxH".
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

func (d Dimensions) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dimensions) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%dx%d", &d.Width, &d.Height)
	return err
}

// OptimizationRecord is the outcome of optimizing a single image.
type OptimizationRecord struct {
	OriginalPath        string            `json:"original_path"`
	Category            Category          `json:"category"`
	OriginalByteSize    int64             `json:"original_size"`
	OptimizedByteSize   int64             `json:"optimized_size"`
	SavingsPercent      float64           `json:"savings_percent"`
	OriginalDimensions  Dimensions        `json:"original_dimensions"`
	OptimizedDimensions Dimensions        `json:"optimized_dimensions"`
	WebPCreated         bool              `json:"webp_created"`
	AVIFCreated         bool              `json:"avif_created"`
	ResponsiveVariants  map[string]string `json:"responsive_versions"`
}

// OptimizationSummary holds the totals of an optimize run.
type OptimizationSummary struct {
	TotalImages          int     `json:"total_images"`
	TotalOriginalBytes   int64   `json:"total_original_size"`
	TotalOptimizedBytes  int64   `json:"total_optimized_size"`
	TotalOriginalSizeMB  float64 `json:"total_original_size_mb"`
	TotalOptimizedSizeMB float64 `json:"total_optimized_size_mb"`
	TotalSavingsMB       float64 `json:"total_savings_mb"`
	TotalSavingsPercent  float64 `json:"total_savings_percent"`
	GeneratedAt          string  `json:"timestamp"`
}

// OptimizationReport is persisted as optimization_report.json.
type OptimizationReport struct {
	Summary OptimizationSummary  `json:"summary"`
	Images  []OptimizationRecord `json:"images"`
}

// TimestampLayout is the layout used for report timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
