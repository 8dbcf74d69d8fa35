package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/pkg/metrics"
)

var (
	ErrEncoderMissing = errors.New("required encoder is not available")
	// ErrDecode marks a source image that could not be read or decoded.
	ErrDecode = errors.New("decode source image")
	// ErrWrite marks an optimized output that could not be written.
	ErrWrite = errors.New("write optimized image")
)

const optimizedSuffix = "-optimized"

// sourceExtensions lists the raster formats picked up by an optimize run.
var sourceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// OptimizeConfig holds the settings of an optimize run.
type OptimizeConfig struct {
	ImagesDir   string
	JPEGQuality int
}

// OptimizeUseCase resizes every downloaded image and produces modern-format
// and responsive siblings next to it.
type OptimizeUseCase struct {
	cfg       OptimizeConfig
	codec     repository.ImageCodec
	webp      repository.Encoder
	avif      repository.Encoder
	report    repository.ReportSink
	exports   []repository.ReportSink
	artifacts repository.ArtifactWriter
	metrics   *metrics.Metrics
	logger    *zap.Logger

	now func() time.Time
}

// NewOptimizeUseCase wires an optimize run. webp is mandatory; avif and
// artifacts may be nil. report is the durable report writer and must succeed.
func NewOptimizeUseCase(
	cfg OptimizeConfig,
	codec repository.ImageCodec,
	webp repository.Encoder,
	avif repository.Encoder,
	report repository.ReportSink,
	exports []repository.ReportSink,
	artifacts repository.ArtifactWriter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OptimizeUseCase {
	return &OptimizeUseCase{
		cfg:       cfg,
		codec:     codec,
		webp:      webp,
		avif:      avif,
		report:    report,
		exports:   exports,
		artifacts: artifacts,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Run optimizes every source image below the images root and writes the report.
func (uc *OptimizeUseCase) Run(ctx context.Context) (*entity.OptimizationReport, error) {
	start := uc.now()
	if err := uc.checkEncoders(ctx); err != nil {
		return nil, err
	}

	sources, err := DiscoverSources(uc.cfg.ImagesDir)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("images to optimize", zap.Int("count", len(sources)))

	var runErr error
	records := make([]entity.OptimizationRecord, 0, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("optimization interrupted", zap.Int("processed", i), zap.Int("total", len(sources)))
			runErr = err
			break
		}

		record, err := uc.OptimizeImage(ctx, src.Path, src.Category)
		if err != nil {
			uc.logger.Warn("failed to optimize image", zap.String("path", src.Path), zap.Error(err))
			uc.metrics.IncImage("optimize", "failed")
			uc.metrics.IncErrors(errorKind(err))
			continue
		}
		uc.metrics.IncImage("optimize", "optimized")
		uc.metrics.AddBytes("original", record.OriginalByteSize)
		uc.metrics.AddBytes("optimized", record.OptimizedByteSize)
		uc.logger.Info("image optimized",
			zap.Int("index", i+1),
			zap.Int("total", len(sources)),
			zap.String("path", src.Path),
			zap.Stringer("from", record.OriginalDimensions),
			zap.Stringer("to", record.OptimizedDimensions),
			zap.Float64("savings_percent", record.SavingsPercent),
		)
		records = append(records, record)
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	report := BuildOptimizationReport(records, uc.now())
	if err := uc.report.SaveReport(ctx, report); err != nil {
		return report, fmt.Errorf("save report: %w", err)
	}

	if uc.artifacts != nil {
		paths, err := uc.artifacts.WriteArtifacts()
		if err != nil {
			return report, fmt.Errorf("write generated files: %w", err)
		}
		for _, p := range paths {
			uc.logger.Info("generated file written", zap.String("path", p))
		}
	}

	for _, sink := range uc.exports {
		if err := sink.SaveReport(ctx, report); err != nil {
			uc.logger.Error("report export failed", zap.Error(err))
			uc.metrics.IncErrors("sink")
		}
	}

	uc.metrics.SavingsPercent.Set(report.Summary.TotalSavingsPercent)
	uc.metrics.RunDuration.WithLabelValues("optimize").Set(time.Since(start).Seconds())
	uc.logger.Info("optimization finished",
		zap.Int("images", report.Summary.TotalImages),
		zap.Float64("original_mb", report.Summary.TotalOriginalSizeMB),
		zap.Float64("optimized_mb", report.Summary.TotalOptimizedSizeMB),
		zap.Float64("savings_mb", report.Summary.TotalSavingsMB),
		zap.Float64("savings_percent", report.Summary.TotalSavingsPercent),
	)
	return report, runErr
}

// errorKind maps an OptimizeImage failure to its errors_total label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrWrite):
		return "write"
	default:
		return "optimize"
	}
}

// checkEncoders fails when the WebP encoder is missing and disables AVIF output
// when its encoder is missing.
func (uc *OptimizeUseCase) checkEncoders(ctx context.Context) error {
	if uc.webp == nil {
		return fmt.Errorf("%w: webp", ErrEncoderMissing)
	}
	if err := uc.webp.Available(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncoderMissing, uc.webp.Name(), err)
	}
	if uc.avif == nil {
		return nil
	}
	if err := uc.avif.Available(ctx); err != nil {
		uc.logger.Warn("avif encoder not available, avif output disabled", zap.Error(err))
		uc.avif = nil
	}
	return nil
}

// OptimizeImage processes a single source image and returns its record.
func (uc *OptimizeUseCase) OptimizeImage(ctx context.Context, path, category string) (entity.OptimizationRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.OptimizationRecord{}, fmt.Errorf("%w: stat: %v", ErrDecode, err)
	}

	img, err := uc.codec.Open(path)
	if err != nil {
		return entity.OptimizationRecord{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	targetW, targetH := TargetSize(width, height, category)
	resized := img
	if targetW != width || targetH != height {
		resized = uc.codec.Resize(img, targetW, targetH)
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	baseline := stem + optimizedSuffix + ".jpg"
	if err := uc.codec.SaveJPEG(resized, baseline, uc.cfg.JPEGQuality); err != nil {
		return entity.OptimizationRecord{}, fmt.Errorf("%w: %s: %v", ErrWrite, baseline, err)
	}

	record := entity.OptimizationRecord{
		OriginalPath:        path,
		Category:            entity.Category(category),
		OriginalByteSize:    info.Size(),
		OriginalDimensions:  entity.Dimensions{Width: width, Height: height},
		OptimizedDimensions: entity.Dimensions{Width: targetW, Height: targetH},
		ResponsiveVariants:  uc.generateVariants(ctx, img, stem, width, height),
	}
	record.WebPCreated = uc.encode(ctx, uc.webp, baseline, stem+optimizedSuffix+uc.webp.Ext())
	if uc.avif != nil {
		record.AVIFCreated = uc.encode(ctx, uc.avif, baseline, stem+optimizedSuffix+uc.avif.Ext())
	}

	if st, err := os.Stat(baseline); err == nil {
		record.OptimizedByteSize = st.Size()
	}
	record.SavingsPercent = SavingsPercent(record.OriginalByteSize, record.OptimizedByteSize)
	return record, nil
}

// generateVariants writes <stem>-<breakpoint>.jpg and its modern-format
// siblings for every breakpoint narrower than the original. Keys are
// "<breakpoint>_<format>".
func (uc *OptimizeUseCase) generateVariants(ctx context.Context, img image.Image, stem string, width, height int) map[string]string {
	variants := make(map[string]string)
	for _, bp := range Breakpoints {
		w, h, ok := BreakpointSize(width, height, bp)
		if !ok {
			continue
		}

		jpgPath := fmt.Sprintf("%s-%s.jpg", stem, bp.Name)
		if err := uc.codec.SaveJPEG(uc.codec.Resize(img, w, h), jpgPath, uc.cfg.JPEGQuality); err != nil {
			uc.logger.Warn("failed to write responsive variant", zap.String("path", jpgPath), zap.Error(err))
			uc.metrics.IncErrors("encode")
			continue
		}
		variants[bp.Name+"_jpg"] = jpgPath

		for _, enc := range []repository.Encoder{uc.webp, uc.avif} {
			if enc == nil {
				continue
			}
			out := fmt.Sprintf("%s-%s%s", stem, bp.Name, enc.Ext())
			if uc.encode(ctx, enc, jpgPath, out) {
				variants[bp.Name+"_"+enc.Name()] = out
			}
		}
	}
	return variants
}

func (uc *OptimizeUseCase) encode(ctx context.Context, enc repository.Encoder, input, output string) bool {
	err := enc.Encode(ctx, input, output)
	uc.metrics.IncEncode(enc.Name(), err == nil)
	if err != nil {
		uc.logger.Warn("encode failed",
			zap.String("format", enc.Name()),
			zap.String("output", output),
			zap.Error(err),
		)
		uc.metrics.IncErrors("encode")
		return false
	}
	return true
}

// SourceImage is an image found below the images root.
type SourceImage struct {
	Path     string
	Category string
}

// DiscoverSources walks the non-hidden subdirectories of root and returns the
// source images in lexical order. Generated siblings are ignored.
func DiscoverSources(root string) ([]SourceImage, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	var sources []SourceImage
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		err := filepath.WalkDir(filepath.Join(root, e.Name()), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !isSourceImage(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(root, filepath.Dir(p))
			if err != nil {
				return err
			}
			sources = append(sources, SourceImage{Path: p, Category: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", e.Name(), err)
		}
	}
	return sources, nil
}

func isSourceImage(name string) bool {
	ext := filepath.Ext(name)
	if !sourceExtensions[strings.ToLower(ext)] {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if strings.HasSuffix(stem, optimizedSuffix) {
		return false
	}
	for _, bp := range Breakpoints {
		if strings.HasSuffix(stem, "-"+bp.Name) {
			return false
		}
	}
	return true
}
