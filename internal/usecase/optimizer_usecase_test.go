package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/adapter/imaging"
	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/pkg/metrics"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fakeArtifacts struct {
	calls int
}

func (a *fakeArtifacts) WriteArtifacts() ([]string, error) {
	a.calls++
	return []string{"next.config.optimized.js"}, nil
}

type optimizeRun struct {
	uc        *OptimizeUseCase
	webp      *fakeEncoder
	avif      *fakeEncoder
	primary   *recordingSink
	export    *recordingSink
	artifacts *fakeArtifacts
	metrics   *metrics.Metrics
}

func newOptimizeRun(root string) *optimizeRun {
	run := &optimizeRun{
		webp:      &fakeEncoder{name: "webp", ext: ".webp"},
		avif:      &fakeEncoder{name: "avif", ext: ".avif"},
		primary:   &recordingSink{},
		export:    &recordingSink{},
		artifacts: &fakeArtifacts{},
		metrics:   metrics.New(),
	}
	run.uc = NewOptimizeUseCase(
		OptimizeConfig{ImagesDir: root, JPEGQuality: 85},
		imaging.NewCodec(),
		run.webp,
		run.avif,
		run.primary,
		[]repository.ReportSink{run.export},
		run.artifacts,
		run.metrics,
		zap.NewNop(),
	)
	run.uc.now = func() time.Time { return reportTime }
	return run
}

// buildImageTree lays out a small images root:
//
//	02_hero/big.png               2000x1000
//	02_hero/big-optimized.jpg     generated sibling
//	02_hero/big-mobile.jpg        generated sibling
//	03_products/texturas/t.png    1000x500
//	07_social/icon.png            100x50
//	08_misc/broken.jpg            not an image
//	.cache/hidden.png             hidden dir
//	logo.png                      root level file
func buildImageTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "02_hero", "big.png"), 2000, 1000)
	writeTestFile(t, filepath.Join(root, "02_hero", "big-optimized.jpg"), "old")
	writeTestFile(t, filepath.Join(root, "02_hero", "big-mobile.jpg"), "old")
	writeTestPNG(t, filepath.Join(root, "03_products", "texturas", "t.png"), 1000, 500)
	writeTestPNG(t, filepath.Join(root, "07_social", "icon.png"), 100, 50)
	writeTestFile(t, filepath.Join(root, "08_misc", "broken.jpg"), "not a jpeg")
	writeTestPNG(t, filepath.Join(root, ".cache", "hidden.png"), 10, 10)
	writeTestPNG(t, filepath.Join(root, "logo.png"), 10, 10)
	return root
}

func TestOptimizeUseCaseRun(t *testing.T) {
	root := buildImageTree(t)
	run := newOptimizeRun(root)

	report, err := run.uc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Images, 3, "broken and generated files are not reported")

	hero := report.Images[0]
	assert.Equal(t, filepath.Join(root, "02_hero", "big.png"), hero.OriginalPath)
	assert.Equal(t, entity.Category("02_hero"), hero.Category)
	assert.Equal(t, entity.Dimensions{Width: 2000, Height: 1000}, hero.OriginalDimensions)
	assert.Equal(t, entity.Dimensions{Width: 1920, Height: 960}, hero.OptimizedDimensions)
	assert.True(t, hero.WebPCreated)
	assert.True(t, hero.AVIFCreated)
	assert.Len(t, hero.ResponsiveVariants, 12)
	assert.Equal(t, filepath.Join(root, "02_hero", "big-xl.avif"), hero.ResponsiveVariants["xl_avif"])

	baseline := filepath.Join(root, "02_hero", "big-optimized.jpg")
	st, err := os.Stat(baseline)
	require.NoError(t, err)
	assert.Equal(t, st.Size(), hero.OptimizedByteSize)
	assert.InDelta(t, SavingsPercent(hero.OriginalByteSize, hero.OptimizedByteSize), hero.SavingsPercent, 1e-9)

	decoded, err := imaging.NewCodec().Open(baseline)
	require.NoError(t, err)
	assert.Equal(t, 1920, decoded.Bounds().Dx())

	mobile, err := imaging.NewCodec().Open(filepath.Join(root, "02_hero", "big-mobile.jpg"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 320), mobile.Bounds())

	texture := report.Images[1]
	assert.Equal(t, entity.Category("03_products/texturas"), texture.Category)
	assert.Equal(t, entity.Dimensions{Width: 800, Height: 400}, texture.OptimizedDimensions)
	assert.Equal(t, map[string]string{
		"mobile_jpg":  filepath.Join(root, "03_products", "texturas", "t-mobile.jpg"),
		"mobile_webp": filepath.Join(root, "03_products", "texturas", "t-mobile.webp"),
		"mobile_avif": filepath.Join(root, "03_products", "texturas", "t-mobile.avif"),
		"tablet_jpg":  filepath.Join(root, "03_products", "texturas", "t-tablet.jpg"),
		"tablet_webp": filepath.Join(root, "03_products", "texturas", "t-tablet.webp"),
		"tablet_avif": filepath.Join(root, "03_products", "texturas", "t-tablet.avif"),
	}, texture.ResponsiveVariants)

	icon := report.Images[2]
	assert.Equal(t, entity.Dimensions{Width: 64, Height: 32}, icon.OptimizedDimensions)
	assert.Empty(t, icon.ResponsiveVariants)

	assert.Equal(t, 3, report.Summary.TotalImages)
	assert.Equal(t, "2025-03-14 09:26:53", report.Summary.GeneratedAt)
	require.Len(t, run.primary.reports, 1)
	assert.Len(t, run.export.reports, 1)
	assert.Equal(t, 1, run.artifacts.calls)

	assert.NotContains(t, run.webp.outputs(), filepath.Join(root, ".cache", "hidden-optimized.webp"))
	assert.NoFileExists(t, filepath.Join(root, "logo-optimized.jpg"))
}

func TestOptimizeUseCaseWebPMissing(t *testing.T) {
	root := buildImageTree(t)
	run := newOptimizeRun(root)
	run.webp.missing = true

	report, err := run.uc.Run(context.Background())
	assert.ErrorIs(t, err, ErrEncoderMissing)
	assert.Nil(t, report)
	assert.Empty(t, run.primary.reports)
	assert.NoFileExists(t, filepath.Join(root, "07_social", "icon-optimized.jpg"))
}

func TestOptimizeUseCaseAVIFMissing(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "03_products", "p.png"), 1000, 500)
	run := newOptimizeRun(root)
	run.avif.missing = true

	report, err := run.uc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Images, 1)

	rec := report.Images[0]
	assert.True(t, rec.WebPCreated)
	assert.False(t, rec.AVIFCreated)
	assert.NotContains(t, rec.ResponsiveVariants, "mobile_avif")
	assert.Contains(t, rec.ResponsiveVariants, "mobile_webp")
	assert.Empty(t, run.avif.outputs())
}

func TestOptimizeUseCaseEncodeFailure(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "05_gallery", "g.png"), 1000, 500)
	run := newOptimizeRun(root)
	run.webp.failOn = map[string]bool{
		filepath.Join(root, "05_gallery", "g-optimized.webp"): true,
		filepath.Join(root, "05_gallery", "g-tablet.webp"):    true,
	}

	report, err := run.uc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Images, 1)

	rec := report.Images[0]
	assert.False(t, rec.WebPCreated)
	assert.True(t, rec.AVIFCreated)
	assert.Contains(t, rec.ResponsiveVariants, "mobile_webp")
	assert.NotContains(t, rec.ResponsiveVariants, "tablet_webp")
	assert.Contains(t, rec.ResponsiveVariants, "tablet_jpg")
}

func TestOptimizeUseCaseRerunIgnoresGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "02_hero", "h.png"), 800, 400)

	_, err := newOptimizeRun(root).uc.Run(context.Background())
	require.NoError(t, err)

	report, err := newOptimizeRun(root).uc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Images, 1)
	assert.Equal(t, filepath.Join(root, "02_hero", "h.png"), report.Images[0].OriginalPath)
}

func TestIsSourceImage(t *testing.T) {
	tests := map[string]bool{
		"photo.jpg":           true,
		"photo.JPEG":          true,
		"icon.png":            true,
		"anim.gif":            true,
		"modern.webp":         true,
		"vector.svg":          false,
		"already.avif":        false,
		"photo-optimized.jpg": false,
		"photo-mobile.jpg":    false,
		"photo-tablet.jpg":    false,
		"photo-desktop.jpg":   false,
		"photo-xl.jpg":        false,
		"mobile.jpg":          true,
		"README":              false,
	}
	for name, want := range tests {
		assert.Equal(t, want, isSourceImage(name), name)
	}
}

func TestDiscoverSourcesMissingRoot(t *testing.T) {
	_, err := DiscoverSources(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestOptimizeUseCaseErrorKinds(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "08_misc", "broken.png"), "not an image")
	writeTestPNG(t, filepath.Join(root, "08_misc", "locked.png"), 100, 100)
	// A directory in place of the baseline output makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "08_misc", "locked-optimized.jpg"), 0o755))
	run := newOptimizeRun(root)

	report, err := run.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Images)
	assert.Equal(t, 1.0, testutil.ToFloat64(run.metrics.ErrorsTotal.WithLabelValues("decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(run.metrics.ErrorsTotal.WithLabelValues("write")))
	assert.Equal(t, 2.0, testutil.ToFloat64(run.metrics.ImagesTotal.WithLabelValues("optimize", "failed")))
}

func TestOptimizeImageErrorSentinels(t *testing.T) {
	root := t.TempDir()
	run := newOptimizeRun(root)

	_, err := run.uc.OptimizeImage(context.Background(), filepath.Join(root, "missing.png"), "08_misc")
	assert.ErrorIs(t, err, ErrDecode)

	broken := filepath.Join(root, "broken.png")
	writeTestFile(t, broken, "not an image")
	_, err = run.uc.OptimizeImage(context.Background(), broken, "08_misc")
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, "decode", errorKind(err))

	src := filepath.Join(root, "ok.png")
	writeTestPNG(t, src, 50, 50)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ok-optimized.jpg"), 0o755))
	_, err = run.uc.OptimizeImage(context.Background(), src, "08_misc")
	assert.ErrorIs(t, err, ErrWrite)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Equal(t, "write", errorKind(err))
}

// writeRotatedJPEG stores w x h pixel data tagged with EXIF orientation 6, so
// the displayed image is h x w.
func writeRotatedJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	jpg := buf.Bytes()

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	for _, v := range []any{uint16(42), uint32(8), uint16(1), uint16(0x0112), uint16(3), uint32(1), uint16(6), uint16(0), uint32(0)} {
		require.NoError(t, binary.Write(&tiff, binary.BigEndian, v))
	}
	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	require.NoError(t, binary.Write(&out, binary.BigEndian, uint16(len(payload)+2)))
	out.Write(payload)
	out.Write(jpg[2:])

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
}

func TestOptimizeImageUsesDisplayOrientation(t *testing.T) {
	root := t.TempDir()
	// Stored 800x400, displayed 400x800: narrower than every breakpoint.
	src := filepath.Join(root, "02_hero", "portrait.jpg")
	writeRotatedJPEG(t, src, 800, 400)
	run := newOptimizeRun(root)

	record, err := run.uc.OptimizeImage(context.Background(), src, "02_hero")
	require.NoError(t, err)
	assert.Equal(t, entity.Dimensions{Width: 400, Height: 800}, record.OriginalDimensions)
	assert.Equal(t, entity.Dimensions{Width: 400, Height: 800}, record.OptimizedDimensions)
	assert.Empty(t, record.ResponsiveVariants)

	decoded, err := imaging.NewCodec().Open(filepath.Join(root, "02_hero", "portrait-optimized.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 800, decoded.Bounds().Dy())

	// Stored 1000x700, displayed 700x1000: only the mobile breakpoint applies.
	wide := filepath.Join(root, "08_misc", "tall.jpg")
	writeRotatedJPEG(t, wide, 1000, 700)
	record, err = run.uc.OptimizeImage(context.Background(), wide, "08_misc")
	require.NoError(t, err)
	assert.Equal(t, entity.Dimensions{Width: 700, Height: 1000}, record.OriginalDimensions)
	assert.Contains(t, record.ResponsiveVariants, "mobile_jpg")
	assert.NotContains(t, record.ResponsiveVariants, "tablet_jpg")
}
