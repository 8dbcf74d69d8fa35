package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/pkg/utils"
)

// Outcome tells how a download request was satisfied.
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeSkipped            // target file already present
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "downloaded"
}

// contentTypeExtensions maps content-type fragments to file extensions, checked in order.
var contentTypeExtensions = []struct {
	fragment string
	ext      string
}{
	{"jpeg", ".jpg"},
	{"jpg", ".jpg"},
	{"png", ".png"},
	{"gif", ".gif"},
	{"webp", ".webp"},
	{"avif", ".avif"},
	{"svg", ".svg"},
}

// Downloader stores image references under <root>/<category>/<filename>.
type Downloader struct {
	fetcher repository.AssetFetcher
	root    string
	logger  *zap.Logger
}

// NewDownloader creates a downloader writing below root.
func NewDownloader(fetcher repository.AssetFetcher, root string, logger *zap.Logger) *Downloader {
	return &Downloader{fetcher: fetcher, root: root, logger: logger}
}

// Download fetches ref into its category folder. An already present target
// is reported as OutcomeSkipped without fetching the image body.
func (d *Downloader) Download(ctx context.Context, ref entity.ImageReference, category entity.Category, ordinal int) (entity.DownloadRecord, Outcome, error) {
	filename := d.filename(ctx, ref.URL, ordinal)
	localPath := filepath.Join(d.root, filepath.FromSlash(string(category)), filename)

	record := entity.DownloadRecord{
		SourceURL:  ref.URL,
		LocalPath:  localPath,
		Filename:   filename,
		Category:   category,
		AltText:    ref.Alt,
		SourcePage: ref.SourcePage,
	}

	if info, err := os.Stat(localPath); err == nil {
		record.ByteSize = info.Size()
		record.Skipped = true
		return record, OutcomeSkipped, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return entity.DownloadRecord{}, OutcomeDownloaded, fmt.Errorf("stat %s: %w", localPath, err)
	}

	body, err := d.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return entity.DownloadRecord{}, OutcomeDownloaded, fmt.Errorf("fetch image: %w", err)
	}
	if err := utils.WriteBytesAtomic(localPath, body); err != nil {
		return entity.DownloadRecord{}, OutcomeDownloaded, err
	}

	record.ByteSize = int64(len(body))
	return record, OutcomeDownloaded, nil
}

// filename derives the local name from the URL path, or synthesizes
// image_<ordinal>.<ext> from the content type when the path has no extension.
func (d *Downloader) filename(ctx context.Context, rawURL string, ordinal int) string {
	if name := urlFilename(rawURL); name != "" && strings.Contains(name, ".") {
		return name
	}

	contentType, err := d.fetcher.ContentType(ctx, rawURL)
	if err != nil {
		d.logger.Debug("content type lookup failed", zap.String("url", rawURL), zap.Error(err))
	}
	return fmt.Sprintf("image_%d%s", ordinal, extensionForContentType(contentType))
}

func urlFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	// A trailing slash leaves an empty last segment.
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." {
		return ""
	}
	return name
}

func extensionForContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	for _, m := range contentTypeExtensions {
		if strings.Contains(ct, m.fragment) {
			return m.ext
		}
	}
	return ""
}
