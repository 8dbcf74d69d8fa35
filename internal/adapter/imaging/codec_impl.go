package imaging

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/pkg/utils"
)

// Codec implements repository.ImageCodec on top of disintegration/imaging.
type Codec struct{}

// NewCodec creates a new imaging-backed codec.
func NewCodec() repository.ImageCodec {
	return Codec{}
}

// Open decodes path and applies its EXIF orientation.
func (Codec) Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

// Resize scales img with a Lanczos filter.
func (Codec) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// SaveJPEG encodes img as JPEG. Alpha is flattened onto white first.
func (Codec) SaveJPEG(img image.Image, path string, quality int) error {
	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), image.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		return imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(quality))
	})
	if err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
