package repository

import "image"

// ImageCodec defines the raster operations the optimizer relies on.
type ImageCodec interface {
	// Open decodes the image at path with its orientation metadata already applied.
	Open(path string) (image.Image, error)
	// Resize scales img to exactly width x height.
	Resize(img image.Image, width, height int) image.Image
	// SaveJPEG writes img as a baseline JPEG at the given quality.
	SaveJPEG(img image.Image, path string, quality int) error
}
