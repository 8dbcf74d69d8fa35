package repository

import "context"

// Encoder defines an external modern-format encoder (WebP, AVIF).
type Encoder interface {
	// Name is the format name used in logs, metrics and variant keys, e.g. "webp".
	Name() string
	// Ext is the output file extension including the dot.
	Ext() string
	// Available checks that the encoder can be invoked at all.
	Available(ctx context.Context) error
	// Encode converts the raster at input into output.
	Encode(ctx context.Context, input, output string) error
}
