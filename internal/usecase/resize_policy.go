package usecase

import (
	"math"

	"github.com/user/asset-migrator/internal/entity"
)

type maxSize struct {
	width  int
	height int
}

// categoryMaxSizes bounds optimized images per top-level category.
var categoryMaxSizes = map[string]maxSize{
	"01_brand":    {400, 200},
	"02_hero":     {1920, 1080},
	"03_products": {800, 600},
	"04_benefits": {600, 400},
	"05_gallery":  {1200, 900},
	"06_about":    {800, 600},
	"07_social":   {64, 64},
	"08_misc":     {1000, 750},
}

var defaultMaxSize = maxSize{1000, 750}

// Breakpoint is a responsive variant width.
type Breakpoint struct {
	Name  string
	Width int
}

// Breakpoints in increasing width order.
var Breakpoints = []Breakpoint{
	{"mobile", 640},
	{"tablet", 768},
	{"desktop", 1200},
	{"xl", 1920},
}

// TargetSize fits width x height inside the category bounds, preserving the
// aspect ratio and never upscaling. Subtype suffixes of category are ignored.
func TargetSize(width, height int, category string) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	bounds, ok := categoryMaxSizes[entity.Category(category).TopLevel()]
	if !ok {
		bounds = defaultMaxSize
	}

	scale := math.Min(
		math.Min(float64(bounds.width)/float64(width), float64(bounds.height)/float64(height)),
		1.0,
	)
	return scaleDimension(width, scale), scaleDimension(height, scale)
}

// BreakpointSize returns the variant size for a breakpoint and whether the
// breakpoint applies at all (only widths below the original width do).
func BreakpointSize(width, height int, bp Breakpoint) (int, int, bool) {
	if width <= 0 || height <= 0 || bp.Width >= width {
		return 0, 0, false
	}
	scale := float64(bp.Width) / float64(width)
	return bp.Width, scaleDimension(height, scale), true
}

// scaleDimension rounds v*scale and keeps the result within [1, v].
func scaleDimension(v int, scale float64) int {
	n := int(math.Round(float64(v) * scale))
	if n < 1 {
		n = 1
	}
	if n > v {
		n = v
	}
	return n
}
