package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNextConfig(t *testing.T) {
	g := New("", "", []string{"example.com", "cdn.example.com"}, []int{640, 768, 1200, 1920})

	out, err := g.Render(nextConfigTemplate)
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "formats: ['image/webp', 'image/avif']")
	assert.Contains(t, content, "deviceSizes: [640, 750, 768, 828, 1080, 1200, 1920, 2048, 3840]")
	assert.Contains(t, content, "domains: ['example.com', 'cdn.example.com']")
	assert.Contains(t, content, "minimumCacheTTL: 2592000,")
	assert.Contains(t, content, "source: '/images/:path*'")
	assert.Contains(t, content, "public, max-age=31536000, immutable")
}

func TestRenderComponent(t *testing.T) {
	g := New("", "", nil, nil)

	out, err := g.Render(componentTemplate)
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "type ImageCategory = 'hero' | 'product' | 'benefit' | 'gallery' | 'brand' | 'misc'")
	assert.Contains(t, content, "  brand: '200px',")
	assert.Contains(t, content, "sizes={categorySizes[category]}")
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	nextConfig := filepath.Join(dir, "next.config.optimized.js")
	component := filepath.Join(dir, "src", "components", "ui", "optimized-image.tsx")

	paths, err := New(nextConfig, component, []string{"example.com"}, nil).WriteArtifacts()
	require.NoError(t, err)
	assert.Equal(t, []string{nextConfig, component}, paths)
	assert.FileExists(t, nextConfig)
	assert.FileExists(t, component)

	data, err := os.ReadFile(nextConfig)
	require.NoError(t, err)
	assert.Contains(t, string(data), "module.exports = nextConfig")
}

func TestWriteArtifactsSkipsEmptyPath(t *testing.T) {
	component := filepath.Join(t.TempDir(), "optimized-image.tsx")

	paths, err := New("", component, nil, nil).WriteArtifacts()
	require.NoError(t, err)
	assert.Equal(t, []string{component}, paths)
}
