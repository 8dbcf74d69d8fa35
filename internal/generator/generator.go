// Package generator renders the Next.js configuration and the image component
// that consume the optimized assets.
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templates embed.FS

const (
	nextConfigTemplate = "next.config.js.tmpl"
	componentTemplate  = "optimized-image.tsx.tmpl"

	cacheTTL = 60 * 60 * 24 * 30
)

// Next.js default widths; breakpoint widths are merged in.
var (
	defaultDeviceSizes = []int{640, 750, 828, 1080, 1200, 1920, 2048, 3840}
	defaultImageSizes  = []int{16, 32, 48, 64, 96, 128, 256, 384}
)

type componentCategory struct {
	Name  string
	Sizes string
}

// componentCategories maps the component's category prop to its sizes attribute.
var componentCategories = []componentCategory{
	{"hero", "100vw"},
	{"product", "(max-width: 768px) 100vw, (max-width: 1024px) 50vw, 25vw"},
	{"benefit", "(max-width: 768px) 100vw, (max-width: 1024px) 50vw, 300px"},
	{"gallery", "(max-width: 768px) 100vw, (max-width: 1024px) 50vw, 400px"},
	{"brand", "200px"},
	{"misc", "(max-width: 768px) 100vw, (max-width: 1024px) 50vw, 33vw"},
}

type templateData struct {
	Domains         []string
	DeviceSizes     []int
	ImageSizes      []int
	CacheTTLSeconds int
	Categories      []componentCategory
}

// Generator writes the generated project files.
type Generator struct {
	nextConfigPath string
	componentPath  string
	data           templateData
}

// New creates a generator. widths are the responsive breakpoint widths.
func New(nextConfigPath, componentPath string, domains []string, widths []int) *Generator {
	return &Generator{
		nextConfigPath: nextConfigPath,
		componentPath:  componentPath,
		data: templateData{
			Domains:         domains,
			DeviceSizes:     mergeSizes(defaultDeviceSizes, widths),
			ImageSizes:      defaultImageSizes,
			CacheTTLSeconds: cacheTTL,
			Categories:      componentCategories,
		},
	}
}

// WriteArtifacts renders both files and returns their paths.
func (g *Generator) WriteArtifacts() ([]string, error) {
	outputs := []struct {
		tmpl string
		path string
	}{
		{nextConfigTemplate, g.nextConfigPath},
		{componentTemplate, g.componentPath},
	}

	written := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		content, err := g.Render(o.tmpl)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(o.path, content, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", o.path, err)
		}
		written = append(written, o.path)
	}
	return written, nil
}

// Render executes a single embedded template.
func (g *Generator) Render(name string) ([]byte, error) {
	content, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	tmpl, err := template.New(name).Funcs(template.FuncMap{"join": joinInts}).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, g.data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func mergeSizes(base, extra []int) []int {
	seen := make(map[int]bool, len(base)+len(extra))
	var out []int
	for _, s := range append(append([]int{}, base...), extra...) {
		if s <= 0 || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
