package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/pkg/utils"
)

// Writer persists catalogs and reports as indented JSON at a fixed path.
type Writer struct {
	path string
}

// NewWriter creates a writer targeting path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the target file.
func (w *Writer) Path() string {
	return w.path
}

// SaveCatalog writes the crawl catalog.
func (w *Writer) SaveCatalog(_ context.Context, catalog *entity.Catalog) error {
	return w.write(catalog)
}

// SaveReport writes the optimization report.
func (w *Writer) SaveReport(_ context.Context, report *entity.OptimizationReport) error {
	return w.write(report)
}

// write replaces the target file atomically.
func (w *Writer) write(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(w.path), err)
	}
	data = append(data, '\n')

	return utils.WriteBytesAtomic(w.path, data)
}
