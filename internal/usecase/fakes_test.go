package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/user/asset-migrator/internal/entity"
)

// fakeAssetFetcher serves canned bodies and content types and counts requests.
type fakeAssetFetcher struct {
	mu           sync.Mutex
	bodies       map[string][]byte
	contentTypes map[string]string
	fetches      []string
	heads        []string
}

func newFakeAssetFetcher() *fakeAssetFetcher {
	return &fakeAssetFetcher{
		bodies:       map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (f *fakeAssetFetcher) ContentType(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads = append(f.heads, url)
	ct, ok := f.contentTypes[url]
	if !ok {
		return "", fmt.Errorf("HEAD %s: not found", url)
	}
	return ct, nil
}

func (f *fakeAssetFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: not found", url)
	}
	return body, nil
}

// fakePageFetcher serves canned pages.
type fakePageFetcher struct {
	pages map[string]string
}

func (f *fakePageFetcher) FetchPage(_ context.Context, url string) ([]byte, error) {
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unexpected status: 404 Not Found")
	}
	return []byte(page), nil
}

// fakeEncoder records calls and writes a small output file.
type fakeEncoder struct {
	name    string
	ext     string
	missing bool
	failOn  map[string]bool
	mu      sync.Mutex
	calls   [][2]string
}

func (e *fakeEncoder) Name() string { return e.name }
func (e *fakeEncoder) Ext() string  { return e.ext }

func (e *fakeEncoder) Available(context.Context) error {
	if e.missing {
		return fmt.Errorf("%s: executable not found", e.name)
	}
	return nil
}

func (e *fakeEncoder) Encode(_ context.Context, input, output string) error {
	e.mu.Lock()
	e.calls = append(e.calls, [2]string{input, output})
	e.mu.Unlock()
	if e.failOn[output] {
		return fmt.Errorf("%s exited with status 1", e.name)
	}
	return os.WriteFile(output, []byte(e.name), 0o644)
}

func (e *fakeEncoder) outputs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.calls))
	for _, c := range e.calls {
		out = append(out, c[1])
	}
	return out
}

// recordingSink captures what was published.
type recordingSink struct {
	catalogs []*entity.Catalog
	reports  []*entity.OptimizationReport
	err      error
}

func (s *recordingSink) SaveCatalog(_ context.Context, c *entity.Catalog) error {
	s.catalogs = append(s.catalogs, c)
	return s.err
}

func (s *recordingSink) SaveReport(_ context.Context, r *entity.OptimizationReport) error {
	s.reports = append(s.reports, r)
	return s.err
}
