package chromedp_crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/repository"
)

// ChromedpCrawler renders pages in headless Chrome before handing the DOM to
// the extractor, so images injected by scripts are discovered too.
type ChromedpCrawler struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger

	startOnce sync.Once
	startErr  error
}

// NewChromedpCrawler creates a page fetcher backed by a single browser; every
// page is rendered in its own tab. The browser starts on the first fetch.
// Close must be called to release it.
func NewChromedpCrawler(pageLoadTimeout time.Duration, userAgent string, logger *zap.Logger) *ChromedpCrawler {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	return &ChromedpCrawler{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       pageLoadTimeout,
		logger:        logger,
	}
}

var _ repository.PageFetcher = (*ChromedpCrawler)(nil)

// FetchPage navigates to url and returns the rendered outer HTML.
func (c *ChromedpCrawler) FetchPage(ctx context.Context, url string) ([]byte, error) {
	if err := c.start(); err != nil {
		return nil, err
	}

	// Cancelling a tab context closes the tab and leaves the browser running.
	taskCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	// Stop rendering when the caller's context ends.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	c.logger.Debug("page rendered", zap.String("url", url), zap.Duration("took", time.Since(start)))
	return []byte(html), nil
}

// start launches the browser on the browser context. Tabs created before the
// browser exists would each allocate a browser of their own.
func (c *ChromedpCrawler) start() error {
	c.startOnce.Do(func() {
		if err := chromedp.Run(c.browserCtx); err != nil {
			c.startErr = fmt.Errorf("start browser: %w", err)
		}
	})
	return c.startErr
}

// Close shuts the browser down. Fetches after Close fail.
func (c *ChromedpCrawler) Close() {
	c.cancelBrowser()
	c.cancelAlloc()
}
