package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/adapter/chromedp_crawler"
	"github.com/user/asset-migrator/internal/adapter/httpfetch"
	"github.com/user/asset-migrator/internal/adapter/jsonfile"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/internal/usecase"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover, categorize and download the images of the configured pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		cfg := a.cfg

		client := httpfetch.NewClient(cfg.HTTPTimeout, cfg.UserAgents, a.logger)

		var pages repository.PageFetcher = client
		if cfg.RenderJS {
			ua := ""
			if len(cfg.UserAgents) > 0 {
				ua = cfg.UserAgents[0]
			}
			browser := chromedp_crawler.NewChromedpCrawler(cfg.RenderTimeout, ua, a.logger)
			defer browser.Close()
			pages = browser
			a.logger.Info("rendering pages with headless chrome")
		}

		ex := a.openExports(ctx)
		defer ex.close()
		var sinks []repository.CatalogSink
		if ex.postgres != nil {
			sinks = append(sinks, ex.postgres)
		}
		if ex.redis != nil {
			sinks = append(sinks, ex.redis)
		}

		catalogPath := filepath.Join(cfg.ImagesDir, cfg.CatalogFile)
		uc := usecase.NewCrawlUseCase(
			usecase.CrawlConfig{
				ImagesDir: cfg.ImagesDir,
				PageURLs:  cfg.PageURLs(),
				Delay:     cfg.DownloadDelay,
			},
			pages,
			usecase.NewDownloader(client, cfg.ImagesDir, a.logger),
			jsonfile.NewWriter(catalogPath),
			sinks,
			a.metrics,
			a.logger,
		)

		a.logger.Info("starting crawl",
			zap.String("base_url", cfg.BaseURL),
			zap.Int("pages", len(cfg.Pages)),
			zap.String("images_dir", cfg.ImagesDir),
		)
		if _, err := uc.Run(ctx); err != nil {
			return err
		}
		a.logger.Info("catalog written", zap.String("path", catalogPath))
		return nil
	},
}
