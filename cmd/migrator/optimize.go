package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/adapter/encoder"
	"github.com/user/asset-migrator/internal/adapter/imaging"
	"github.com/user/asset-migrator/internal/adapter/jsonfile"
	"github.com/user/asset-migrator/internal/generator"
	"github.com/user/asset-migrator/internal/repository"
	"github.com/user/asset-migrator/internal/usecase"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Resize downloaded images and generate WebP, AVIF and responsive variants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		cfg := a.cfg

		ex := a.openExports(ctx)
		defer ex.close()
		var sinks []repository.ReportSink
		if ex.postgres != nil {
			sinks = append(sinks, ex.postgres)
		}
		if ex.redis != nil {
			sinks = append(sinks, ex.redis)
		}

		widths := make([]int, 0, len(usecase.Breakpoints))
		for _, bp := range usecase.Breakpoints {
			widths = append(widths, bp.Width)
		}

		reportPath := filepath.Join(cfg.ImagesDir, cfg.ReportFile)
		uc := usecase.NewOptimizeUseCase(
			usecase.OptimizeConfig{
				ImagesDir:   cfg.ImagesDir,
				JPEGQuality: cfg.JPEGQuality,
			},
			imaging.NewCodec(),
			encoder.NewCWebP(cfg.CwebpPath, cfg.WebPQuality, cfg.WebPEffort),
			encoder.NewAVIFEnc(cfg.AvifencPath, cfg.AVIFQuality),
			jsonfile.NewWriter(reportPath),
			sinks,
			generator.New(cfg.NextConfigPath, cfg.ComponentPath, cfg.ImageDomains, widths),
			a.metrics,
			a.logger,
		)

		a.logger.Info("starting optimization", zap.String("images_dir", cfg.ImagesDir))
		if _, err := uc.Run(ctx); err != nil {
			return err
		}
		a.logger.Info("report written", zap.String("path", reportPath))
		return nil
	},
}
