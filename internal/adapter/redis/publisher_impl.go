package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/pkg/utils"
)

// Publisher writes the latest catalog and report summaries to Redis hashes and
// lists so dashboards can pick them up. Keys are overwritten on every run.
type Publisher struct {
	client *redis.Client
	prefix string
}

// NewPublisher connects to addr and verifies the connection.
func NewPublisher(ctx context.Context, addr, password string, db int, prefix string) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return &Publisher{client: client, prefix: prefix}, nil
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) key(parts ...string) string {
	k := p.prefix
	for _, part := range parts {
		k += ":" + part
	}
	return k
}

// assetKey addresses the hash of one downloaded asset by its source URL.
func (p *Publisher) assetKey(sourceURL string) string {
	return p.key("asset", utils.HashURL(sourceURL))
}

// SaveCatalog publishes the catalog summary, per-category counts and records.
func (p *Publisher) SaveCatalog(ctx context.Context, catalog *entity.Catalog) error {
	images := make([]interface{}, 0, len(catalog.Images))
	for _, r := range catalog.Images {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		images = append(images, data)
	}

	categories := make(map[string]interface{}, len(catalog.Categories))
	for c, n := range catalog.Categories {
		categories[string(c)] = n
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		summary := p.key("catalog", "summary")
		pipe.HSet(ctx, summary,
			"total_images", catalog.TotalImages,
			"total_bytes", catalog.TotalBytes,
			"timestamp", catalog.GeneratedAt,
		)

		categoriesKey := p.key("catalog", "categories")
		pipe.Del(ctx, categoriesKey)
		if len(categories) > 0 {
			pipe.HSet(ctx, categoriesKey, categories)
		}

		imagesKey := p.key("catalog", "images")
		pipe.Del(ctx, imagesKey)
		if len(images) > 0 {
			pipe.RPush(ctx, imagesKey, images...)
		}

		for _, r := range catalog.Images {
			pipe.HSet(ctx, p.assetKey(r.SourceURL),
				"original_url", r.SourceURL,
				"local_path", r.LocalPath,
				"category", string(r.Category),
				"size", strconv.FormatInt(r.ByteSize, 10),
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish catalog: %w", err)
	}
	return nil
}

// SaveReport publishes the optimization summary and records.
func (p *Publisher) SaveReport(ctx context.Context, report *entity.OptimizationReport) error {
	images := make([]interface{}, 0, len(report.Images))
	for _, r := range report.Images {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		images = append(images, data)
	}

	s := report.Summary
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, p.key("report", "summary"),
			"total_images", s.TotalImages,
			"total_original_size", s.TotalOriginalBytes,
			"total_optimized_size", s.TotalOptimizedBytes,
			"total_savings_percent", strconv.FormatFloat(s.TotalSavingsPercent, 'f', 2, 64),
			"timestamp", s.GeneratedAt,
		)

		imagesKey := p.key("report", "images")
		pipe.Del(ctx, imagesKey)
		if len(images) > 0 {
			pipe.RPush(ctx, imagesKey, images...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
