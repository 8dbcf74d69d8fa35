package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the migrator configuration shared by the crawl and optimize runs.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Crawl
	BaseURL       string        `mapstructure:"BASE_URL"`
	Pages         []string      `mapstructure:"PAGES"`
	ImagesDir     string        `mapstructure:"IMAGES_DIR"`
	CatalogFile   string        `mapstructure:"CATALOG_FILE"`
	DownloadDelay time.Duration `mapstructure:"DOWNLOAD_DELAY"`
	HTTPTimeout   time.Duration `mapstructure:"HTTP_TIMEOUT"`
	UserAgents    []string      `mapstructure:"USER_AGENTS"`
	RenderJS      bool          `mapstructure:"RENDER_JS"`
	RenderTimeout time.Duration `mapstructure:"RENDER_TIMEOUT"`

	// Optional exports
	PostgresURL    string `mapstructure:"POSTGRES_URL"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`
	MetricsFile    string `mapstructure:"METRICS_FILE"`

	// Optimize
	ReportFile     string   `mapstructure:"REPORT_FILE"`
	CwebpPath      string   `mapstructure:"CWEBP_PATH"`
	AvifencPath    string   `mapstructure:"AVIFENC_PATH"`
	WebPQuality    int      `mapstructure:"WEBP_QUALITY"`
	WebPEffort     int      `mapstructure:"WEBP_EFFORT"`
	AVIFQuality    int      `mapstructure:"AVIF_QUALITY"`
	JPEGQuality    int      `mapstructure:"JPEG_QUALITY"`
	NextConfigPath string   `mapstructure:"NEXT_CONFIG_PATH"`
	ComponentPath  string   `mapstructure:"COMPONENT_PATH"`
	ImageDomains   []string `mapstructure:"IMAGE_DOMAINS"`
}

var defaults = map[string]any{
	"LOG_LEVEL":      "info",
	"BASE_URL":       "https://hiperliga.com.br",
	"PAGES":          []string{"/", "/hiperliga", "/gran-finelle", "/videos", "/contato", "/sobre-nos", "/faq"},
	"IMAGES_DIR":     "public/images",
	"CATALOG_FILE":   "image_catalog.json",
	"DOWNLOAD_DELAY": time.Second,
	"HTTP_TIMEOUT":   30 * time.Second,
	"USER_AGENTS": []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	},
	"RENDER_JS":        false,
	"RENDER_TIMEOUT":   60 * time.Second,
	"POSTGRES_URL":     "",
	"REDIS_ADDR":       "",
	"REDIS_PASSWORD":   "",
	"REDIS_DB":         0,
	"REDIS_KEY_PREFIX": "migrator",
	"METRICS_FILE":     "",
	"REPORT_FILE":      "optimization_report.json",
	"CWEBP_PATH":       "cwebp",
	"AVIFENC_PATH":     "avifenc",
	"WEBP_QUALITY":     80,
	"WEBP_EFFORT":      6,
	"AVIF_QUALITY":     50,
	"JPEG_QUALITY":     85,
	"NEXT_CONFIG_PATH": "next.config.optimized.js",
	"COMPONENT_PATH":   "src/components/ui/optimized-image.tsx",
	"IMAGE_DOMAINS":    []string{},
}

// Load reads configuration from an optional file and the environment.
// With an empty path a local .env is read if present; environment variables
// always win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		// A missing .env is fine, configuration may come purely from the environment.
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about; bind them
	// explicitly so Unmarshal sees environment overrides.
	for key := range defaults {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &nf)
}

func (c *Config) normalize() {
	c.Pages = trimAll(c.Pages)
	c.UserAgents = trimAll(c.UserAgents)
	c.ImageDomains = trimAll(c.ImageDomains)
	if len(c.ImageDomains) == 0 {
		if u, err := url.Parse(c.BaseURL); err == nil && u.Hostname() != "" {
			c.ImageDomains = []string{u.Hostname()}
		}
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks the fields both runs depend on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if strings.TrimSpace(c.ImagesDir) == "" {
		return errors.New("IMAGES_DIR is required")
	}
	if c.DownloadDelay < 0 {
		return errors.New("DOWNLOAD_DELAY must not be negative")
	}
	for name, q := range map[string]int{"WEBP_QUALITY": c.WebPQuality, "JPEG_QUALITY": c.JPEGQuality} {
		if q < 1 || q > 100 {
			return fmt.Errorf("%s must be within 1..100, got %d", name, q)
		}
	}
	if c.AVIFQuality < 0 || c.AVIFQuality > 63 {
		return fmt.Errorf("AVIF_QUALITY must be within 0..63, got %d", c.AVIFQuality)
	}
	if c.WebPEffort < 0 || c.WebPEffort > 6 {
		return fmt.Errorf("WEBP_EFFORT must be within 0..6, got %d", c.WebPEffort)
	}
	return nil
}

// PageURLs resolves the configured page paths against BASE_URL.
func (c *Config) PageURLs() []string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil
	}
	urls := make([]string, 0, len(c.Pages))
	for _, p := range c.Pages {
		ref, err := url.Parse(p)
		if err != nil {
			continue
		}
		urls = append(urls, base.ResolveReference(ref).String())
	}
	return urls
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
