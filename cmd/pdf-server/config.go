package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/logging"
	"github.com/Sternrassler/pdfbundle/pkg/render"
	"github.com/spf13/pflag"
)

// Config holds the server configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	CacheBackend string // memory, redis or gcs
	RedisURL     string
	CacheTTL     time.Duration
	CacheSize    int
	GCSBucket    string
	GCSPrefix    string

	TemplateDir string

	ChromePath         string
	ChromeNoSandbox    bool
	ChromeAutoDownload bool
	RenderTimeout      time.Duration
	PageSize           string
	PDFOptimize        bool

	CORSOrigins []string
}

// loadConfig reads the configuration from the environment. Command line
// flags override environment values.
func loadConfig(args []string) (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvBool("LOG_PRETTY", false),
		CacheBackend:       getEnv("CACHE_BACKEND", "memory"),
		RedisURL:           getEnv("REDIS_URL", "localhost:6379"),
		CacheTTL:           getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheSize:          getEnvInt("CACHE_SIZE", cache.DefaultMemoryEntries),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSPrefix:          getEnv("GCS_PREFIX", "pdf-cache"),
		TemplateDir:        getEnv("TEMPLATE_DIR", ""),
		ChromePath:         getEnv("CHROME_PATH", ""),
		ChromeNoSandbox:    getEnvBool("CHROME_NO_SANDBOX", false),
		ChromeAutoDownload: getEnvBool("CHROME_AUTO_DOWNLOAD", false),
		RenderTimeout:      getEnvDuration("RENDER_TIMEOUT", 30*time.Second),
		PageSize:           getEnv("PAGE_SIZE", "A4"),
		PDFOptimize:        getEnvBool("PDF_OPTIMIZE", false),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
	}

	flags := pflag.NewFlagSet("pdf-server", pflag.ContinueOnError)
	flags.StringVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	flags.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human readable console logs")
	flags.StringVar(&cfg.CacheBackend, "cache", cfg.CacheBackend, "Cache backend: memory|redis|gcs")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis address or redis:// URL")
	flags.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Lifetime of cached documents")
	flags.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Maximum documents held by the memory cache backend")
	flags.StringVar(&cfg.GCSBucket, "gcs-bucket", cfg.GCSBucket, "GCS bucket for the gcs cache backend")
	flags.StringVar(&cfg.GCSPrefix, "gcs-prefix", cfg.GCSPrefix, "Object name prefix in the GCS bucket")
	flags.StringVar(&cfg.TemplateDir, "templates", cfg.TemplateDir, "Stylesheet template directory (default: built-in)")
	flags.StringVar(&cfg.ChromePath, "chrome", cfg.ChromePath, "Chrome or Chromium executable")
	flags.BoolVar(&cfg.ChromeNoSandbox, "no-sandbox", cfg.ChromeNoSandbox, "Disable the Chrome sandbox")
	flags.BoolVar(&cfg.ChromeAutoDownload, "download-chrome", cfg.ChromeAutoDownload, "Download Chromium when none is installed")
	flags.DurationVar(&cfg.RenderTimeout, "render-timeout", cfg.RenderTimeout, "Timeout of a single html render")
	flags.StringVar(&cfg.PageSize, "page-size", cfg.PageSize, "Paper size of html documents: A4|A5|Letter|Legal")
	flags.BoolVar(&cfg.PDFOptimize, "optimize", cfg.PDFOptimize, "Optimize rendered documents with pdfcpu")
	flags.StringSliceVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "Allowed CORS origins")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.CacheBackend {
	case "memory", "redis":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("gcs cache backend requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if _, ok := render.PaperSizeByName(c.PageSize); !ok {
		return fmt.Errorf("unknown page size %q", c.PageSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
