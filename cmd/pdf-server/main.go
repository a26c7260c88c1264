package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/listener"
	"github.com/Sternrassler/pdfbundle/pkg/logging"
	"github.com/Sternrassler/pdfbundle/pkg/render"
	"github.com/Sternrassler/pdfbundle/pkg/stylesheet"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"pkt.systems/version"
)

//go:embed templates
var builtinTemplates embed.FS

func init() {
	version.SetDefaultModule("github.com/Sternrassler/pdfbundle")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("pdf-server")

	ctx := context.Background()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("Failed to create cache store")
	}
	defer closeStore()

	templates, err := templateFS(cfg.TemplateDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open stylesheet templates")
	}

	factory, closeFactory := newFactory(cfg, logger)
	defer closeFactory()

	engine := stylesheet.NewEngine(templates, stylesheet.WithData(map[string]string{
		"Accent": "#1f4e79",
	}))

	transformer := listener.NewResponseTransformer(factory,
		listener.WithStylesheets(engine),
		listener.WithCache(store),
		listener.WithTransformerLogger(logging.NewLogger("transformer")),
	)
	mw := listener.NewMiddleware(newDirectiveTable(), transformer,
		listener.WithLogger(logging.NewLogger("listener")),
	)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
	}).Handler(newRouter(mw, store))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("version", version.Current()).
			Str("cache", cfg.CacheBackend).
			Msg("Starting pdf server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newStore creates the configured cache backend and its close function.
func newStore(ctx context.Context, cfg Config) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.CacheBackend {
	case "memory":
		return cache.NewMemoryStore(cfg.CacheSize, cfg.CacheTTL), noop, nil

	case "redis":
		opts, err := redisOptions(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		return cache.NewRedisStore(client, cfg.CacheTTL), client.Close, nil

	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		return cache.NewGCSStore(client.Bucket(cfg.GCSBucket), cfg.GCSPrefix), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

// redisOptions accepts a plain host:port address or a redis:// URL.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// templateFS returns dir, or the built-in templates when dir is empty.
func templateFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(builtinTemplates, "templates")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// pageConfig returns the html print layout for the configured paper size.
func pageConfig(cfg Config) render.PageConfig {
	pg := render.DefaultPageConfig()
	if size, ok := render.PaperSizeByName(cfg.PageSize); ok {
		pg.Size = size
	}
	return pg
}

// newFactory creates the render factory. The html parser is left out when no
// browser can be started; html routes then answer pdf requests with the
// error page.
func newFactory(cfg Config, logger zerolog.Logger) (*render.Factory, func()) {
	opts := []render.FactoryOption{render.WithPageConfig(pageConfig(cfg))}
	if cfg.PDFOptimize {
		opts = append(opts, render.WithPostProcessor(render.Optimize))
	}

	chromeOpts := []render.ChromeOption{render.WithRenderTimeout(cfg.RenderTimeout)}
	if cfg.ChromePath != "" {
		chromeOpts = append(chromeOpts, render.WithChromePath(cfg.ChromePath))
	}
	if cfg.ChromeNoSandbox {
		chromeOpts = append(chromeOpts, render.WithNoSandbox())
	}
	if cfg.ChromeAutoDownload {
		chromeOpts = append(chromeOpts, render.WithAutoDownload())
	}

	conv, err := render.NewChromeConverter(chromeOpts...)
	if err != nil {
		logger.Warn().Err(err).Msg("Headless browser unavailable, html parser disabled")
		return render.NewFactory(opts...), func() {}
	}

	opts = append(opts, render.WithHTMLConverter(conv))
	return render.NewFactory(opts...), func() { conv.Close() }
}
