package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/logging"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ChromeOption configures a ChromeConverter.
type ChromeOption func(*chromeConfig)

type chromeConfig struct {
	execPath     string
	timeout      time.Duration
	noSandbox    bool
	autoDownload bool
}

// WithChromePath sets the Chrome or Chromium executable.
func WithChromePath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.execPath = path
	}
}

// WithRenderTimeout bounds a single conversion. Zero disables the bound.
func WithRenderTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox, required when running as root.
func WithNoSandbox() ChromeOption {
	return func(c *chromeConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload downloads Chromium when no executable is configured or
// found on the system.
func WithAutoDownload() ChromeOption {
	return func(c *chromeConfig) {
		c.autoDownload = true
	}
}

// ChromeConverter prints HTML documents to PDF with a shared headless Chrome.
// Every conversion runs in its own tab. It is safe for concurrent use.
type ChromeConverter struct {
	cfg           chromeConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewChromeConverter starts a headless browser. Call Close to stop it.
func NewChromeConverter(opts ...ChromeOption) (*ChromeConverter, error) {
	cfg := chromeConfig{timeout: 30 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	logger := logging.NewLogger("chrome")

	if cfg.execPath == "" {
		cfg.execPath = lookBrowser()
	}
	if cfg.execPath == "" && cfg.autoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", path).Msg("Using downloaded Chromium")
		cfg.execPath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-first-run", true),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing executable fails at startup.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	logger.Debug().Str("exec_path", cfg.execPath).Msg("Headless browser started")

	return &ChromeConverter{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// Close stops the browser. Close is idempotent.
func (c *ChromeConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// Convert prints an HTML document to PDF.
func (c *ChromeConverter) Convert(ctx context.Context, html string, pg PageConfig) ([]byte, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	// The tab lives under the browser context; stop it when the caller gives up.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	pg = pg.resolved()
	width, height := pg.paperInches()
	margin := cmToInches(pg.Margin)

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(margin).
				WithMarginRight(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithScale(pg.Scale).
				WithLandscape(pg.Landscape).
				WithPrintBackground(pg.PrintBackground).
				WithPreferCSSPageSize(pg.PreferCSSPageSize).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Print to PDF failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("print to pdf: %w", ctxErr)
		}
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return buf, nil
}

// htmlRenderer is the html parser backend.
type htmlRenderer struct {
	conv *ChromeConverter
	page PageConfig
}

func (r *htmlRenderer) Render(ctx context.Context, body, stylesheet string) ([]byte, error) {
	return r.conv.Convert(ctx, InjectStylesheet(body, stylesheet), r.page)
}

// InjectStylesheet adds css to an HTML document as a <style> element placed
// before </head>. Documents without a head get the element prepended.
func InjectStylesheet(html, css string) string {
	if strings.TrimSpace(css) == "" {
		return html
	}
	style := "<style>\n" + css + "\n</style>\n"

	if i := indexFold(html, "</head>"); i >= 0 {
		return html[:i] + style + html[i:]
	}
	return style + html
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
