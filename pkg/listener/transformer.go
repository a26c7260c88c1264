package listener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/directive"
	"github.com/Sternrassler/pdfbundle/pkg/render"
	"github.com/Sternrassler/pdfbundle/pkg/stylesheet"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNoStylesheetEngine is returned when a directive names a stylesheet but
// the transformer has no stylesheet renderer.
var ErrNoStylesheetEngine = errors.New("no stylesheet renderer configured")

// Response is a buffered handler response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ResponseTransformer replaces successful responses of pdf requests with the
// rendered document.
type ResponseTransformer struct {
	builder     render.Builder
	stylesheets stylesheet.Renderer
	store       cache.Store
	group       singleflight.Group
	logger      zerolog.Logger
}

// TransformerOption configures a ResponseTransformer.
type TransformerOption func(*ResponseTransformer)

// WithStylesheets sets the renderer for directive stylesheet paths.
func WithStylesheets(r stylesheet.Renderer) TransformerOption {
	return func(t *ResponseTransformer) {
		t.stylesheets = r
	}
}

// WithCache sets the store for cache-enabled directives. Without a store
// every document is rendered.
func WithCache(s cache.Store) TransformerOption {
	return func(t *ResponseTransformer) {
		t.store = s
	}
}

// WithTransformerLogger sets the logger.
func WithTransformerLogger(l zerolog.Logger) TransformerOption {
	return func(t *ResponseTransformer) {
		t.logger = l
	}
}

// NewResponseTransformer creates a transformer. It panics if builder is nil.
func NewResponseTransformer(builder render.Builder, opts ...TransformerOption) *ResponseTransformer {
	if builder == nil {
		panic("render builder cannot be nil")
	}
	t := &ResponseTransformer{
		builder: builder,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// OnResponse converts resp to PDF when rc carries a directive and the status
// is at most 299. On a stylesheet or render failure it sets the declared
// format back to html, sets Content-Type to text/html and returns the
// original error.
func (t *ResponseTransformer) OnResponse(ctx context.Context, rc *RequestContext, resp *Response) error {
	d, ok := rc.Directive()
	if !ok {
		return nil
	}

	if resp.StatusCode > 299 {
		conversionsTotal.WithLabelValues(outcomePassedThrough).Inc()
		t.logger.Debug().
			Str("route", rc.Route).
			Int("status_code", resp.StatusCode).
			Msg("Error response passed through unconverted")
		return nil
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	start := time.Now()
	content, err := t.content(ctx, d, string(resp.Body))
	conversionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		rc.Format = FormatHTML
		resp.Header.Set("Content-Type", MimeHTML)
		conversionsTotal.WithLabelValues(outcomeErrorFallback).Inc()
		t.logger.Error().
			Err(err).
			Str("route", rc.Route).
			Str("parser", d.ParserType.String()).
			Msg("Pdf conversion failed")
		return err
	}

	contentType := MimePDF
	if rc.Formats != nil {
		if mt := rc.Formats.MimeType(FormatPDF); mt != "" {
			contentType = mt
		}
	}
	resp.Header.Set("Content-Type", contentType)
	for name, values := range d.HeaderValues() {
		resp.Header[name] = values
	}
	resp.Header.Set("Content-Length", strconv.Itoa(len(content)))
	resp.Body = content

	conversionsTotal.WithLabelValues(outcomeConverted).Inc()
	t.logger.Info().
		Str("route", rc.Route).
		Str("parser", d.ParserType.String()).
		Int("bytes", len(content)).
		Dur("duration", time.Since(start)).
		Msg("Response converted to pdf")
	return nil
}

// content returns the pdf document for body.
//
// Stylesheet failures take the html fallback on purpose, exactly like render
// failures, so a broken stylesheet never leaves a pdf-declared response with
// an html body.
func (t *ResponseTransformer) content(ctx context.Context, d directive.Directive, body string) ([]byte, error) {
	css, err := t.renderStylesheet(ctx, d.Stylesheet)
	if err != nil {
		return nil, err
	}

	if !d.EnableCache || t.store == nil {
		return t.render(ctx, d.ParserType, body, css)
	}

	// The shared render outlives any single caller; each caller stops
	// waiting when its own request is cancelled.
	key := cache.NewKey(d.ParserType, body, css).String()
	flight := context.WithoutCancel(ctx)
	ch := t.group.DoChan(key, func() (any, error) {
		return t.cachedRender(flight, d.ParserType, key, body, css)
	})

	select {
	case res := <-ch:
		if res.Shared {
			coalescedRenders.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *ResponseTransformer) renderStylesheet(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if t.stylesheets == nil {
		return "", &stylesheet.Error{Path: path, Op: stylesheet.OpLoad, Err: ErrNoStylesheetEngine}
	}
	return t.stylesheets.Render(ctx, path)
}

func (t *ResponseTransformer) render(ctx context.Context, parser directive.ParserType, body, css string) ([]byte, error) {
	r, err := t.builder.Build(parser)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, body, css)
}

// cachedRender serves key from the store or renders and saves it. Store
// failures fall back to rendering.
func (t *ResponseTransformer) cachedRender(ctx context.Context, parser directive.ParserType, key, body, css string) ([]byte, error) {
	logger := t.logger.With().Str("cache_key", key).Logger()

	hit, err := t.store.Test(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("Cache test failed, rendering")
	}
	if hit {
		data, err := t.store.Load(ctx, key)
		switch {
		case err == nil:
			logger.Debug().Int("bytes", len(data)).Msg("Cache hit")
			return data, nil
		case errors.Is(err, cache.ErrCacheMiss):
			logger.Debug().Msg("Cache entry vanished before load")
		default:
			logger.Warn().Err(err).Msg("Cache load failed, rendering")
		}
	}

	data, err := t.render(ctx, parser, body, css)
	if err != nil {
		return nil, err
	}

	if err := t.store.Save(ctx, data, key); err != nil {
		logger.Warn().Err(fmt.Errorf("save rendered document: %w", err)).Msg("Cache save failed")
	}
	return data, nil
}
