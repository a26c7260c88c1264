package render

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
)

// Renderer renders a document body and stylesheet text into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, body, stylesheet string) ([]byte, error)
}

// Builder returns the Renderer for a document parser type.
type Builder interface {
	Build(parser directive.ParserType) (Renderer, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, body, stylesheet string) ([]byte, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, body, stylesheet string) ([]byte, error) {
	return f(ctx, body, stylesheet)
}

// PostProcessor transforms a rendered document, for example to optimize it.
type PostProcessor func(data []byte) ([]byte, error)

// Factory is the default Builder. It dispatches on the parser type to the
// configured backends. It is safe for concurrent use.
type Factory struct {
	html     *ChromeConverter
	page     PageConfig
	markdown *markdownBackend
	post     []PostProcessor
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithHTMLConverter enables the html parser backend.
func WithHTMLConverter(c *ChromeConverter) FactoryOption {
	return func(f *Factory) {
		f.html = c
	}
}

// WithPageConfig sets the page layout used by the html parser backend.
func WithPageConfig(pg PageConfig) FactoryOption {
	return func(f *Factory) {
		f.page = pg
	}
}

// WithMarkdownStyle sets the default style of the markdown parser backend.
// Stylesheet text from a directive is applied on top of it.
func WithMarkdownStyle(style MarkdownStyle) FactoryOption {
	return func(f *Factory) {
		f.markdown = newMarkdownBackend(style)
	}
}

// WithPostProcessor appends a post-processing step run on every document.
func WithPostProcessor(p PostProcessor) FactoryOption {
	return func(f *Factory) {
		f.post = append(f.post, p)
	}
}

// NewFactory creates a Factory. The markdown backend is always available; the
// html backend needs WithHTMLConverter.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		page:     DefaultPageConfig(),
		markdown: newMarkdownBackend(DefaultMarkdownStyle()),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Build returns the Renderer for parser.
func (f *Factory) Build(parser directive.ParserType) (Renderer, error) {
	var backend Renderer

	switch parser {
	case directive.ParserHTML:
		if f.html == nil {
			return nil, &Error{Parser: parser, Err: ErrBackendUnavailable}
		}
		backend = &htmlRenderer{conv: f.html, page: f.page}
	case directive.ParserMarkdown:
		backend = f.markdown
	default:
		return nil, &Error{Parser: parser, Err: fmt.Errorf("%w: %q", ErrUnknownParser, parser)}
	}

	return &pipeline{parser: parser, backend: backend, post: f.post}, nil
}

// pipeline runs a backend followed by the post processors and records metrics.
type pipeline struct {
	parser  directive.ParserType
	backend Renderer
	post    []PostProcessor
}

func (p *pipeline) Render(ctx context.Context, body, stylesheet string) ([]byte, error) {
	start := time.Now()
	defer func() {
		renderDuration.WithLabelValues(string(p.parser)).Observe(time.Since(start).Seconds())
	}()

	data, err := p.render(ctx, body, stylesheet)
	if err != nil {
		rendersTotal.WithLabelValues(string(p.parser), "error").Inc()
		return nil, wrapError(p.parser, err)
	}

	rendersTotal.WithLabelValues(string(p.parser), "ok").Inc()
	renderedBytes.WithLabelValues(string(p.parser)).Observe(float64(len(data)))
	return data, nil
}

func (p *pipeline) render(ctx context.Context, body, stylesheet string) ([]byte, error) {
	data, err := p.backend.Render(ctx, body, stylesheet)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	for _, step := range p.post {
		if data, err = step(data); err != nil {
			return nil, fmt.Errorf("post-process: %w", err)
		}
	}
	return data, nil
}
