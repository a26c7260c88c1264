package listener

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
	"github.com/rs/zerolog"
)

// ErrMetadataResolution indicates the directive lookup for a route failed.
var ErrMetadataResolution = errors.New("pdf directive resolution failed")

// DirectiveResolver looks up the PDF directive declared for a route.
// *directive.Table implements it.
type DirectiveResolver interface {
	Resolve(route string) (*directive.Directive, bool, error)
}

// ControllerRef identifies the handler a request was routed to.
type ControllerRef struct {
	// Route is the name the route was registered under. Anonymous handlers
	// have no name.
	Route string
}

// Resolvable reports whether a directive can be looked up for the handler.
func (c ControllerRef) Resolvable() bool {
	return c.Route != ""
}

// ControllerInterceptor stores the route's directive on pdf requests before
// the handler runs.
type ControllerInterceptor struct {
	resolver DirectiveResolver
	logger   zerolog.Logger
}

// NewControllerInterceptor creates an interceptor. It panics if resolver is nil.
func NewControllerInterceptor(resolver DirectiveResolver, logger zerolog.Logger) *ControllerInterceptor {
	if resolver == nil {
		panic("directive resolver cannot be nil")
	}
	return &ControllerInterceptor{resolver: resolver, logger: logger}
}

// OnController resolves the directive for ref when the request asks for pdf.
// Requests for other formats and anonymous handlers never reach the resolver.
func (i *ControllerInterceptor) OnController(rc *RequestContext, ref ControllerRef) error {
	if rc.Format != FormatPDF || !ref.Resolvable() {
		return nil
	}

	d, found, err := i.resolver.Resolve(ref.Route)
	if err != nil {
		return fmt.Errorf("%w: route %q: %w", ErrMetadataResolution, ref.Route, err)
	}
	if !found || d == nil {
		i.logger.Debug().Str("route", ref.Route).Msg("No pdf directive declared for route")
		return nil
	}

	if !rc.SetDirective(*d) {
		i.logger.Warn().Str("route", ref.Route).Msg("Pdf directive already set, keeping first")
		return nil
	}

	i.logger.Debug().
		Str("route", ref.Route).
		Str("parser", d.ParserType.String()).
		Bool("cache", d.EnableCache).
		Msg("Pdf directive attached")
	return nil
}
