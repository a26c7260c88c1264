package listener

import (
	"context"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
)

// RequestContext is the per-request state shared by the hooks.
type RequestContext struct {
	// Format is the declared response format, for example "html" or "pdf".
	Format string

	// Formats is the request's format table.
	Formats *FormatTable

	// Route is the name of the matched route, empty for anonymous handlers.
	Route string

	directive *directive.Directive
}

// NewRequestContext creates request state for the given declared format.
func NewRequestContext(format string) *RequestContext {
	return &RequestContext{
		Format:  format,
		Formats: NewFormatTable(),
	}
}

// SetDirective stores the PDF directive for this request. The slot is set at
// most once; a second call leaves the first directive in place and returns false.
func (rc *RequestContext) SetDirective(d directive.Directive) bool {
	if rc.directive != nil {
		return false
	}
	c := d.Clone()
	rc.directive = &c
	return true
}

// Directive returns the stored directive, if any.
func (rc *RequestContext) Directive() (directive.Directive, bool) {
	if rc.directive == nil {
		return directive.Directive{}, false
	}
	return *rc.directive, true
}

// HasDirective reports whether the response of this request is converted.
func (rc *RequestContext) HasDirective() bool {
	return rc.directive != nil
}

type contextKey struct{}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the request state stored by the middleware.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rc, ok
}
