package listener

import (
	"fmt"
	"html"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// FormatVar is the route variable and query parameter naming the format.
const FormatVar = "_format"

// ErrorHandler writes the response for a failed conversion.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware runs the format registrar, the controller interceptor and the
// response transformer around an http.Handler.
type Middleware struct {
	registrar    FormatRegistrar
	interceptor  *ControllerInterceptor
	transformer  *ResponseTransformer
	routeName    func(*http.Request) string
	errorHandler ErrorHandler
	logger       zerolog.Logger
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithErrorHandler replaces the default 500 error page.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = h
	}
}

// WithRouteName sets how the route name is read from a request. The default
// reads the name of the current gorilla/mux route.
func WithRouteName(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.routeName = fn
	}
}

// WithLogger sets the logger of the middleware and its interceptor.
func WithLogger(l zerolog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = l
	}
}

// NewMiddleware creates the middleware. It panics if resolver or transformer is nil.
func NewMiddleware(resolver DirectiveResolver, transformer *ResponseTransformer, opts ...MiddlewareOption) *Middleware {
	if transformer == nil {
		panic("response transformer cannot be nil")
	}
	m := &Middleware{
		transformer:  transformer,
		routeName:    muxRouteName,
		errorHandler: DefaultErrorHandler,
		logger:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.interceptor = NewControllerInterceptor(resolver, m.logger)
	return m
}

// Handler wraps next. It has the mux.MiddlewareFunc signature.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := &RequestContext{}
		m.registrar.OnRequest(rc)
		rc.Format = DetectFormat(r, rc.Formats)
		rc.Route = m.routeName(r)

		r = r.WithContext(WithRequestContext(r.Context(), rc))

		if err := m.interceptor.OnController(rc, ControllerRef{Route: rc.Route}); err != nil {
			m.logger.Error().Err(err).Str("route", rc.Route).Msg("Directive resolution failed")
			m.errorHandler(w, r, err)
			return
		}

		if !rc.HasDirective() {
			next.ServeHTTP(w, r)
			return
		}

		var buf responseBuffer
		next.ServeHTTP(buf.wrap(w), r)

		resp := buf.response()
		if err := m.transformer.OnResponse(r.Context(), rc, resp); err != nil {
			m.errorHandler(w, r, err)
			return
		}

		for name, values := range resp.Header {
			w.Header()[name] = values
		}
		w.WriteHeader(resp.StatusCode)
		if r.Method != http.MethodHead {
			w.Write(resp.Body)
		}
	})
}

// DefaultErrorHandler writes a 500 text/html page describing err.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	h := w.Header()
	h.Del("Content-Length")
	h.Del("Content-Disposition")
	h.Set("Content-Type", MimeHTML+"; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Document unavailable</title></head>"+
		"<body><h1>Document unavailable</h1><p>%s</p></body></html>\n", html.EscapeString(err.Error()))
}

// DetectFormat returns the format requested by r: the _format route
// variable, then the _format query parameter, then a .pdf path suffix, then
// the first Accept media type with a registered format. It defaults to html.
func DetectFormat(r *http.Request, formats *FormatTable) string {
	if f := mux.Vars(r)[FormatVar]; f != "" {
		return strings.ToLower(f)
	}
	if f := r.URL.Query().Get(FormatVar); f != "" {
		return strings.ToLower(f)
	}
	if strings.HasSuffix(strings.ToLower(r.URL.Path), "."+FormatPDF) {
		return FormatPDF
	}

	if formats != nil {
		for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err != nil || mediaType == "*/*" {
				continue
			}
			if f := formats.Format(mediaType); f != "" {
				return f
			}
		}
	}
	return FormatHTML
}

func muxRouteName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	return route.GetName()
}
