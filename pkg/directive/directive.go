// Package directive describes how a route's response is turned into a PDF.
//
// A Directive is declared once per route, at route registration time, in a
// Table. The listener resolves the directive for the current route before the
// handler runs and uses it after the handler produced its response.
package directive

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidDirective indicates a directive failed validation.
	ErrInvalidDirective = errors.New("invalid pdf directive")

	// ErrDuplicateRoute indicates a route was registered twice.
	ErrDuplicateRoute = errors.New("route already registered")
)

// ParserType selects the document parser backend that produces the PDF.
type ParserType string

const (
	// ParserHTML renders the response body as HTML through a headless browser.
	ParserHTML ParserType = "html"

	// ParserMarkdown renders the response body as Markdown.
	ParserMarkdown ParserType = "markdown"
)

// ParserTypes returns every supported parser type.
func ParserTypes() []ParserType {
	return []ParserType{ParserHTML, ParserMarkdown}
}

// Valid reports whether p is a supported parser type.
func (p ParserType) Valid() bool {
	switch p {
	case ParserHTML, ParserMarkdown:
		return true
	default:
		return false
	}
}

// String returns the parser type name.
func (p ParserType) String() string {
	return string(p)
}

// ParseParserType converts a name to a ParserType. Matching is case-insensitive.
// The empty string selects ParserHTML.
func ParseParserType(name string) (ParserType, error) {
	if name == "" {
		return ParserHTML, nil
	}
	p := ParserType(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown parser type %q (supported: %v)", ErrInvalidDirective, name, ParserTypes())
	}
	return p, nil
}

// Directive is the PDF output configuration of a single route.
type Directive struct {
	// ParserType selects which parser backend produces the PDF.
	ParserType ParserType

	// Stylesheet is an optional template path rendered into stylesheet text.
	Stylesheet string

	// Headers are overlaid on the response after conversion.
	Headers map[string]string

	// EnableCache stores rendered documents in the cache, keyed by content.
	EnableCache bool
}

// Validate checks the directive and returns ErrInvalidDirective on failure.
func (d Directive) Validate() error {
	if !d.ParserType.Valid() {
		return fmt.Errorf("%w: unknown parser type %q", ErrInvalidDirective, d.ParserType)
	}
	for name := range d.Headers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty header name", ErrInvalidDirective)
		}
		if strings.EqualFold(name, "Content-Length") {
			return fmt.Errorf("%w: content-length is computed from the document", ErrInvalidDirective)
		}
	}
	return nil
}

// Clone returns a deep copy of the directive.
func (d Directive) Clone() Directive {
	c := d
	if d.Headers != nil {
		c.Headers = make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			c.Headers[k] = v
		}
	}
	return c
}

// HeaderValues returns the directive headers in canonical form.
func (d Directive) HeaderValues() http.Header {
	h := make(http.Header, len(d.Headers))
	for k, v := range d.Headers {
		h.Set(k, v)
	}
	return h
}

// Attachment returns the Content-Disposition value for a downloaded file.
func Attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// Inline returns the Content-Disposition value for a document shown in the browser.
func Inline(filename string) string {
	return fmt.Sprintf("inline; filename=%q", filename)
}
