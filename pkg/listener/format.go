package listener

import (
	"mime"
	"strings"
	"sync"
)

// Well known formats.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"

	MimePDF  = "application/pdf"
	MimeHTML = "text/html"
)

// FormatTable maps request format names to MIME types.
type FormatTable struct {
	mu      sync.RWMutex
	formats map[string][]string
}

// NewFormatTable returns a table seeded with the common web formats.
func NewFormatTable() *FormatTable {
	return &FormatTable{
		formats: map[string][]string{
			"html": {"text/html", "application/xhtml+xml"},
			"txt":  {"text/plain"},
			"json": {"application/json"},
			"xml":  {"text/xml", "application/xml"},
			"css":  {"text/css"},
			"js":   {"application/javascript", "text/javascript"},
		},
	}
}

// Register maps format to mimeTypes, replacing any previous mapping.
// Registering the same mapping again has no effect.
func (t *FormatTable) Register(format string, mimeTypes ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.formats[format] = append([]string(nil), mimeTypes...)
}

// MimeType returns the primary MIME type of format, or "" if unknown.
func (t *FormatTable) MimeType(format string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if types := t.formats[format]; len(types) > 0 {
		return types[0]
	}
	return ""
}

// MimeTypes returns every MIME type registered for format.
func (t *FormatTable) MimeTypes(format string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.formats[format]...)
}

// Format returns the format registered for a MIME type, or "" if none is.
// Media type parameters such as charset are ignored.
func (t *FormatTable) Format(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for format, types := range t.formats {
		for _, mt := range types {
			if mt == mediaType {
				return format
			}
		}
	}
	return ""
}
