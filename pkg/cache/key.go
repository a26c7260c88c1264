package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
)

// KeyVersion is bumped whenever rendering output changes for identical input,
// so entries written by an older renderer are never served.
const KeyVersion = "v1"

// Key identifies a rendered PDF document in the cache.
type Key struct {
	// Version is the cache key schema version (KeyVersion by default).
	Version string

	// Parser is the parser backend that rendered the document.
	Parser directive.ParserType

	// Digest is the hex SHA-256 of the response body followed by the stylesheet text.
	Digest string
}

// NewKey creates the cache key for a document rendered by parser from body and
// stylesheet. An empty stylesheet hashes the body alone.
func NewKey(parser directive.ParserType, body, stylesheet string) Key {
	return Key{
		Version: KeyVersion,
		Parser:  parser,
		Digest:  Digest(body, stylesheet),
	}
}

// Digest returns the hex SHA-256 of body concatenated with stylesheet.
func Digest(body, stylesheet string) string {
	h := sha256.New()
	h.Write([]byte(body))
	h.Write([]byte(stylesheet))
	return hex.EncodeToString(h.Sum(nil))
}

// String generates the key string used by the stores.
// Format: pdf:version:parser:digest
//
// Example:
//
//	pdf:v1:html:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
func (k Key) String() string {
	version := k.Version
	if version == "" {
		version = KeyVersion
	}

	parts := []string{"pdf", version}
	if k.Parser != "" {
		parts = append(parts, string(k.Parser))
	}
	parts = append(parts, k.Digest)

	return strings.Join(parts, ":")
}
