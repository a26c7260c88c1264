// Package testutil provides fakes for testing the pdf bundle.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/directive"
	"github.com/Sternrassler/pdfbundle/pkg/render"
)

// RenderCall records one Render invocation.
type RenderCall struct {
	Parser     directive.ParserType
	Body       string
	Stylesheet string
}

// FakeBuilder is a render.Builder whose renderers return a fixed result.
type FakeBuilder struct {
	mu sync.Mutex

	// Result is returned by every render. Nil derives a document from the input.
	Result []byte
	// Err is returned by every render.
	Err error
	// BuildErr is returned by Build.
	BuildErr error
	// Delay is slept before each render returns.
	Delay time.Duration

	calls  []RenderCall
	builds []directive.ParserType
}

// Build implements render.Builder.
func (b *FakeBuilder) Build(parser directive.ParserType) (render.Renderer, error) {
	b.mu.Lock()
	b.builds = append(b.builds, parser)
	err := b.BuildErr
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return render.RendererFunc(func(ctx context.Context, body, stylesheet string) ([]byte, error) {
		b.mu.Lock()
		b.calls = append(b.calls, RenderCall{Parser: parser, Body: body, Stylesheet: stylesheet})
		result, rerr, delay := b.Result, b.Err, b.Delay
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if rerr != nil {
			return nil, rerr
		}
		if result == nil {
			result = []byte("%PDF-1.7 " + string(parser) + ":" + body + ":" + stylesheet)
		}
		return result, nil
	}), nil
}

// Calls returns the recorded render calls.
func (b *FakeBuilder) Calls() []RenderCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RenderCall(nil), b.calls...)
}

// RenderCount returns the number of render calls.
func (b *FakeBuilder) RenderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// Builds returns the parser types Build was called with.
func (b *FakeBuilder) Builds() []directive.ParserType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]directive.ParserType(nil), b.builds...)
}

// FakeStore is an in-memory cache.Store that counts calls.
type FakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	TestErr error
	LoadErr error
	SaveErr error

	tests, loads, saves int
	savedKeys           []string
}

// NewFakeStore creates an empty store. The zero value is also usable.
func NewFakeStore() *FakeStore {
	return &FakeStore{entries: make(map[string][]byte)}
}

// Test implements cache.Store.
func (s *FakeStore) Test(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests++
	if s.TestErr != nil {
		return false, s.TestErr
	}
	_, ok := s.entries[key]
	return ok, nil
}

// Load implements cache.Store.
func (s *FakeStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	data, ok := s.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

// Save implements cache.Store.
func (s *FakeStore) Save(_ context.Context, data []byte, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.savedKeys = append(s.savedKeys, key)
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.entries == nil {
		s.entries = make(map[string][]byte)
	}
	s.entries[key] = data
	return nil
}

// Put stores an entry without counting a save.
func (s *FakeStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string][]byte)
	}
	s.entries[key] = data
}

// Counts returns the number of Test, Load and Save calls.
func (s *FakeStore) Counts() (tests, loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tests, s.loads, s.saves
}

// SavedKeys returns the keys passed to Save.
func (s *FakeStore) SavedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.savedKeys...)
}

// FakeStylesheets is a stylesheet.Renderer backed by a map of paths.
type FakeStylesheets struct {
	mu    sync.Mutex
	Texts map[string]string
	Err   error
	calls []string
}

// Render implements stylesheet.Renderer.
func (f *FakeStylesheets) Render(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Texts[path], nil
}

// Calls returns the rendered paths.
func (f *FakeStylesheets) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CountingResolver resolves directives from a map and counts lookups.
type CountingResolver struct {
	mu         sync.Mutex
	Directives map[string]directive.Directive
	Err        error
	calls      int
}

// Resolve implements listener.DirectiveResolver.
func (r *CountingResolver) Resolve(route string) (*directive.Directive, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return nil, false, r.Err
	}
	d, ok := r.Directives[route]
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}

// Calls returns the number of Resolve calls.
func (r *CountingResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// StubResponse defines the response of a stub controller.
type StubResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Handler returns a handler writing the stub response.
func (s StubResponse) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for key, value := range s.Headers {
			w.Header().Set(key, value)
		}
		status := s.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if s.Body != "" {
			w.Write([]byte(s.Body))
		}
	}
}

// NewHTMLResponse creates a 200 OK text/html stub response.
func NewHTMLResponse(body string) StubResponse {
	return StubResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewErrorResponse creates a stub response with an error status.
func NewErrorResponse(status int, body string) StubResponse {
	return StubResponse{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
			"X-Error":      http.StatusText(status),
		},
	}
}
