// Package stylesheet renders stylesheet templates referenced by PDF directives.
//
// Templates are text/template files read from an fs.FS. The rendered text is
// handed to the PDF renderer next to the response body: CSS for the HTML
// parser, YAML style settings for the Markdown parser.
package stylesheet

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

// Renderer renders a stylesheet template to text.
type Renderer interface {
	Render(ctx context.Context, path string) (string, error)
}

// Engine renders templates from a file system and caches parsed templates.
// It is safe for concurrent use.
type Engine struct {
	fsys  fs.FS
	funcs template.FuncMap
	data  any
	cache bool

	mu     sync.RWMutex
	parsed map[string]*template.Template
}

// Option configures an Engine.
type Option func(*Engine)

// WithFuncs adds template functions available to every stylesheet.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// WithData sets the value templates are executed with.
func WithData(data any) Option {
	return func(e *Engine) {
		e.data = data
	}
}

// WithoutCache re-reads and re-parses templates on every render.
// Useful during development when templates change on disk.
func WithoutCache() Option {
	return func(e *Engine) {
		e.cache = false
	}
}

// NewEngine creates an Engine reading templates from fsys.
func NewEngine(fsys fs.FS, opts ...Option) *Engine {
	if fsys == nil {
		panic("stylesheet file system cannot be nil")
	}
	e := &Engine{
		fsys:   fsys,
		funcs:  template.FuncMap{},
		cache:  true,
		parsed: make(map[string]*template.Template),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Render executes the template at path and returns its output.
func (e *Engine) Render(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Path: path, Op: OpLoad, Err: err}
	}

	tmpl, err := e.lookup(path)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, e.data); err != nil {
		return "", &Error{Path: path, Op: OpRuntime, Err: err}
	}
	return out.String(), nil
}

// lookup returns the parsed template for path, loading it on first use.
func (e *Engine) lookup(path string) (*template.Template, error) {
	name := strings.TrimPrefix(path, "/")

	if e.cache {
		e.mu.RLock()
		tmpl, ok := e.parsed[name]
		e.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	if !fs.ValidPath(name) {
		return nil, &Error{Path: path, Op: OpLoad, Err: fmt.Errorf("invalid template path")}
	}

	src, err := fs.ReadFile(e.fsys, name)
	if err != nil {
		return nil, &Error{Path: path, Op: OpLoad, Err: err}
	}

	tmpl, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, &Error{Path: path, Op: OpSyntax, Err: err}
	}

	if e.cache {
		e.mu.Lock()
		e.parsed[name] = tmpl
		e.mu.Unlock()
	}
	return tmpl, nil
}
