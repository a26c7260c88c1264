package listener

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Sternrassler/pdfbundle/internal/testutil"
	"github.com/Sternrassler/pdfbundle/pkg/directive"
	"github.com/gorilla/mux"
)

type testApp struct {
	router   *mux.Router
	builder  *testutil.FakeBuilder
	store    *testutil.FakeStore
	resolver *testutil.CountingResolver
}

func newTestApp(t *testing.T, opts ...MiddlewareOption) *testApp {
	t.Helper()

	app := &testApp{
		builder: &testutil.FakeBuilder{Result: []byte("%PDF-1.7 report")},
		store:   testutil.NewFakeStore(),
		resolver: &testutil.CountingResolver{Directives: map[string]directive.Directive{
			"report": {
				ParserType:  directive.ParserHTML,
				Headers:     map[string]string{"Content-Disposition": directive.Attachment("report.pdf")},
				EnableCache: true,
			},
			"missing": {ParserType: directive.ParserHTML},
		}},
	}

	transformer := NewResponseTransformer(app.builder, WithCache(app.store))

	app.router = mux.NewRouter()
	app.router.Use(NewMiddleware(app.resolver, transformer, opts...).Handler)
	app.router.HandleFunc("/reports/{id}.{_format}", testutil.NewHTMLResponse("<h1>Report</h1>").Handler()).Name("report")
	app.router.HandleFunc("/missing/{id}.{_format}", testutil.NewErrorResponse(http.StatusNotFound, "<h1>Not found</h1>").Handler()).Name("missing")
	app.router.HandleFunc("/anonymous/{id}.{_format}", testutil.NewHTMLResponse("<h1>Anon</h1>").Handler())
	app.router.HandleFunc("/format/{id}.{_format}", func(w http.ResponseWriter, r *http.Request) {
		rc, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "no request context", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, rc.Format+"|"+rc.Route)
	}).Name("format")

	return app
}

func (a *testApp) get(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestMiddleware_ConvertsPDFRequest(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/reports/1.pdf")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "%PDF-1.7 report" {
		t.Errorf("body = %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != MimePDF {
		t.Errorf("Content-Type = %q, want %q", got, MimePDF)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="report.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != strconv.Itoa(len("%PDF-1.7 report")) {
		t.Errorf("Content-Length = %q", got)
	}

	calls := app.builder.Calls()
	if len(calls) != 1 || calls[0].Body != "<h1>Report</h1>" {
		t.Errorf("render calls = %+v", calls)
	}

	app.get("/reports/1.pdf")
	if app.builder.RenderCount() != 1 {
		t.Errorf("second identical request rendered again: %d calls", app.builder.RenderCount())
	}
}

func TestMiddleware_PassThrough(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
		wantCalls  int
	}{
		{name: "html format", target: "/reports/1.html", wantStatus: 200, wantBody: "<h1>Report</h1>", wantCalls: 0},
		{name: "anonymous handler", target: "/anonymous/1.pdf", wantStatus: 200, wantBody: "<h1>Anon</h1>", wantCalls: 0},
		{name: "error status", target: "/missing/1.pdf", wantStatus: 404, wantBody: "<h1>Not found</h1>", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			w := app.get(tt.target)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", got)
			}
			if app.builder.RenderCount() != 0 {
				t.Error("renderer invoked")
			}
			if got := app.resolver.Calls(); got != tt.wantCalls {
				t.Errorf("resolver calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestMiddleware_RequestContextInHandler(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/format/1.html")
	if w.Body.String() != "html|format" {
		t.Errorf("body = %q, want %q", w.Body.String(), "html|format")
	}
}

func TestMiddleware_RenderFailure(t *testing.T) {
	app := newTestApp(t)
	app.builder.Err = errors.New("chrome crashed")

	w := app.get("/reports/1.pdf")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, MimeHTML) {
		t.Errorf("Content-Type = %q, want text/html", got)
	}
	if !strings.Contains(w.Body.String(), "chrome crashed") {
		t.Errorf("error page does not mention the error: %q", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "<h1>Report</h1>") {
		t.Error("original body leaked into error page")
	}
}

func TestMiddleware_CustomErrorHandler(t *testing.T) {
	var got error
	app := newTestApp(t, WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		rc, _ := FromContext(r.Context())
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, rc.Format)
	}))
	renderErr := errors.New("renderer down")
	app.builder.Err = renderErr

	w := app.get("/reports/1.pdf")

	if got != renderErr {
		t.Errorf("error handler got %v, want the render error", got)
	}
	if w.Code != http.StatusBadGateway || w.Body.String() != FormatHTML {
		t.Errorf("status=%d body=%q, want 502 and declared format html", w.Code, w.Body.String())
	}
}

func TestMiddleware_ResolutionFailure(t *testing.T) {
	app := newTestApp(t)
	app.resolver.Err = errors.New("table unavailable")

	w := app.get("/reports/1.pdf")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if app.builder.RenderCount() != 0 {
		t.Error("renderer invoked after resolution failure")
	}
}

func TestMiddleware_RouteNameOption(t *testing.T) {
	builder := &testutil.FakeBuilder{Result: []byte("%PDF-plain")}
	resolver := &testutil.CountingResolver{Directives: map[string]directive.Directive{
		"/plain": {ParserType: directive.ParserMarkdown},
	}}
	mw := NewMiddleware(resolver, NewResponseTransformer(builder), WithRouteName(func(r *http.Request) string {
		return r.URL.Path
	}))

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# Plain")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain?_format=pdf", nil))

	if w.Body.String() != "%PDF-plain" {
		t.Errorf("body = %q", w.Body.String())
	}
	if calls := builder.Calls(); len(calls) != 1 || calls[0].Parser != directive.ParserMarkdown || calls[0].Body != "# Plain" {
		t.Errorf("render calls = %+v", calls)
	}
}

func TestResponseBuffer(t *testing.T) {
	rec := httptest.NewRecorder()
	var buf responseBuffer
	w := buf.wrap(rec)

	w.Header().Set("X-Test", "1")
	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)
	io.WriteString(w, "hello ")
	io.WriteString(w, "world")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if rec.Body.Len() != 0 || rec.Flushed {
		t.Error("buffered writer leaked output to the client")
	}

	resp := buf.response()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if string(resp.Body) != "hello world" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.Header.Get("X-Test") != "1" {
		t.Error("header not captured")
	}

	var empty responseBuffer
	empty.wrap(httptest.NewRecorder())
	if got := empty.response().StatusCode; got != http.StatusOK {
		t.Errorf("default status = %d, want 200", got)
	}
}
