package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/directive"
	"github.com/Sternrassler/pdfbundle/pkg/listener"
	"github.com/Sternrassler/pdfbundle/pkg/metrics"
	"github.com/gorilla/mux"
)

// Route names, used as directive table keys.
const (
	routeReport = "report"
	routeNotes  = "notes"
)

// newDirectiveTable declares which routes can be served as PDF.
func newDirectiveTable() *directive.Table {
	table := directive.NewTable()
	table.MustRegister(routeReport, directive.Directive{
		ParserType:  directive.ParserHTML,
		Stylesheet:  "reports/style.css",
		Headers:     map[string]string{"Content-Disposition": directive.Inline("report.pdf")},
		EnableCache: true,
	})
	table.MustRegister(routeNotes, directive.Directive{
		ParserType:  directive.ParserMarkdown,
		Stylesheet:  "notes/style.yaml",
		Headers:     map[string]string{"Content-Disposition": directive.Attachment("notes.pdf")},
		EnableCache: true,
	})
	return table
}

// newRouter wires the service endpoints and the document routes.
func newRouter(mw *listener.Middleware, store cache.Store) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", readyHandler(store)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())

	docs := r.PathPrefix("/").Subrouter()
	docs.Use(mw.Handler)
	docs.HandleFunc("/reports/{id}.{_format}", reportHandler).Methods(http.MethodGet, http.MethodHead).Name(routeReport)
	docs.HandleFunc("/notes/{id}.{_format}", notesHandler).Methods(http.MethodGet, http.MethodHead).Name(routeNotes)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether the cache backend is reachable.
func readyHandler(store cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(cache.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				http.Error(w, fmt.Sprintf("cache not ready: %v", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Report {{ .ID }}</title></head>
<body>
<h1>Report {{ .ID }}</h1>
<table>
<tr><th>Item</th><th>Quantity</th><th>Price</th></tr>
{{ range .Rows }}<tr><td>{{ .Item }}</td><td>{{ .Quantity }}</td><td>{{ printf "%.2f" .Price }}</td></tr>
{{ end }}</table>
<footer>Generated {{ .Generated }}</footer>
</body>
</html>
`))

type reportRow struct {
	Item     string
	Quantity int
	Price    float64
}

// reportHandler serves a sample HTML report. The middleware converts it
// when the request asks for pdf.
func reportHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data := struct {
		ID        string
		Rows      []reportRow
		Generated string
	}{
		ID: id,
		Rows: []reportRow{
			{Item: "Tritanium", Quantity: 12000, Price: 4.12},
			{Item: "Pyerite", Quantity: 4500, Price: 9.87},
			{Item: "Mexallon", Quantity: 800, Price: 61.50},
		},
		// Day resolution keeps the body stable so cached documents are reused.
		Generated: time.Now().UTC().Format("2006-01-02"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportPage.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// notesHandler serves a sample Markdown document.
func notesHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if strings.ContainsAny(id, "\r\n") {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprintf(w, "# Notes %s\n\n", id)
	fmt.Fprintf(w, "Meeting notes rendered by the markdown parser.\n\n")
	fmt.Fprintf(w, "## Agenda\n\n- Cache backends\n- Render timeouts\n- Stylesheets\n\n")
	fmt.Fprintf(w, "## Decisions\n\n1. Cache keys are versioned.\n2. Failed renders fall back to html.\n")
}
