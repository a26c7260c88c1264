// Package listener converts HTML and Markdown responses to PDF inside a
// handler chain.
//
// Three hooks run for every request:
//
//   - FormatRegistrar.OnRequest registers the pdf format.
//   - ControllerInterceptor.OnController looks up the route's directive
//     when the request asks for pdf.
//   - ResponseTransformer.OnResponse renders the buffered response and
//     replaces the body. A failed render sets the format back to html.
//
// Middleware composes them for gorilla/mux:
//
//	table := directive.NewTable()
//	table.MustRegister("report", directive.Directive{
//		ParserType:  directive.ParserHTML,
//		Stylesheet:  "reports/style.css",
//		EnableCache: true,
//	})
//
//	transformer := listener.NewResponseTransformer(factory,
//		listener.WithStylesheets(engine),
//		listener.WithCache(store),
//	)
//
//	r := mux.NewRouter()
//	r.Use(listener.NewMiddleware(table, transformer).Handler)
//	r.HandleFunc("/reports/{id}.{_format}", reportHandler).Name("report")
//
// Responses of requests without a directive are not buffered.
package listener
