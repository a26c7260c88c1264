// Package render turns a response body and its stylesheet text into PDF bytes.
//
// A Builder selects the parser backend for a directive's parser type and
// returns a Renderer:
//
//	conv, err := render.NewChromeConverter(render.WithNoSandbox())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conv.Close()
//
//	factory := render.NewFactory(
//		render.WithHTMLConverter(conv),
//		render.WithPostProcessor(render.Optimize),
//	)
//
//	r, err := factory.Build(directive.ParserHTML)
//	if err != nil {
//		return err
//	}
//	pdf, err := r.Render(ctx, "<h1>Report</h1>", "h1 { color: navy; }")
//
// # Parser backends
//
//   - html: headless Chrome through the DevTools protocol. The stylesheet text
//     is injected into the document as a <style> element.
//   - markdown: the mdf PDF renderer. The stylesheet text is a YAML document
//     with page and font settings (see MarkdownStyle).
//
// Every failure a Renderer returns is an *Error carrying the parser type.
package render
