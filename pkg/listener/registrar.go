package listener

// FormatRegistrar registers the pdf format when a request starts.
type FormatRegistrar struct{}

// OnRequest maps "pdf" to application/pdf in the request's format table.
func (FormatRegistrar) OnRequest(rc *RequestContext) {
	if rc.Formats == nil {
		rc.Formats = NewFormatTable()
	}
	rc.Formats.Register(FormatPDF, MimePDF)
}
