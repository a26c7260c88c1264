package listener

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// responseBuffer captures a handler's status and body while the headers go
// to the underlying writer's header map. Nothing reaches the client until
// the buffered response is flushed.
type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

// wrap returns a writer that buffers into b and keeps the optional
// interfaces of w that make sense for a buffered response.
func (b *responseBuffer) wrap(w http.ResponseWriter) http.ResponseWriter {
	b.header = w.Header()

	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		Header: func(httpsnoop.HeaderFunc) httpsnoop.HeaderFunc {
			return func() http.Header {
				return b.header
			}
		},
		WriteHeader: func(httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return b.writeHeader
		},
		Write: func(httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(p []byte) (int, error) {
				b.writeHeader(http.StatusOK)
				return b.body.Write(p)
			}
		},
		ReadFrom: func(httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				b.writeHeader(http.StatusOK)
				return b.body.ReadFrom(src)
			}
		},
		Flush: func(httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return func() {}
		},
		Hijack: func(httpsnoop.HijackFunc) httpsnoop.HijackFunc {
			return func() (net.Conn, *bufio.ReadWriter, error) {
				return nil, nil, http.ErrNotSupported
			}
		},
	})
}

func (b *responseBuffer) writeHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.status = code
	b.wroteHeader = true
}

// response returns the buffered response.
func (b *responseBuffer) response() *Response {
	status := b.status
	if !b.wroteHeader {
		status = http.StatusOK
	}
	return &Response{
		StatusCode: status,
		Header:     b.header,
		Body:       b.body.Bytes(),
	}
}
