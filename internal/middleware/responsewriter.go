package middleware

import (
	"bytes"
	"net/http"
)

// ResponseRecorder is an http.ResponseWriter that buffers the status code,
// headers, and complete body instead of forwarding them. The interceptor
// replays the buffered response to the real writer once the handler returns,
// so a handler that streams its body in chunks still reaches the client as a
// single complete response, and the logged body equals the concatenation of
// every chunk byte-for-byte.
type ResponseRecorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

// NewResponseRecorder returns an empty recorder.
func NewResponseRecorder() *ResponseRecorder {
	return &ResponseRecorder{
		header: make(http.Header),
		status: http.StatusOK, // default if WriteHeader is never called
	}
}

// Header implements http.ResponseWriter.
func (rr *ResponseRecorder) Header() http.Header {
	return rr.header
}

// WriteHeader records the status code. Only the first call counts, matching
// net/http semantics.
func (rr *ResponseRecorder) WriteHeader(code int) {
	if rr.wroteHeader {
		return
	}
	rr.status = code
	rr.wroteHeader = true
}

// Write buffers the body bytes. Never fails.
func (rr *ResponseRecorder) Write(b []byte) (int, error) {
	rr.wroteHeader = true
	return rr.body.Write(b)
}

// Flush implements http.Flusher as a no-op so streaming handlers don't
// degrade. The buffered body is replayed whole after the handler returns.
func (rr *ResponseRecorder) Flush() {}

// Status returns the recorded status code (200 if the handler never set one).
func (rr *ResponseRecorder) Status() int {
	return rr.status
}

// Body returns the buffered response body.
func (rr *ResponseRecorder) Body() []byte {
	return rr.body.Bytes()
}

// MediaType returns the recorded Content-Type header, if any.
func (rr *ResponseRecorder) MediaType() string {
	return rr.header.Get("Content-Type")
}

// WriteTo replays the recorded response onto w: headers (including media
// type), status code, then the full body.
func (rr *ResponseRecorder) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vv := range rr.header {
		dst[k] = vv
	}
	w.WriteHeader(rr.status)
	_, err := w.Write(rr.body.Bytes())
	return err
}
