package session

import (
	"bytes"
	"net/http"
)

// bufferedWriter collects a handler's response so it can be sent after the session is saved.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: http.Header{}}
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// flush sends the collected response to w. Headers already set on w are kept.
func (b *bufferedWriter) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, vs := range b.header {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}

	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if b.body.Len() > 0 {
		b.body.WriteTo(w)
	}
}
