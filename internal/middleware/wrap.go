package middleware

import "net/http"

// beforeWriteWriter runs a hook once, right before the response header goes out.
type beforeWriteWriter struct {
	http.ResponseWriter
	before func(http.ResponseWriter)
	wrote  bool
}

func newBeforeWriteWriter(w http.ResponseWriter, before func(http.ResponseWriter)) *beforeWriteWriter {
	return &beforeWriteWriter{ResponseWriter: w, before: before}
}

func (rw *beforeWriteWriter) fire() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.before != nil {
		rw.before(rw.ResponseWriter)
	}
}

func (rw *beforeWriteWriter) WriteHeader(statusCode int) {
	rw.fire()
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *beforeWriteWriter) Write(b []byte) (int, error) {
	rw.fire()
	return rw.ResponseWriter.Write(b)
}

func (rw *beforeWriteWriter) Flush() {
	rw.fire()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *beforeWriteWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
