package http

import (
	"compress/gzip"
	"net/http"
	"strings"
)

// GzipMiddleware compresses HTTP responses using gzip if the client supports it
func (m *Middleware) GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(rw, r)
			return
		}

		wrw := NewWrappedResponseWriter(rw)
		wrw.Header().Set("Content-Encoding", "gzip")
		wrw.Header().Add("Vary", "Accept-Encoding")
		defer wrw.Flush()

		next.ServeHTTP(wrw, r)
	})
}

// WrappedResponseWriter wraps the original ResponseWriter and includes a gzip.Writer
type WrappedResponseWriter struct {
	rw http.ResponseWriter
	gw *gzip.Writer
}

func NewWrappedResponseWriter(rw http.ResponseWriter) *WrappedResponseWriter {
	gw := gzip.NewWriter(rw)

	return &WrappedResponseWriter{gw: gw, rw: rw}
}

// Header delegates the Header method to the original ResponseWriter
func (wrw *WrappedResponseWriter) Header() http.Header {
	return wrw.rw.Header()
}

// Write compresses data before writing it to the original ResponseWriter
func (wrw *WrappedResponseWriter) Write(d []byte) (int, error) {
	return wrw.gw.Write(d)
}

// WriteHeader drops any Content-Length set for the uncompressed body
func (wrw *WrappedResponseWriter) WriteHeader(statusCode int) {
	wrw.rw.Header().Del("Content-Length")
	wrw.rw.WriteHeader(statusCode)
}

// Flush ensures that all compressed data is sent and the gzip.Writer is closed
func (wrw *WrappedResponseWriter) Flush() {
	wrw.gw.Flush()
	wrw.gw.Close()
}
