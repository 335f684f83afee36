package api

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/box"
)

// Compression gzips responses when the client accepts it. Scan results are
// written as JSON lines so every batch is flushed as it is produced.
func Compression(level int) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			w := box.GetResponse(ctx)

			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next(ctx)
				return
			}

			gz, err := gzip.NewWriterLevel(w, level)
			if err != nil {
				gz = gzip.NewWriter(w)
			}
			defer gz.Close()

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
			box.GetBoxContext(ctx).Response = gzipResponseWriter{Writer: gz, gz: gz, ResponseWriter: w}
			next(ctx)
		}
	}
}

type gzipResponseWriter struct {
	io.Writer
	gz *gzip.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w gzipResponseWriter) Flush() {
	w.gz.Flush()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
