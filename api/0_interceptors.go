package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/metrics"
)

// RecoverFromPanic turns a panicking handler into a 500 response.
func RecoverFromPanic(next box.H) box.H {
	return func(ctx context.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic serving request", "panic", err, "stack", string(debug.Stack()))
				box.SetError(ctx, fmt.Errorf("panic: %v", err))
			}
		}()
		next(ctx)
	}
}

// statusWriter remembers the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func captureStatus(ctx context.Context) *statusWriter {
	c := box.GetBoxContext(ctx)
	if sw, ok := c.Response.(*statusWriter); ok {
		return sw
	}
	sw := &statusWriter{ResponseWriter: c.Response}
	c.Response = sw
	return sw
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func AccessLog(l *slog.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			sw := captureStatus(ctx)
			now := time.Now()
			defer func() {
				l.Info("access",
					"remote", formatRemoteAddr(r),
					"method", r.Method,
					"url", r.URL.String(),
					"status", sw.code(),
					"elapsed", time.Since(now),
				)
			}()

			next(ctx)
		}
	}
}

func Metrics(m *metrics.Metrics) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			sw := captureStatus(ctx)
			now := time.Now()
			defer func() {
				m.Request(r.Method, sw.code(), time.Since(now).Seconds())
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[0:i]
}
