package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/fulldump/apitest"
	. "github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fulldump/inceptionview/database"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/registry"
	"github.com/fulldump/inceptionview/service"
)

func TestInterceptors(t *testing.T) {

	Alternative("interceptors", func(a *A) {

		db := database.NewDatabase(&database.Config{Dir: t.TempDir()})
		AssertNil(db.Load())

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		s := service.NewService(db, service.Options{Registry: registry.New(), Metrics: m})

		logs := &bytes.Buffer{}
		l := slog.New(slog.NewJSONHandler(logs, nil))

		b := Build(s, Options{Version: "test", Gatherer: reg})
		b.WithInterceptors(
			AccessLog(l),
			Metrics(m),
			Compression(gzip.BestSpeed),
			RecoverFromPanic,
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		a.Alternative("access log and metrics", func(a *A) {
			resp := api.Request("GET", "/v1/views/missing").Do()
			AssertEqual(resp.StatusCode, http.StatusNotFound)

			AssertTrue(strings.Contains(logs.String(), `"status":404`))
			counter := &dto.Metric{}
			m.HTTPRequestsTotal.WithLabelValues("GET", "404").Write(counter)
			AssertEqual(counter.GetCounter().GetValue(), 1.0)

			resp = api.Request("GET", "/metrics").Do()
			AssertEqual(resp.StatusCode, http.StatusOK)
			AssertTrue(strings.Contains(resp.BodyString(), "http_requests_total"))
		})

		a.Alternative("metrics are compressed once", func(a *A) {
			api.Request("GET", "/release").Do()

			resp := api.Request("GET", "/metrics").
				WithHeader("Accept-Encoding", "gzip").
				Do()
			AssertEqual(resp.StatusCode, http.StatusOK)
			AssertEqual(resp.Header.Get("Content-Encoding"), "gzip")

			gz, err := gzip.NewReader(bytes.NewReader(resp.BodyBytes()))
			AssertNil(err)
			body, err := io.ReadAll(gz)
			AssertNil(err)
			AssertTrue(strings.Contains(string(body), "http_requests_total"))
		})

		a.Alternative("gzip", func(a *A) {
			resp := api.Request("GET", "/release").
				WithHeader("Accept-Encoding", "gzip").
				Do()
			AssertEqual(resp.StatusCode, http.StatusOK)
			AssertEqual(resp.Header.Get("Content-Encoding"), "gzip")

			gz, err := gzip.NewReader(bytes.NewReader(resp.BodyBytes()))
			AssertNil(err)
			body, err := io.ReadAll(gz)
			AssertNil(err)
			AssertEqual(strings.TrimSpace(string(body)), `"test"`)
		})

		a.Alternative("plain", func(a *A) {
			resp := api.Request("GET", "/release").Do()
			AssertEqual(resp.Header.Get("Content-Encoding"), "")
			AssertEqual(resp.BodyJson(), "test")
		})
	})
}

func TestFormatRemoteAddr(t *testing.T) {

	r, _ := http.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	AssertEqual(formatRemoteAddr(r), "10.0.0.1")

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	AssertEqual(formatRemoteAddr(r), "1.2.3.4")
}
