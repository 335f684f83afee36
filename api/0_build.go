package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulldump/inceptionview/api/apiviewv1"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/service"
)

type Options struct {
	Version   string
	ApiKey    string
	ApiSecret string
	// Gatherer is scraped at /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func Build(s service.Servicer, options Options) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		Authenticate(options.ApiKey, options.ApiSecret),
	)

	apiviewv1.BuildV1View(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return options.Version
		}))

	if options.Gatherer != nil {
		b.Resource("/metrics").
			WithActions(box.Get(metrics.Handler(options.Gatherer).ServeHTTP))
	}

	b.Resource("/openapi.json").
		WithActions(box.Get(func(r *http.Request) boxopenapi.OpenAPI {
			spec := boxopenapi.Spec(b)
			spec.Info.Title = "InceptionView"
			spec.Info.Description = "Sorted and categorized views over JSON documents, read through cursors."
			spec.Info.Version = options.Version
			spec.Servers = []boxopenapi.Server{
				{Url: "https://" + r.Host},
				{Url: "http://" + r.Host},
			}
			return spec
		}))

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apiviewv1.SetServicer(ctx, s))
		}
	}
}
