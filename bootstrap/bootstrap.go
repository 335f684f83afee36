package bootstrap

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fulldump/inceptionview/api"
	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/configuration"
	"github.com/fulldump/inceptionview/database"
	"github.com/fulldump/inceptionview/logger"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/registry"
	"github.com/fulldump/inceptionview/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	logger.Setup(c.LogLevel, c.LogFormat)
	l := logger.WithComponent("bootstrap")

	db := database.NewDatabase(&database.Config{
		Dir: c.Dir,
		Options: collection.Options{
			BuildVersion:  uint16(c.BuildVersion),
			MaxBufferSize: c.MaxBufferSize,
		},
	})

	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if c.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	handles := registry.Default()
	s := service.NewService(db, service.Options{
		Registry:           handles,
		Metrics:            m,
		MaxConflictRetries: c.MaxConflictRetries,
		BatchSize:          c.BatchSize,
	})

	b := api.Build(s, api.Options{
		Version:   VERSION,
		ApiKey:    c.ApiKey,
		ApiSecret: c.ApiSecret,
		Gatherer:  gatherer,
	})
	b.WithInterceptors(
		api.AccessLog(logger.WithComponent("access")),
	)
	if m != nil {
		b.WithInterceptors(api.Metrics(m))
	}
	if c.RateLimit > 0 {
		b.WithInterceptors(api.RateLimit(c.RateLimit, c.RateBurst))
	}
	if c.EnableCompression {
		b.WithInterceptors(api.Compression(gzip.DefaultCompression))
	}
	b.WithInterceptors(
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	if c.HttpsSelfsigned {
		l.Info("HTTPS self signed")
		cert, err := selfSignedCertificate()
		if err != nil {
			l.Error("self signed certificate", "error", err)
			os.Exit(-1)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		l.Error("listen", "addr", c.HttpAddr, "error", err)
		os.Exit(-1)
	}
	l.Info("listening", "addr", c.HttpAddr)

	stopOnce := sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			err := handles.CloseAll()
			if err != nil {
				l.Error("release handles", "error", err)
			}
			err = db.Stop()
			if err != nil {
				l.Error("stop database", "error", err)
			}
			server.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			l.Info("signal received", "signal", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				l.Error("database", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if c.HttpsEnabled || c.HttpsSelfsigned {
				err = server.ServeTLS(ln, "", "")
			} else {
				err = server.Serve(ln)
			}
			if err != nil && err != http.ErrServerClosed {
				slog.Error("serve", "error", err)
			}
		}()

		wg.Wait()
	}

	return
}
