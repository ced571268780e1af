package httputils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type logFunc func(v ...interface{})

func (l logFunc) Println(v ...interface{}) {
	l(v...)
}

// MetricsHandler serves metrics of the gatherer in the Prometheus format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	sugar := zap.L().Named("metrics").Sugar()
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:      logFunc(sugar.Warn),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// DebugMux mux with /metrics of the default registry.
func DebugMux() http.Handler {
	s := http.NewServeMux()
	s.Handle("/metrics", MetricsHandler(prometheus.DefaultGatherer))
	return s
}

// RunDebugServer serves DebugMux on address until the server fails.
func RunDebugServer(address string) *http.Server {
	l := zap.L().Named("debugMux")
	s := &http.Server{Addr: address, Handler: DebugMux()}
	go func() {
		l.Info("Starting server...", zap.String("address", address))
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("Serve error.", zap.Error(err))
		}
	}()
	return s
}
