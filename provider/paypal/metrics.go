package paypal

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	endpointToken             = "token"
	endpointNextInvoiceNumber = "next_invoice_number"
	endpointCreateInvoice     = "create_invoice"
	endpointSendInvoice       = "send_invoice"
	endpointGetInvoice        = "get_invoice"
)

type endpointCtxKey struct{}

func withEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointCtxKey{}, endpoint)
}

func endpointFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(endpointCtxKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paypal_requests_total",
			Help: "Number of requests to the PayPal API by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paypal_request_duration_seconds",
			Help:    "Duration of a single request to the PayPal API.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}, []string{"endpoint"}),
	}
}

// transport counts and times every round trip. Code is "error" when no
// response was received.
func (m *metrics) transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		endpoint := endpointFromContext(r.Context())
		resp, err := next.RoundTrip(r)
		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		m.requests.WithLabelValues(endpoint, code).Inc()
		m.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	m.requests.Describe(ch)
	m.duration.Describe(ch)
}

func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	m.requests.Collect(ch)
	m.duration.Collect(ch)
}
