// Package metrics exposes Prometheus collectors for the echo server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsonecho",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jsonecho",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"method", "route", "status"},
	)
	echoResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsonecho",
			Subsystem: "echo",
			Name:      "results_total",
			Help:      "Echo outcomes by transport.",
		},
		[]string{"transport", "result"},
	)
	echoDelay = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jsonecho",
			Subsystem: "echo",
			Name:      "delay_seconds",
			Help:      "Delays applied to echo requests.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(requestCount, requestDuration, echoResults, echoDelay)
}

// Description returns the endpoint description for the help endpoint
func Description() string {
	return "  - /metrics    -> Prometheus metrics"
}

// Handler serves the default Prometheus registry over fasthttp.
var Handler = fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

// Instrument records count and latency of every request handled by next.
// route must be a low-cardinality name, never the raw request path.
func Instrument(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		next(ctx)

		labels := prometheus.Labels{
			"method": string(ctx.Method()),
			"route":  route,
			"status": strconv.Itoa(ctx.Response.StatusCode()),
		}
		requestCount.With(labels).Inc()
		requestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// ObserveEcho counts one echo outcome.
func ObserveEcho(transport, result string) {
	echoResults.WithLabelValues(transport, result).Inc()
}

// ObserveDelay records a delay that was fully served.
func ObserveDelay(d time.Duration) {
	if d > 0 {
		echoDelay.Observe(d.Seconds())
	}
}
