package metrics

import (
	strconv2 "strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type PrometheusMetrics struct {
	enabled  bool
	registry *prometheus.Registry

	// Counter: Total number of errors
	totalErrors prometheus.Counter

	// Counter: Errors by types
	errorTypeCounter *prometheus.CounterVec

	// Counter: Invalidities by the symbolic code
	invalidities *prometheus.CounterVec

	// Counter: Schema failures without a formatting rule
	unformatted *prometheus.CounterVec

	// Counter: Total number of HTTP requests
	httpRequestsTotal *prometheus.CounterVec

	// Histogram: HTTP request duration
	httpRequestDuration *prometheus.HistogramVec
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collectors in the own registry. Disabled metrics accept
// the updates and drop them.
func NewPrometheusMetrics(enabled bool) *PrometheusMetrics {

	p := PrometheusMetrics{
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
		totalErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallarm_contractfw_service_errors_total",
				Help: "Total number of errors occurred in the contract firewall service.",
			}),
		errorTypeCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallarm_contractfw_service_errors_by_type",
				Help: "Total number of errors by type and schema.",
			},
			[]string{"error_type", "schema_id"},
		),
		invalidities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallarm_contractfw_invalidities_total",
				Help: "Total number of invalid request fields by error code.",
			},
			[]string{"code", "schema_id"},
		),
		unformatted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallarm_contractfw_unformatted_failures_total",
				Help: "Total number of schema failures reported without a formatting rule.",
			},
			[]string{"kind", "schema_id"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallarm_contractfw_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"schema_id", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallarm_contractfw_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .025, .05, .25, .5, 1, 2.5, 5},
			},
			[]string{"schema_id"},
		),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		p.totalErrors,
		p.errorTypeCounter,
		p.invalidities,
		p.unformatted,
		p.httpRequestsTotal,
		p.httpRequestDuration,
	)

	return &p
}

func (p *PrometheusMetrics) IncErrorTypeCounter(err string, schemaID int) {
	if !p.enabled {
		return
	}
	p.totalErrors.Add(1)
	p.errorTypeCounter.WithLabelValues(err, strconv2.Itoa(schemaID)).Inc()
}

func (p *PrometheusMetrics) IncInvalidityCounter(code string, schemaID int) {
	if !p.enabled {
		return
	}
	p.invalidities.WithLabelValues(code, strconv2.Itoa(schemaID)).Inc()
}

func (p *PrometheusMetrics) IncUnformattedCounter(kind string, schemaID int) {
	if !p.enabled {
		return
	}
	p.unformatted.WithLabelValues(kind, strconv2.Itoa(schemaID)).Inc()
}

func (p *PrometheusMetrics) IncHTTPRequestStat(start time.Time, schemaID int, statusCode int) {
	if !p.enabled {
		return
	}
	p.httpRequestDuration.WithLabelValues(strconv2.Itoa(schemaID)).Observe(time.Since(start).Seconds())
	p.httpRequestsTotal.WithLabelValues(strconv2.Itoa(schemaID), strconv2.Itoa(statusCode)).Inc()
}

// Handler serves the registry in the Prometheus text format at the endpoint
func (p *PrometheusMetrics) Handler(endpointName string) fasthttp.RequestHandler {

	endpoint := "/" + strings.Trim(endpointName, "/")
	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))

	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != endpoint {
			ctx.Error("Unsupported path", fasthttp.StatusNotFound)
			return
		}
		promHandler(ctx)
	}
}

// StartService runs the metrics endpoint. It blocks until the listener fails.
func (p *PrometheusMetrics) StartService(logger *zerolog.Logger, options *Options) error {

	server := fasthttp.Server{
		Handler:               p.Handler(options.EndpointName),
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		NoDefaultServerHeader: true,
	}

	logger.Info().Msgf("Metrics: API listening on %s/%s", options.Host, strings.Trim(options.EndpointName, "/"))

	return server.ListenAndServe(options.Host)
}
