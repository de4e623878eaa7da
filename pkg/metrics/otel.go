package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// OTLPConfig configures the push exporter. Endpoint is host:port without a
// scheme, e.g. "otel-collector:4318".
type OTLPConfig struct {
	Endpoint    string
	Headers     string // "k1=v1,k2=v2"
	Insecure    bool
	ServiceName string
	Environment string
	Interval    time.Duration
}

type otelInstruments struct {
	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
	orders       metric.Int64Counter
	revenue      metric.Int64Counter
	lowStock     metric.Int64Gauge
}

var instruments atomic.Pointer[otelInstruments]

// InitOTLP installs a meter provider that pushes HTTP and business metrics
// to an OTLP collector. The returned func flushes and shuts it down.
func InitOTLP(ctx context.Context, cfg OTLPConfig) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: resource: %w", err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if h := parseHeaders(cfg.Headers); len(h) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metrics: otlp exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	inst, err := newInstruments(provider.Meter(cfg.ServiceName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	instruments.Store(inst)

	return func(ctx context.Context) error {
		instruments.Store(nil)
		return provider.Shutdown(ctx)
	}, nil
}

func newInstruments(m metric.Meter) (*otelInstruments, error) {
	var (
		inst otelInstruments
		err  error
	)
	if inst.httpRequests, err = m.Int64Counter("http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("metrics: http counter: %w", err)
	}
	if inst.httpDuration, err = m.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("metrics: http histogram: %w", err)
	}
	if inst.orders, err = m.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders committed"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("metrics: orders counter: %w", err)
	}
	if inst.revenue, err = m.Int64Counter("order_revenue_total",
		metric.WithDescription("Committed order revenue"), metric.WithUnit("PKR")); err != nil {
		return nil, fmt.Errorf("metrics: revenue counter: %w", err)
	}
	if inst.lowStock, err = m.Int64Gauge("low_stock_products",
		metric.WithDescription("Active products under the low-stock threshold"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("metrics: low stock gauge: %w", err)
	}
	return &inst, nil
}

func otelRecordHTTP(ctx context.Context, method, route string, status int, start time.Time) {
	inst := instruments.Load()
	if inst == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	)
	inst.httpRequests.Add(ctx, 1, attrs)
	inst.httpDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

func otelRecordOrder(ctx context.Context, paymentMethod, checkout string, total int64) {
	inst := instruments.Load()
	if inst == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("payment_method", paymentMethod),
		attribute.String("checkout", checkout),
	)
	inst.orders.Add(ctx, 1, attrs)
	inst.revenue.Add(ctx, total, attrs)
}

func otelRecordLowStock(ctx context.Context, n int64) {
	if inst := instruments.Load(); inst != nil {
		inst.lowStock.Record(ctx, n)
	}
}

func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && strings.TrimSpace(k) != "" {
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return headers
}
