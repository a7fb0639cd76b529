package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// Metrics holds the service's OTel instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	httpDuration  metric.Float64Histogram
	httpInFlight  metric.Int64UpDownCounter
	ingestOutcome metric.Int64Counter
	aggDuration   metric.Float64Histogram
	aggConflicts  metric.Int64Counter
	aggRetries    metric.Int64Counter
	cacheLookups  metric.Int64Counter

	meter metric.Meter
}

// NewMetrics creates instruments on provider, or on the global provider when
// provider is nil (a no-op unless an SDK provider was installed).
func NewMetrics(serviceName string, provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(serviceNameOrDefault(serviceName))
	m := &Metrics{meter: meter}

	var err error
	if m.httpDuration, err = meter.Float64Histogram("http.server.duration_ms",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.httpInFlight, err = meter.Int64UpDownCounter("http.server.in_flight",
		metric.WithDescription("HTTP requests currently being served")); err != nil {
		return nil, err
	}
	if m.ingestOutcome, err = meter.Int64Counter("xapi.statements.ingest",
		metric.WithDescription("Statement ingestion attempts by outcome")); err != nil {
		return nil, err
	}
	if m.aggDuration, err = meter.Float64Histogram("aggregate.operation.duration_ms",
		metric.WithDescription("Aggregate write duration"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.aggConflicts, err = meter.Int64Counter("aggregate.operation.conflicts"); err != nil {
		return nil, err
	}
	if m.aggRetries, err = meter.Int64Counter("aggregate.operation.retryable"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("dashboard.cache.lookups",
		metric.WithDescription("Dashboard cache lookups by result")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) HTTPInFlight(ctx context.Context, route string, delta int64) {
	if m == nil {
		return
	}
	m.httpInFlight.Add(ctx, delta, metric.WithAttributes(attribute.String("route", normalizeRoute(route))))
}

func (m *Metrics) ObserveHTTP(ctx context.Context, method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	m.httpDuration.Record(ctx, float64(dur.Milliseconds()), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", normalizeRoute(route)),
		attribute.String("status_code", strconv.Itoa(status)),
	))
}

// IncIngest counts one ingestion attempt; outcome is "stored", "duplicate",
// "invalid" or "error".
func (m *Metrics) IncIngest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ingestOutcome.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) IncCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggDuration.Record(context.Background(), float64(dur.Milliseconds()), metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("status", status),
	))
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggConflicts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggRetries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

// RegisterDBStats exposes connection pool statistics as observable gauges,
// read at collection time.
func (m *Metrics) RegisterDBStats(db *gorm.DB) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	open, err := m.meter.Int64ObservableGauge("db.pool.open_connections")
	if err != nil {
		return err
	}
	inUse, err := m.meter.Int64ObservableGauge("db.pool.in_use")
	if err != nil {
		return err
	}
	idle, err := m.meter.Int64ObservableGauge("db.pool.idle")
	if err != nil {
		return err
	}
	waits, err := m.meter.Int64ObservableCounter("db.pool.wait_count")
	if err != nil {
		return err
	}
	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, idle, waits)
	return err
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "unknown"
	}
	return route
}
