package aggregates

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
)

func TestObservabilityHooksRecordWrites(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewMetrics("", sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	deps := BaseDeps{Runner: spyTxRunner{}, Hooks: NewObservabilityHooks(metrics, nil)}

	_ = executeWrite(context.Background(), deps, "xapi.statement.ingest", func(dbctx.Context) error { return nil })
	_ = executeWrite(context.Background(), deps, "xapi.statement.ingest", func(dbctx.Context) error {
		return ConflictError("statement already stored")
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
		}
	}
	for _, name := range []string{"aggregate.operation.duration_ms", "aggregate.operation.conflicts"} {
		if !seen[name] {
			t.Fatalf("metric %s not recorded; have %v", name, seen)
		}
	}
}

func TestObservabilityHooksWithoutMetrics(t *testing.T) {
	h := NewObservabilityHooks(nil, nil)
	h.ObserveOperation("learner.create", "success", time.Second)
	h.IncConflict("learner.create")
	h.IncRetry("learner.create")
}
