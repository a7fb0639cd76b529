package aggregates

import (
	"time"

	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

// slowWrite is the duration above which a committed write is logged.
const slowWrite = 500 * time.Millisecond

// Hooks receives one ObserveOperation per aggregate write, plus IncConflict
// or IncRetry when the mapped error carries that code.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// metricHooks records aggregate metrics and logs writes that were slow or
// lost a unique-key race.
type metricHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
}

func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	if log == nil {
		log = logger.Nop()
	}
	return &metricHooks{metrics: metrics, log: log.With("component", "AggregateHooks")}
}

func (h *metricHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(name, status, dur)
	if dur >= slowWrite {
		h.log.Warn("slow aggregate write", "operation", name, "status", status, "duration_ms", dur.Milliseconds())
	}
}

func (h *metricHooks) IncConflict(name string) {
	h.metrics.IncAggregateConflict(name)
	h.log.Debug("aggregate unique conflict", "operation", name)
}

func (h *metricHooks) IncRetry(name string) {
	h.metrics.IncAggregateRetry(name)
	h.log.Debug("aggregate write retryable", "operation", name)
}
