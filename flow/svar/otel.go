package svar

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelTelemetry reports SVar scheduling activity through OpenTelemetry
// metric instruments, tagged by accountID so that a dashboard can separate
// one merge operator's scheduler from another's.
type otelTelemetry struct {
	activeWorkers metric.Int64UpDownCounter
	dispatched    metric.Int64Counter
	queueDepth    metric.Int64Histogram
}

// NewOTelTelemetry builds a Telemetry implementation backed by the given
// Meter. Pass the result to WithTelemetry when constructing an SVar.
func NewOTelTelemetry(meter metric.Meter) (Telemetry, error) {
	activeWorkers, err := meter.Int64UpDownCounter(
		"svarflow.svar.active_workers",
		metric.WithDescription("number of producer goroutines currently running on an SVar"),
	)
	if err != nil {
		return nil, err
	}
	dispatched, err := meter.Int64Counter(
		"svarflow.svar.workers_dispatched",
		metric.WithDescription("total number of producer goroutines started on an SVar"),
	)
	if err != nil {
		return nil, err
	}
	queueDepth, err := meter.Int64Histogram(
		"svarflow.svar.output_queue_depth",
		metric.WithDescription("observed depth of an SVar's output queue after each push"),
	)
	if err != nil {
		return nil, err
	}
	return &otelTelemetry{
		activeWorkers: activeWorkers,
		dispatched:    dispatched,
		queueDepth:    queueDepth,
	}, nil
}

func accountAttr(accountID uint64) attribute.KeyValue {
	return attribute.String("svar.account_id", strconv.FormatUint(accountID, 10))
}

func (t *otelTelemetry) WorkerStarted(accountID uint64) {
	ctx := context.Background()
	attrs := metric.WithAttributes(accountAttr(accountID))
	t.activeWorkers.Add(ctx, 1, attrs)
	t.dispatched.Add(ctx, 1, attrs)
}

func (t *otelTelemetry) WorkerFinished(accountID uint64) {
	t.activeWorkers.Add(context.Background(), -1, metric.WithAttributes(accountAttr(accountID)))
}

func (t *otelTelemetry) QueueDepth(accountID uint64, depth int) {
	t.queueDepth.Record(context.Background(), int64(depth), metric.WithAttributes(accountAttr(accountID)))
}
