package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Swind/go-executor/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskExecutedTotal   *prom.CounterVec
	taskPanicTotal      *prom.CounterVec
	stolenTasksTotal    *prom.CounterVec
	overflowTasksTotal  *prom.CounterVec
	globalQueueDepth    prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "executor"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"worker"})
	executedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_executed_total",
		Help:      "Total number of executed tasks.",
	}, []string{"worker"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"worker"})
	stolenVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stolen_tasks_total",
		Help:      "Total number of tasks moved by steals, labelled by victim and thief.",
	}, []string{"victim", "thief"})
	overflowVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "overflow_tasks_total",
		Help:      "Total number of tasks spilled from local deques to the global queue.",
	}, []string{"worker"})
	queueDepthGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "global_queue_depth",
		Help:      "Global queue depth after the most recent external submission.",
	})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if executedVec, err = registerCollector(reg, executedVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if stolenVec, err = registerCollector(reg, stolenVec); err != nil {
		return nil, err
	}
	if overflowVec, err = registerCollector(reg, overflowVec); err != nil {
		return nil, err
	}
	if queueDepthGauge, err = registerCollector(reg, queueDepthGauge); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskExecutedTotal:   executedVec,
		taskPanicTotal:      panicVec,
		stolenTasksTotal:    stolenVec,
		overflowTasksTotal:  overflowVec,
		globalQueueDepth:    queueDepthGauge,
	}, nil
}

// RecordTaskExecuted records one task completion with its duration.
func (m *MetricsExporter) RecordTaskExecuted(workerID int, duration time.Duration) {
	if m == nil {
		return
	}
	worker := workerLabel(workerID)
	m.taskExecutedTotal.WithLabelValues(worker).Inc()
	m.taskDurationSeconds.WithLabelValues(worker).Observe(duration.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(workerID int, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(workerLabel(workerID)).Inc()
}

// RecordSteal records tasks moved by one steal.
func (m *MetricsExporter) RecordSteal(victimID, thiefID, count int) {
	if m == nil {
		return
	}
	m.stolenTasksTotal.WithLabelValues(workerLabel(victimID), workerLabel(thiefID)).Add(float64(count))
}

// RecordOverflow records tasks spilled to the global queue.
func (m *MetricsExporter) RecordOverflow(workerID, count int) {
	if m == nil {
		return
	}
	m.overflowTasksTotal.WithLabelValues(workerLabel(workerID)).Add(float64(count))
}

// RecordGlobalQueueDepth records the global queue depth.
func (m *MetricsExporter) RecordGlobalQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.globalQueueDepth.Set(float64(depth))
}

func workerLabel(id int) string {
	return strconv.Itoa(id)
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
