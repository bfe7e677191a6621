package core

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution on a worker.
// This allows custom panic handling, logging, and recovery strategies.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context from the panicked task
	// - workerID: The ID of the worker that ran the task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, workerID int, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Worker %d] Panic: %v\nStack trace:\n%s",
		workerID, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting executor metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting task execution
// performance; they are invoked on worker hot paths.
type Metrics interface {
	// RecordTaskExecuted records the completion of one task on a worker,
	// with its execution duration.
	RecordTaskExecuted(workerID int, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(workerID int, panicInfo any)

	// RecordSteal records a completed steal: count tasks moved from the
	// victim's deque to the thief's (including the one the thief runs
	// immediately).
	RecordSteal(victimID, thiefID, count int)

	// RecordOverflow records a spill of count tasks from a worker's local
	// deque to the global queue.
	RecordOverflow(workerID, count int)

	// RecordGlobalQueueDepth records the global queue depth after a
	// submission.
	RecordGlobalQueueDepth(depth int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskExecuted is a no-op.
func (m *NilMetrics) RecordTaskExecuted(workerID int, duration time.Duration) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(workerID int, panicInfo any) {}

// RecordSteal is a no-op.
func (m *NilMetrics) RecordSteal(victimID, thiefID, count int) {}

// RecordOverflow is a no-op.
func (m *NilMetrics) RecordOverflow(workerID, count int) {}

// RecordGlobalQueueDepth is a no-op.
func (m *NilMetrics) RecordGlobalQueueDepth(depth int) {}

// =============================================================================
// Config: Configuration for Pool
// =============================================================================

// defaultParkDuration is the idle sleep between empty dispatch rounds. Short
// enough to stay responsive, long enough not to burn CPU; the producer paths
// stay lock-free so there is no condition variable to wake workers sooner.
const defaultParkDuration = 100 * time.Microsecond

// Config holds configuration options for a Pool.
// All handlers are optional; if not provided, default implementations will be used.
type Config struct {
	// Workers is the number of worker goroutines. Defaults to runtime.NumCPU().
	Workers int

	// ParkDuration is the idle sleep between dispatch rounds when no work is
	// available. Defaults to 100µs.
	ParkDuration time.Duration

	// Logger receives pool lifecycle and overflow events. Defaults to DefaultLogger.
	Logger Logger

	// Metrics is called to record executor metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultConfig returns a config with default workers and handlers.
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		ParkDuration: defaultParkDuration,
		Logger:       &DefaultLogger{},
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{},
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ParkDuration <= 0 {
		c.ParkDuration = defaultParkDuration
	}
	if c.Logger == nil {
		c.Logger = &DefaultLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &DefaultPanicHandler{}
	}
	return c
}
