package executor

import "github.com/Swind/go-executor/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the executor package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// Pool is a fixed-size work-stealing executor
type Pool = core.Pool

// Config holds pool configuration options
type Config = core.Config

// Logger is the structured logging interface
type Logger = core.Logger

// Field is a key-value pair for structured logging
type Field = core.Field

// Metrics is the observability interface
type Metrics = core.Metrics

// PanicHandler handles task panics on workers
type PanicHandler = core.PanicHandler

// PoolStats is a point-in-time pool snapshot
type PoolStats = core.PoolStats

// WorkerStats is a point-in-time per-worker snapshot
type WorkerStats = core.WorkerStats

// ErrQueueClosed is returned for submissions after shutdown
var ErrQueueClosed = core.ErrQueueClosed

// Convenience constructors re-exported from core
var (
	New           = core.New
	DefaultConfig = core.DefaultConfig
	F             = core.F
)
