package core

import (
	"context"
)

// Task is the unit of work (Closure). A task is executed exactly once by one
// worker; the context it receives carries the executing worker and, when the
// task belongs to a task group, the group it runs on behalf of.
//
// The context handed to a task is only valid for the duration of that task on
// the worker goroutine that runs it. Do not retain it or hand it to another
// goroutine for later submissions.
type Task func(ctx context.Context)

// =============================================================================
// Context Helpers
// =============================================================================
//
// The two per-task slots (current worker, current task group) travel in the
// task's context. Submission reads them to decide routing and group
// membership; the worker loop installs the worker slot, and the submission
// wrapper installs the group slot before user code runs.

type workerKeyType struct{}

var workerKey workerKeyType

func withWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerKey, w)
}

func workerFrom(ctx context.Context) *Worker {
	if v := ctx.Value(workerKey); v != nil {
		return v.(*Worker)
	}
	return nil
}

type groupKeyType struct{}

var groupKey groupKeyType

func withGroup(ctx context.Context, g *TaskGroup) context.Context {
	return context.WithValue(ctx, groupKey, g)
}

func groupFrom(ctx context.Context) *TaskGroup {
	if v := ctx.Value(groupKey); v != nil {
		return v.(*TaskGroup)
	}
	return nil
}

// OnWorker reports whether ctx belongs to a task currently executing on one
// of this library's workers.
func OnWorker(ctx context.Context) bool {
	return workerFrom(ctx) != nil
}
