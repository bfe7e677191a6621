package core

import (
	"sync"
	"sync/atomic"
)

// TaskGroup tracks the number of outstanding tasks rooted in one BlockOn
// scope: tasks that have been submitted but not yet finished, to any spawn
// depth. Submission increments the counter before the task is enqueued; the
// task's exit path decrements it unconditionally, so the count covers
// "submitted + running" at every moment.
//
// The counter reaches zero exactly once per group: every nested submission
// happens inside a task that itself holds a count, so the group cannot drain
// while descendants can still be added. That makes a close-once channel a
// faithful stand-in for a wait/notify on the counter itself.
type TaskGroup struct {
	running atomic.Int64
	done    chan struct{}
	once    sync.Once
}

// NewTaskGroup creates an empty group.
func NewTaskGroup() *TaskGroup {
	return &TaskGroup{
		done: make(chan struct{}),
	}
}

// Add records one more outstanding task. Called by the submitter before the
// task is enqueued.
func (g *TaskGroup) Add() {
	g.running.Add(1)
}

// Done records the completion of one task. The decrement that brings the
// counter to zero releases every waiter.
func (g *TaskGroup) Done() {
	if g.running.Add(-1) == 0 {
		g.once.Do(func() { close(g.done) })
	}
}

// Wait blocks until the counter reaches zero. Returns immediately if the
// group is already drained (or never had a task).
func (g *TaskGroup) Wait() {
	if g.running.Load() == 0 {
		return
	}
	<-g.done
}

// Running returns the current outstanding-task count.
func (g *TaskGroup) Running() int64 {
	return g.running.Load()
}
