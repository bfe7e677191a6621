package core

import (
	"sync"
	"sync/atomic"
)

// SharedState is the state every worker of one pool sees: the worker
// registry, the global queue, the count of workers currently inside a steal
// attempt, and the shutdown barrier.
//
// The registry is fully populated before any worker goroutine starts, so
// workers read it without synchronisation; the go statement that launches
// each worker provides the happens-before edge a startup latch would.
type SharedState struct {
	workers        []*Worker
	globalQueue    *GlobalQueue
	activeStealers atomic.Int32

	// stopBarrier is arrived at by every worker after it exits its dispatch
	// loop; it releases only once all workers have finished their last task.
	stopBarrier sync.WaitGroup
}

// NewSharedState creates shared state sized for workerCount workers. The
// registry slots are filled by the pool during bring-up.
func NewSharedState(workerCount int) *SharedState {
	s := &SharedState{
		workers:     make([]*Worker, workerCount),
		globalQueue: NewGlobalQueue(),
	}
	s.stopBarrier.Add(workerCount)
	return s
}

// Workers returns the registry. Read-only after bring-up.
func (s *SharedState) Workers() []*Worker {
	return s.workers
}

// GlobalQueue returns the shared FIFO.
func (s *SharedState) GlobalQueue() *GlobalQueue {
	return s.globalQueue
}

// canSteal reports whether a new steal attempt may begin. The cap of half
// the worker count bounds cache-coherence traffic when many workers go idle
// at once.
func (s *SharedState) canSteal() bool {
	return int(s.activeStealers.Load()) < len(s.workers)/2
}

func (s *SharedState) beginSteal() {
	s.activeStealers.Add(1)
}

func (s *SharedState) endSteal() {
	s.activeStealers.Add(-1)
}
