package core

import (
	"context"
	"sync"
)

// Pool is a fixed-size work-stealing executor. External submissions enter the
// shared global queue; submissions made from inside a running task go to the
// submitting worker's local deque and spill to the global queue on overflow.
//
// Most programs use the process-wide pool exposed by the root package; New
// exists so tests and embedders can run a private pool.
type Pool struct {
	cfg       Config
	shared    *SharedState
	closeOnce sync.Once
}

// New creates a pool and starts its workers. The worker registry is complete
// before any worker goroutine begins dispatching.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()

	shared := NewSharedState(cfg.Workers)
	p := &Pool{
		cfg:    cfg,
		shared: shared,
	}

	for i := range shared.workers {
		shared.workers[i] = newWorker(i, shared, cfg)
	}
	for _, w := range shared.workers {
		go w.run()
	}

	cfg.Logger.Info("pool started", F("workers", cfg.Workers))
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return len(p.shared.workers)
}

// Post submits one task. Safe from any goroutine.
//
// If ctx carries a task group (because the caller runs inside BlockOn's
// subtree), the group is charged before the task is enqueued and the task's
// context inherits the group, so transitively spawned tasks keep counting.
// The charge is released when the task finishes, on the panic path included.
//
// Returns ErrQueueClosed once the pool is shut down.
func (p *Pool) Post(ctx context.Context, task Task) error {
	group := groupFrom(ctx)

	wrapped := task
	if group != nil {
		group.Add()
		wrapped = func(runCtx context.Context) {
			defer group.Done()
			task(withGroup(runCtx, group))
		}
	}

	if w := workerFrom(ctx); w != nil && w.shared == p.shared {
		if err := w.local.Push(wrapped, overflowSink{worker: w}); err != nil {
			if group != nil {
				group.Done()
			}
			return err
		}
		return nil
	}

	gq := p.shared.globalQueue
	if err := gq.Push(wrapped); err != nil {
		if group != nil {
			group.Done()
		}
		return err
	}
	p.cfg.Metrics.RecordGlobalQueueDepth(gq.Len())
	return nil
}

// BlockOn submits task and blocks until it and every task transitively
// spawned from it has finished. Safe from any goroutine; called from inside
// a running task it opens a nested group scoped to this call only.
func (p *Pool) BlockOn(ctx context.Context, task Task) error {
	group := NewTaskGroup()
	if err := p.Post(withGroup(ctx, group), task); err != nil {
		return err
	}
	group.Wait()
	return nil
}

// CloseAndJoin closes the global queue and waits for every worker to drain
// and exit. Idempotent. Tasks already submitted still run; new submissions
// fail with ErrQueueClosed.
func (p *Pool) CloseAndJoin() {
	p.closeOnce.Do(func() {
		p.shared.globalQueue.Close()
		p.cfg.Logger.Info("pool closing", F("queued", p.shared.globalQueue.Len()))
		p.shared.stopBarrier.Wait()

		var executed uint64
		for _, w := range p.shared.workers {
			executed += w.Executed()
		}
		p.cfg.Logger.Info("pool closed", F("executed", executed))
	})
}

// Stats returns a point-in-time snapshot of pool state.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:        len(p.shared.workers),
		GlobalQueueLen: p.shared.globalQueue.Len(),
		ActiveStealers: int(p.shared.activeStealers.Load()),
		Closed:         p.shared.globalQueue.IsClosed(),
	}
}

// WorkerStats returns a point-in-time snapshot per worker.
func (p *Pool) WorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.shared.workers))
	for i, w := range p.shared.workers {
		stats[i] = WorkerStats{
			ID:       w.id,
			QueueLen: w.local.Size(),
			Executed: w.executed.Load(),
			Stealing: w.isStealing.Load(),
		}
	}
	return stats
}
