package core

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Worker owns one local deque and runs the dispatch loop: local pop first,
// then a batched drain from the global queue, then a capped steal from the
// busiest sibling, then a short park. Tasks run to completion on the worker
// that picked them up.
type Worker struct {
	id         int
	local      LocalDeque
	shared     *SharedState
	isStealing atomic.Bool
	executed   atomic.Uint64

	baseCtx      context.Context
	park         time.Duration
	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
}

func newWorker(id int, shared *SharedState, cfg Config) *Worker {
	w := &Worker{
		id:           id,
		shared:       shared,
		park:         cfg.ParkDuration,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		panicHandler: cfg.PanicHandler,
	}
	w.baseCtx = withWorker(context.Background(), w)
	return w
}

// ID returns the worker's index in the pool registry.
func (w *Worker) ID() int {
	return w.id
}

// QueueSize returns the number of tasks in the worker's local deque.
func (w *Worker) QueueSize() int {
	return w.local.Size()
}

// Executed returns the number of tasks this worker has run.
func (w *Worker) Executed() uint64 {
	return w.executed.Load()
}

// run is the worker main loop. It exits once the global queue is closed and
// both the local deque and the global queue are empty, re-checked after every
// idle park.
func (w *Worker) run() {
	defer w.shared.stopBarrier.Done()

	for {
		if task, ok := w.nextTask(); ok {
			w.invoke(task)
			continue
		}
		if task, ok := w.trySteal(); ok {
			w.invoke(task)
			continue
		}
		time.Sleep(w.park)
		if w.quitCondition() {
			return
		}
	}
}

func (w *Worker) quitCondition() bool {
	gq := w.shared.globalQueue
	return gq.IsClosed() && w.local.IsEmpty() && gq.IsEmpty()
}

// nextTask tries the local deque, then drains a batch from the global queue.
// The newest task of a drained batch is returned for immediate execution and
// the rest refill the local deque; running the batch's newest first keeps its
// cache lines warm.
func (w *Worker) nextTask() (Task, bool) {
	if task, ok := w.local.Pop(); ok {
		return task, true
	}

	gq := w.shared.globalQueue
	if gq.IsEmpty() {
		return nil, false
	}

	take := min(w.local.Remaining(), LocalDequeCapacity/2)
	if take <= 0 {
		return nil, false
	}
	batch := gq.TryPopBatch(take)
	if len(batch) == 0 {
		return nil, false
	}

	task := batch[len(batch)-1]
	if rest := batch[:len(batch)-1]; len(rest) > 0 {
		w.local.PushBatch(rest)
	}
	return task, true
}

// trySteal scans the registry for the worker with the most queued tasks among
// those not currently stealing, and takes half of its deque. When no victim
// has work, falls back to a single global pop. Gated by the shared steal cap.
func (w *Worker) trySteal() (Task, bool) {
	s := w.shared
	if !s.canSteal() {
		return nil, false
	}

	s.beginSteal()
	w.isStealing.Store(true)
	defer func() {
		w.isStealing.Store(false)
		s.endSteal()
	}()

	var victim *Worker
	best := 0
	for _, other := range s.workers {
		if other == w || other.isStealing.Load() {
			continue
		}
		if size := other.local.Size(); size > best {
			best = size
			victim = other
		}
	}

	if victim != nil {
		before := w.local.Size()
		task, ok := victim.local.BeStolenBy(&w.local)
		if ok {
			w.metrics.RecordSteal(victim.id, w.id, w.local.Size()-before+1)
		}
		return task, ok
	}
	return s.globalQueue.TryPop()
}

// invoke runs one task under panic recovery. A panic never takes the worker
// down; it is routed to the configured handler and metrics.
func (w *Worker) invoke(task Task) {
	start := time.Now()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				w.panicHandler.HandlePanic(w.baseCtx, w.id, rec, debug.Stack())
				w.metrics.RecordTaskPanic(w.id, rec)
			}
		}()
		task(w.baseCtx)
	}()
	w.executed.Add(1)
	w.metrics.RecordTaskExecuted(w.id, time.Since(start))
}

// overflowSink routes spilled tasks to the global queue while recording the
// spill for observability.
type overflowSink struct {
	worker *Worker
}

func (o overflowSink) Push(task Task) error {
	return o.worker.shared.globalQueue.Push(task)
}

func (o overflowSink) PushBatch(tasks []Task) error {
	w := o.worker
	if err := w.shared.globalQueue.PushBatch(tasks); err != nil {
		return err
	}
	w.metrics.RecordOverflow(w.id, len(tasks))
	w.logger.Debug("local deque overflow",
		F("worker", w.id),
		F("count", len(tasks)))
	return nil
}
