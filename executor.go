package executor

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/Swind/go-executor/core"
)

// =============================================================================
// Generic submission
// =============================================================================

// Submit hands fn to pool p and returns a future for its result. The context
// decides routing and group membership: pass the context your own task
// received to spawn children onto your worker's deque and into your task
// group; pass context.Background() (or any non-task context) from external
// goroutines to submit through the global queue.
//
// A submission observed after the pool closed fails synchronously with
// core.ErrQueueClosed. A panic in fn is captured as a *PanicError and
// delivered through the future; it never takes down a worker.
func Submit[T any](p *core.Pool, ctx context.Context, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	f := newFuture[T]()
	task := func(taskCtx context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				f.fail(&PanicError{Value: rec, Stack: debug.Stack()})
			}
		}()
		v, err := fn(taskCtx)
		if err != nil {
			f.fail(err)
			return
		}
		f.fulfill(v)
	}
	if err := p.Post(ctx, task); err != nil {
		return nil, err
	}
	return f, nil
}

// SubmitVoid is the void-return adapter over Submit: the future carries a
// Unit so void results aggregate uniformly with valued ones.
func SubmitVoid(p *core.Pool, ctx context.Context, fn func(ctx context.Context) error) (*Future[Unit], error) {
	return Submit(p, ctx, func(taskCtx context.Context) (Unit, error) {
		return Unit{}, fn(taskCtx)
	})
}

// =============================================================================
// Default pool (process-wide singleton)
// =============================================================================

var (
	defaultPool *core.Pool
	defaultMu   sync.Mutex
)

// InitDefaultPool initializes the process-wide pool with the given config.
// It is a no-op if the default pool already exists; initialize before the
// first Spawn to take effect.
func InitDefaultPool(cfg core.Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool != nil {
		return
	}
	defaultPool = core.New(cfg)
}

// Default returns the process-wide pool, creating it with DefaultConfig on
// first use.
func Default() *core.Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool == nil {
		defaultPool = core.New(core.DefaultConfig())
	}
	return defaultPool
}

// CloseAndJoin shuts down the process-wide pool: the global queue closes,
// workers drain everything already submitted and exit. The singleton slot is
// cleared so a later Spawn starts a fresh pool.
func CloseAndJoin() {
	defaultMu.Lock()
	p := defaultPool
	defaultPool = nil
	defaultMu.Unlock()

	if p != nil {
		p.CloseAndJoin()
	}
}

// Spawn submits fn to the default pool. See Submit for context semantics.
func Spawn[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	return Submit(Default(), ctx, fn)
}

// SpawnVoid submits a void fn to the default pool.
func SpawnVoid(ctx context.Context, fn func(ctx context.Context) error) (*Future[Unit], error) {
	return SubmitVoid(Default(), ctx, fn)
}

// BlockOn submits fn to the default pool and blocks until fn and every task
// transitively spawned from it (to any depth) has finished. The root task's
// return value is not surfaced; spawn futures inside fn to collect results.
func BlockOn(ctx context.Context, fn func(ctx context.Context)) error {
	return Default().BlockOn(ctx, core.Task(fn))
}
