// Package executor provides a work-stealing task executor with structured
// concurrency for Go.
//
// A fixed pool of workers dispatches short-lived closures through a two-tier
// queue system: each worker owns a bounded lock-free local deque, and a
// shared global queue buffers external submissions and local overflow. Idle
// workers steal half of the busiest sibling's deque in one transfer.
//
// # Quick Start
//
// Spawn returns a future; tasks submitted from inside a running task (using
// the context that task received) land on the submitting worker's own deque:
//
//	f, err := executor.Spawn(context.Background(), func(ctx context.Context) (int, error) {
//		return 6 * 7, nil
//	})
//	if err != nil {
//		// pool already closed
//	}
//	v, err := f.Get() // 42
//
//	defer executor.CloseAndJoin()
//
// # Structured Concurrency
//
// BlockOn returns only after the submitted task and every task transitively
// spawned from it has finished:
//
//	executor.BlockOn(context.Background(), func(ctx context.Context) {
//		for i := 0; i < 100; i++ {
//			executor.SpawnVoid(ctx, func(ctx context.Context) error {
//				counter.Add(1)
//				return nil
//			})
//		}
//	})
//	// counter == 100 here
//
// The group membership travels in the task's context: pass the ctx your
// closure received to Spawn and the child joins your group, at any depth.
//
// # Aggregating Results
//
//	fa, _ := executor.Spawn(ctx, loadUser)
//	fb, _ := executor.Spawn(ctx, loadOrders)
//	user, orders, err := executor.Wait2(fa, fb)
//
// Void tasks resolve to Unit so mixed tuples aggregate uniformly.
//
// # Pools
//
// The package-level functions use a process-wide pool created on first use
// (configure it earlier with InitDefaultPool). Tests and embedders can run
// private pools:
//
//	p := executor.New(executor.DefaultConfig())
//	defer p.CloseAndJoin()
//	f, _ := executor.Submit(p, context.Background(), work)
//
// # Failure Model
//
// Submission after shutdown fails synchronously with ErrQueueClosed. A
// failure or panic inside user work is delivered through the task's future
// (panics as *PanicError) and never crashes a worker. Shutdown is
// cooperative: CloseAndJoin rejects new work, drains everything already
// submitted, then joins the workers.
package executor
