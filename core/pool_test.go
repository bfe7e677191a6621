package core

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(workers int) Config {
	return Config{
		Workers: workers,
		Logger:  NewNoOpLogger(),
	}
}

// countingMetrics records metric calls with atomics for assertions.
type countingMetrics struct {
	executed atomic.Int64
	panics   atomic.Int64
	stolen   atomic.Int64
	overflow atomic.Int64
}

func (m *countingMetrics) RecordTaskExecuted(workerID int, duration time.Duration) {
	m.executed.Add(1)
}
func (m *countingMetrics) RecordTaskPanic(workerID int, panicInfo any) { m.panics.Add(1) }
func (m *countingMetrics) RecordSteal(victimID, thiefID, count int)   { m.stolen.Add(int64(count)) }
func (m *countingMetrics) RecordOverflow(workerID, count int)         { m.overflow.Add(int64(count)) }
func (m *countingMetrics) RecordGlobalQueueDepth(depth int)           {}

// TestPool_ExecutesExternalSubmissions verifies the global-queue path
// Given: A running pool
// When: Tasks are posted from a non-worker goroutine
// Then: Every task executes
func TestPool_ExecutesExternalSubmissions(t *testing.T) {
	pool := New(testConfig(4))
	defer pool.CloseAndJoin()

	var counter atomic.Int32
	var wg sync.WaitGroup
	const taskCount = 100

	wg.Add(taskCount)
	for i := 0; i < taskCount; i++ {
		err := pool.Post(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			counter.Add(1)
		})
		if err != nil {
			t.Fatalf("Post error: %v", err)
		}
	}
	wg.Wait()

	if n := counter.Load(); n != taskCount {
		t.Errorf("executed %d tasks, want %d", n, taskCount)
	}
}

// TestPool_StructuredJoin verifies the structured-concurrency guarantee
// Given: A BlockOn task that spawns 100 children
// When: BlockOn returns
// Then: All 100 children have already run
func TestPool_StructuredJoin(t *testing.T) {
	pool := New(testConfig(4))
	defer pool.CloseAndJoin()

	var counter atomic.Int32

	err := pool.BlockOn(context.Background(), func(ctx context.Context) {
		for i := 0; i < 100; i++ {
			if err := pool.Post(ctx, func(ctx context.Context) {
				counter.Add(1)
			}); err != nil {
				t.Errorf("nested Post error: %v", err)
			}
		}
	})
	if err != nil {
		t.Fatalf("BlockOn error: %v", err)
	}

	if n := counter.Load(); n != 100 {
		t.Errorf("counter = %d after BlockOn, want 100", n)
	}
}

// TestPool_StructuredJoinDeepNesting verifies transitive membership
// Given: A task tree of 5 children fanning out to 15 grandchildren and 45
// great-grandchildren
// When: BlockOn returns
// Then: All 65 descendants have recorded their depth
func TestPool_StructuredJoinDeepNesting(t *testing.T) {
	pool := New(testConfig(4))
	defer pool.CloseAndJoin()

	var mu sync.Mutex
	var depths []int
	record := func(depth int) {
		mu.Lock()
		depths = append(depths, depth)
		mu.Unlock()
	}

	var spawnLevel func(ctx context.Context, depth int, fanout []int)
	spawnLevel = func(ctx context.Context, depth int, fanout []int) {
		record(depth)
		if len(fanout) == 0 {
			return
		}
		for i := 0; i < fanout[0]; i++ {
			if err := pool.Post(ctx, func(ctx context.Context) {
				spawnLevel(ctx, depth+1, fanout[1:])
			}); err != nil {
				t.Errorf("Post at depth %d error: %v", depth, err)
			}
		}
	}

	err := pool.BlockOn(context.Background(), func(ctx context.Context) {
		for i := 0; i < 5; i++ {
			if err := pool.Post(ctx, func(ctx context.Context) {
				spawnLevel(ctx, 1, []int{3, 3})
			}); err != nil {
				t.Errorf("root Post error: %v", err)
			}
		}
	})
	if err != nil {
		t.Fatalf("BlockOn error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(depths) != 65 {
		t.Errorf("recorded %d depth entries, want 65", len(depths))
	}
	byDepth := map[int]int{}
	for _, d := range depths {
		byDepth[d]++
	}
	if byDepth[1] != 5 || byDepth[2] != 15 || byDepth[3] != 45 {
		t.Errorf("recorded depths = %v, want 5/15/45 at depths 1/2/3", byDepth)
	}
}

// TestPool_OverflowStress verifies no task is lost across spills
// Given: A task that pushes 1024 children into its own deque without yielding
// When: BlockOn returns
// Then: All 1024 ran, spills were recorded, and the global queue is empty
func TestPool_OverflowStress(t *testing.T) {
	metrics := &countingMetrics{}
	cfg := testConfig(4)
	cfg.Metrics = metrics
	pool := New(cfg)
	defer pool.CloseAndJoin()

	const children = 1024
	var counter atomic.Int32

	err := pool.BlockOn(context.Background(), func(ctx context.Context) {
		for i := 0; i < children; i++ {
			if err := pool.Post(ctx, func(ctx context.Context) {
				counter.Add(1)
			}); err != nil {
				t.Errorf("Post(%d) error: %v", i, err)
			}
		}
	})
	if err != nil {
		t.Fatalf("BlockOn error: %v", err)
	}

	if n := counter.Load(); n != children {
		t.Errorf("executed %d children, want %d", n, children)
	}
	if metrics.overflow.Load() == 0 {
		t.Error("no overflow recorded; pushing 1024 tasks must spill past capacity 256")
	}
	if depth := pool.Stats().GlobalQueueLen; depth != 0 {
		t.Errorf("global queue holds %d tasks after join, want 0", depth)
	}
}

// TestPool_CloseDrainsSubmittedTasks verifies cooperative shutdown
// Given: Tasks submitted before Close
// When: CloseAndJoin returns
// Then: Every prior submission has executed; later submissions fail
func TestPool_CloseDrainsSubmittedTasks(t *testing.T) {
	pool := New(testConfig(2))

	var counter atomic.Int32
	const taskCount = 500
	for i := 0; i < taskCount; i++ {
		if err := pool.Post(context.Background(), func(ctx context.Context) {
			counter.Add(1)
		}); err != nil {
			t.Fatalf("Post error: %v", err)
		}
	}

	pool.CloseAndJoin()

	if n := counter.Load(); n != taskCount {
		t.Errorf("executed %d tasks after close, want %d", n, taskCount)
	}
	if err := pool.Post(context.Background(), noopTask); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Post after close = %v, want ErrQueueClosed", err)
	}
	if err := pool.BlockOn(context.Background(), noopTask); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("BlockOn after close = %v, want ErrQueueClosed", err)
	}
}

// TestPool_PanicDoesNotKillWorker verifies worker survival
// Given: Tasks that panic interleaved with tasks that do not
// When: All are submitted
// Then: The healthy tasks still execute and panics are counted
func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	metrics := &countingMetrics{}
	cfg := testConfig(2)
	cfg.Metrics = metrics
	cfg.PanicHandler = silentPanicHandler{}
	pool := New(cfg)
	defer pool.CloseAndJoin()

	var counter atomic.Int32
	var wg sync.WaitGroup
	const healthy = 50

	for i := 0; i < healthy; i++ {
		if err := pool.Post(context.Background(), func(ctx context.Context) {
			panic("boom")
		}); err != nil {
			t.Fatalf("Post error: %v", err)
		}
		wg.Add(1)
		if err := pool.Post(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			counter.Add(1)
		}); err != nil {
			t.Fatalf("Post error: %v", err)
		}
	}
	wg.Wait()

	if n := counter.Load(); n != healthy {
		t.Errorf("executed %d healthy tasks, want %d", n, healthy)
	}
	if n := metrics.panics.Load(); n != healthy {
		t.Errorf("recorded %d panics, want %d", n, healthy)
	}
}

type silentPanicHandler struct{}

func (silentPanicHandler) HandlePanic(ctx context.Context, workerID int, panicInfo any, stackTrace []byte) {
}

// TestPool_StealCap verifies the stealer ceiling
// Given: Shared state for 8 workers
// When: The active-stealer count sits at N/2
// Then: No further steal attempt may begin
func TestPool_StealCap(t *testing.T) {
	s := NewSharedState(8)

	for i := 0; i < 3; i++ {
		if !s.canSteal() {
			t.Fatalf("canSteal() = false with %d active stealers, want true", i)
		}
		s.beginSteal()
	}

	s.beginSteal() // fourth stealer reaches the cap of 8/2
	if s.canSteal() {
		t.Error("canSteal() = true at cap, want false")
	}

	s.endSteal()
	if !s.canSteal() {
		t.Error("canSteal() = false below cap, want true")
	}
}

// TestPool_LoadSpreadAcrossWorkers verifies work distribution
// Given: 8 workers and 10000 short tasks submitted externally
// When: The pool drains and closes
// Then: Every task ran and every worker took a meaningful share
func TestPool_LoadSpreadAcrossWorkers(t *testing.T) {
	const workers = 8
	const taskCount = 10000

	pool := New(testConfig(workers))

	var sink atomic.Int64
	var wg sync.WaitGroup
	wg.Add(taskCount)
	for i := 0; i < taskCount; i++ {
		if err := pool.Post(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			acc := int64(0)
			for j := 0; j < 2000; j++ {
				acc += int64(j ^ (j >> 3))
			}
			sink.Add(acc)
		}); err != nil {
			t.Fatalf("Post(%d) error: %v", i, err)
		}
	}
	wg.Wait()
	pool.CloseAndJoin()

	stats := pool.WorkerStats()
	var total uint64
	for _, ws := range stats {
		total += ws.Executed
	}
	if total != taskCount {
		t.Fatalf("workers executed %d tasks, want %d", total, taskCount)
	}

	if runtime.NumCPU() < workers {
		t.Skipf("skipping per-worker spread check on %d CPUs", runtime.NumCPU())
	}
	for _, ws := range stats {
		if ws.Executed < taskCount/(workers*10) {
			t.Errorf("worker %d executed %d tasks, want at least %d",
				ws.ID, ws.Executed, taskCount/(workers*10))
		}
	}
}

// TestPool_StatsSnapshot verifies the observability surface
// Given: A freshly closed pool that ran known work
// When: Stats and WorkerStats are read
// Then: The snapshot is consistent with the configuration and the work done
func TestPool_StatsSnapshot(t *testing.T) {
	pool := New(testConfig(3))

	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		if err := pool.Post(context.Background(), func(ctx context.Context) {
			defer wg.Done()
		}); err != nil {
			t.Fatalf("Post error: %v", err)
		}
	}
	wg.Wait()
	pool.CloseAndJoin()

	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Stats().Workers = %d, want 3", stats.Workers)
	}
	if !stats.Closed {
		t.Error("Stats().Closed = false after CloseAndJoin, want true")
	}
	if stats.GlobalQueueLen != 0 {
		t.Errorf("Stats().GlobalQueueLen = %d, want 0", stats.GlobalQueueLen)
	}

	ws := pool.WorkerStats()
	if len(ws) != 3 {
		t.Fatalf("len(WorkerStats()) = %d, want 3", len(ws))
	}
	var executed uint64
	for _, w := range ws {
		executed += w.Executed
		if w.QueueLen != 0 {
			t.Errorf("worker %d QueueLen = %d after join, want 0", w.ID, w.QueueLen)
		}
	}
	if executed != 10 {
		t.Errorf("total executed = %d, want 10", executed)
	}
}

// TestPool_WorkerContextRouting verifies the worker context seen by nested posts
// Given: A task running on a worker
// When: It posts a child with its own context
// Then: The task's context reports OnWorker, and the child, posted into the
// same group, has run by the time BlockOn returns
func TestPool_WorkerContextRouting(t *testing.T) {
	pool := New(testConfig(2))
	defer pool.CloseAndJoin()

	var onWorker atomic.Bool
	var nestedRan atomic.Bool

	err := pool.BlockOn(context.Background(), func(ctx context.Context) {
		onWorker.Store(OnWorker(ctx))
		if err := pool.Post(ctx, func(ctx context.Context) {
			nestedRan.Store(true)
		}); err != nil {
			t.Errorf("nested Post error: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("BlockOn error: %v", err)
	}

	if !onWorker.Load() {
		t.Error("OnWorker(ctx) = false inside a task, want true")
	}
	if !nestedRan.Load() {
		t.Error("nested child had not run when BlockOn returned")
	}
}
