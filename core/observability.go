package core

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	Workers        int
	GlobalQueueLen int
	ActiveStealers int
	Closed         bool
}

// WorkerStats represents runtime observability state for one worker.
type WorkerStats struct {
	ID       int
	QueueLen int
	Executed uint64
	Stealing bool
}
