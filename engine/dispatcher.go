package engine

import "context"

// Dispatcher routes asynchronous operations onto one of two worker pools:
// an I/O-shaped pool for cheap, latency-sensitive point operations
// (get/insert/update/delete) and a compute-shaped pool for CPU-bound vector
// math (search, batch scoring). Pool separation keeps a burst of expensive
// searches from starving point lookups, and vice versa.
type Dispatcher struct {
	io      *WorkerPool
	compute *WorkerPool
}

// NewDispatcher creates a dispatcher with the given pool sizes.
// Sizes <= 0 default to GOMAXPROCS per pool.
func NewDispatcher(ioWorkers, computeWorkers int) *Dispatcher {
	return &Dispatcher{
		io:      NewWorkerPool(ioWorkers),
		compute: NewWorkerPool(computeWorkers),
	}
}

// SubmitIO enqueues a latency-sensitive point operation.
func (d *Dispatcher) SubmitIO(ctx context.Context, task func()) error {
	return d.io.Submit(ctx, task)
}

// SubmitCompute enqueues a CPU-bound operation.
func (d *Dispatcher) SubmitCompute(ctx context.Context, task func()) error {
	return d.compute.Submit(ctx, task)
}

// Close shuts down both pools, waiting for in-flight tasks.
func (d *Dispatcher) Close() {
	d.io.Close()
	d.compute.Close()
}
