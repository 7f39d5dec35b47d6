// worker/pool.go
package worker

// Job produces one result value. Jobs must be self-contained; the pool
// adds no timeout or cancellation of its own.
type Job[T any] func() T

// Result pairs a job's output with the ID it was submitted under.
type Result[T any] struct {
	JobID  string
	Output T
}

// Pool fans submitted jobs out over a fixed set of worker goroutines.
// Used to compute per-identity history summaries concurrently for the
// admin overview.
type Pool[T any] struct {
	jobs    chan jobWrapper[T]
	results chan Result[T]
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

// NewPool starts workerCount workers with the given channel buffer.
func NewPool[T any](workerCount, bufferSize int) *Pool[T] {
	p := &Pool[T]{
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}

	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	for job := range p.jobs {
		p.results <- Result[T]{
			JobID:  job.id,
			Output: job.fn(),
		}
	}
}

// Submit queues a job. Blocks when the buffer is full.
func (p *Pool[T]) Submit(id string, fn Job[T]) {
	p.jobs <- jobWrapper[T]{id: id, fn: fn}
}

// Results exposes the output channel.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// CollectN receives exactly n results, keyed by job ID. The caller must
// have submitted n jobs.
func (p *Pool[T]) CollectN(n int) map[string]T {
	out := make(map[string]T, n)
	for i := 0; i < n; i++ {
		r := <-p.results
		out[r.JobID] = r.Output
	}
	return out
}

// Close stops the workers once queued jobs are drained. Submitting after
// Close panics.
func (p *Pool[T]) Close() {
	close(p.jobs)
}
