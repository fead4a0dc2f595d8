package urlsession

import "sync"

// serialQueue runs jobs one at a time, in FIFO order, in a background
// goroutine that only exists while there are pending jobs. The zero
// value is ready to use.
type serialQueue struct {
	mu      sync.Mutex
	jobs    []func()
	running bool
}

// enqueue schedules fn and returns immediately.
func (q *serialQueue) enqueue(fn func()) {
	q.mu.Lock()
	q.jobs = append(q.jobs, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	go q.drain()
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.jobs) <= 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		fn()
	}
}
