package chat

import "sync"

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout is a bounded worker pool that pushes one payload to many clients.
// Enqueueing onto a client is non-blocking; a slow client drops frames
// instead of stalling the pool.
type Fanout struct {
	jobs      chan fanoutJob
	done      chan struct{}
	closeOnce sync.Once
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue), done: make(chan struct{})}
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-f.done:
					return
				case job := <-f.jobs:
					for _, c := range job.conns {
						c.Enqueue(job.payload)
					}
				}
			}
		}()
	}
	return f
}

// Broadcast enqueues one delivery job. After Close the job is dropped; a
// push racing shutdown is fire-and-forget like any other.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	select {
	case <-f.done:
	case f.jobs <- fanoutJob{conns: conns, payload: payload}:
	}
}

// Close stops the workers. Queued jobs may be dropped. Safe to call
// repeatedly and concurrently with Broadcast.
func (f *Fanout) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
