package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allusionapp/allusion-server/internal/metrics"
)

// Persister runs background writes one at a time, in submission order.
// Callers never wait for a write: the in-memory state they just changed is
// authoritative, and a failed write is logged and counted, not retried.
type Persister struct {
	jobs    chan persistJob
	done    chan struct{}
	pending sync.WaitGroup
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

type persistJob struct {
	target string
	fn     func(ctx context.Context) error
}

// NewPersister starts the background writer.
func NewPersister(logger *slog.Logger) *Persister {
	p := &Persister{
		jobs:    make(chan persistJob, 256),
		done:    make(chan struct{}),
		logger:  logger,
		timeout: 30 * time.Second,
	}
	go p.run()
	return p
}

// Submit queues fn. target names what is written, for logs and metrics.
// Writes submitted after Close are dropped.
func (p *Persister) Submit(target string, fn func(ctx context.Context) error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("persister closed, dropping write", "target", target)
		return
	}
	p.pending.Add(1)
	p.jobs <- persistJob{target: target, fn: fn}
}

func (p *Persister) run() {
	defer close(p.done)
	for job := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := job.fn(ctx); err != nil {
			p.logger.Error("background write failed", "target", job.target, "error", err)
			metrics.PersistFailure(job.target)
		}
		cancel()
		p.pending.Done()
	}
}

// Flush blocks until every write submitted so far has run, or ctx ends.
func (p *Persister) Flush(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes and waits for the queue to drain.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
