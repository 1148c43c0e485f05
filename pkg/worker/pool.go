// Package worker provides an asynchronous worker pool publishing
// understanding events with the provided eventstream.Publisher.
//
// The pool decouples event publication from the understanding hot path: a
// slow or unavailable broker never delays a bot reply.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Event *eventstream.UnderstandingEvent
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the event stream backend.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds one publication (defaults to 10s).
	PublishTimeout time.Duration

	// Metrics is optional.
	Metrics *metrics.Collector

	Logger *slog.Logger
}

// Pool publishes events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// closeMu guards closed against concurrent Enqueue and Close.
	closeMu sync.RWMutex
	closed  bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger.OrNop(c.Logger),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	if p.closed || job.Event == nil {
		p.config.Metrics.RecordEvent(metrics.EventDropped)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"event_id", job.Event.EventID,
			"user_id", job.Event.UserID,
		)
		return true
	default:
		p.config.Metrics.RecordEvent(metrics.EventDropped)
		p.logger.Error("job not queued, queue full, job dropped",
			"event_id", job.Event.EventID,
			"user_id", job.Event.UserID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.closeMu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob publishes the event of a Job. Failures are logged and counted,
// never retried.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishUnderstanding(ctx, job.Event); err != nil {
		p.config.Metrics.RecordEvent(metrics.EventFailed)
		p.logger.Error("event publication failed",
			"event_id", job.Event.EventID,
			"error", err,
		)
		return
	}

	p.config.Metrics.RecordEvent(metrics.EventPublished)
	p.logger.Debug("event published", "event_id", job.Event.EventID)
}
