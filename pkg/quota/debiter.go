package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultDebitWorkers   = 4
	defaultDebitQueueSize = 1024
	debitTimeout          = 10 * time.Second
)

// Debiter applies balance debits on a bounded pool of background workers.
// Schedule never blocks: a debit is dropped with a warning when the queue
// is full.
type Debiter struct {
	svc     *Service
	logger  *slog.Logger
	workers int
	queue   chan debit

	mu       sync.RWMutex
	stopped  bool
	started  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type debit struct {
	key     Key
	balance int64
}

// NewDebiter creates a Debiter. Non-positive sizes fall back to defaults.
func NewDebiter(svc *Service, workers, queueSize int, logger *slog.Logger) *Debiter {
	if workers <= 0 {
		workers = defaultDebitWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultDebitQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Debiter{
		svc:     svc,
		logger:  logger,
		workers: workers,
		queue:   make(chan debit, queueSize),
	}
}

// Start launches the worker goroutines.
func (d *Debiter) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.work()
	}
}

func (d *Debiter) work() {
	defer d.wg.Done()
	for job := range d.queue {
		d.apply(job)
	}
}

func (d *Debiter) apply(job debit) {
	ctx, cancel := context.WithTimeout(context.Background(), debitTimeout)
	defer cancel()
	if err := d.svc.Debit(ctx, job.key, job.balance); err != nil {
		d.logger.Error("quota debit failed", "key", job.key.String(), "balance", job.balance, "error", err)
	}
}

// Schedule enqueues a debit that sets the tuple's balance. It reports
// whether the debit was accepted.
func (d *Debiter) Schedule(key Key, balance int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Warn("quota debit after shutdown, dropping", "key", key.String(), "balance", balance)
		return false
	}
	select {
	case d.queue <- debit{key: key, balance: balance}:
		return true
	default:
		d.logger.Warn("quota debit queue full, dropping", "key", key.String(), "balance", balance)
		return false
	}
}

// Stop stops accepting debits and waits for queued ones to be applied.
func (d *Debiter) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		started := d.started
		close(d.queue)
		d.mu.Unlock()

		if !started {
			for job := range d.queue {
				d.apply(job)
			}
			return
		}
		d.wg.Wait()
	})
}

// Run starts the workers, blocks until ctx is done, then drains the queue.
func (d *Debiter) Run(ctx context.Context) error {
	d.Start()
	<-ctx.Done()
	d.Stop()
	return nil
}
