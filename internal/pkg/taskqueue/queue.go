package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/notify"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/renewal"
)

const (
	pendingBuffer = 256
	notifyTimeout = 30 * time.Second
)

// Queue makes the (renew, notify) pipeline idempotent under retries and
// duplicate webhooks without a durable store. One task per order code; each
// processing attempt re-fetches live order state through the renewer, so a
// task for an already-renewed order is dropped without side effects.
type Queue struct {
	renewer     Renewer
	sender      notify.Sender
	maxAttempts int

	mu      sync.Mutex
	tasks   map[string]*Task
	pending chan string
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool

	retryInterval time.Duration
}

// NewQueue creates a renewal task queue.
func NewQueue(renewer Renewer, sender notify.Sender) *Queue {
	return &Queue{
		renewer:       renewer,
		sender:        sender,
		maxAttempts:   DefaultMaxAttempts,
		tasks:         make(map[string]*Task),
		pending:       make(chan string, pendingBuffer),
		retryInterval: 2 * time.Minute,
	}
}

// Start launches the worker and the retry sweeper.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})

	log.Info("[TaskQueue] Starting renewal worker")
	q.wg.Add(2)
	go q.worker()
	go q.retryWorker()
}

// Stop stops the workers and waits for the in-flight task to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[TaskQueue] Stopped")
}

// Enqueue registers an order code for the renewal pipeline. Re-enqueuing an
// in-flight code refreshes its attempt metadata without resetting completed
// step flags, so a duplicate webhook never repeats finished work.
func (q *Queue) Enqueue(orderCode string) {
	now := time.Now()

	q.mu.Lock()
	task, ok := q.tasks[orderCode]
	if ok {
		task.Attempts = 0
		task.Parked = false
		task.LastError = ""
		task.UpdatedAt = now
	} else {
		task = &Task{
			OrderCode:   orderCode,
			MaxAttempts: q.maxAttempts,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		q.tasks[orderCode] = task
	}
	q.mu.Unlock()

	select {
	case q.pending <- orderCode:
	default:
		// channel full; the retry sweeper will pick the task up
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopCh:
			return
		case code := <-q.pending:
			q.process(code)
		}
	}
}

// retryWorker periodically re-queues tasks with unfinished steps. Covers
// both channel overflow on enqueue and earlier failed attempts.
func (q *Queue) retryWorker() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			for _, code := range q.retryableCodes() {
				select {
				case q.pending <- code:
				default:
				}
			}
		}
	}
}

func (q *Queue) retryableCodes() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	codes := make([]string, 0, len(q.tasks))
	for code, t := range q.tasks {
		if !t.Parked {
			codes = append(codes, code)
		}
	}
	return codes
}

// process runs the remaining steps of one task. Any failure leaves the task
// in place with an incremented attempt counter; the task is removed only
// once both steps are done.
func (q *Queue) process(orderCode string) {
	q.mu.Lock()
	task, ok := q.tasks[orderCode]
	if !ok || task.Parked {
		q.mu.Unlock()
		return
	}
	snapshot := *task
	q.mu.Unlock()

	if !snapshot.RenewalDone {
		res, err := q.renewer.Renew(orderCode, false)
		if err != nil {
			q.fail(orderCode, fmt.Errorf("renew: %w", err))
			return
		}
		if res.Skipped {
			// live state says there is nothing to do; stale task
			log.Infof("[TaskQueue] Dropping task for %s: %s", orderCode, res.Reason)
			q.remove(orderCode)
			return
		}
		snapshot.message = renewalMessage(res)
		q.markRenewed(orderCode, snapshot.message)
		log.Infof("[TaskQueue] Renewed %s until %s", orderCode, res.NewExpiry)
	} else if snapshot.message == "" {
		snapshot.message = fmt.Sprintf("Đơn %s đã được gia hạn.", orderCode)
	}

	if !snapshot.NotifyDone {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		err := q.sender.Send(ctx, q.messageFor(orderCode, snapshot.message))
		cancel()
		if err != nil {
			q.fail(orderCode, fmt.Errorf("notify: %w", err))
			return
		}
		q.markNotified(orderCode)
	}

	q.remove(orderCode)
}

func (q *Queue) markRenewed(orderCode, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.tasks[orderCode]; ok {
		t.RenewalDone = true
		t.LastError = ""
		t.UpdatedAt = time.Now()
		t.message = message
	}
}

func (q *Queue) markNotified(orderCode string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.tasks[orderCode]; ok {
		t.NotifyDone = true
		t.LastError = ""
		t.UpdatedAt = time.Now()
	}
}

func (q *Queue) messageFor(orderCode, fallback string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.tasks[orderCode]; ok && t.message != "" {
		return t.message
	}
	return fallback
}

func (q *Queue) fail(orderCode string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[orderCode]
	if !ok {
		return
	}
	t.Attempts++
	t.LastError = err.Error()
	t.UpdatedAt = time.Now()
	if t.Attempts >= t.MaxAttempts {
		t.Parked = true
		log.Errorf("[TaskQueue] Task %s parked after %d attempts: %v", orderCode, t.Attempts, err)
		return
	}
	log.Warnf("[TaskQueue] Task %s attempt %d/%d failed: %v", orderCode, t.Attempts, t.MaxAttempts, err)
}

func (q *Queue) remove(orderCode string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.tasks, orderCode)
}

// GetTask returns a copy of the task for an order code, if present.
func (q *Queue) GetTask(orderCode string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.tasks[orderCode]; ok {
		return *t, true
	}
	return Task{}, false
}

// ListTasks returns a snapshot of all live tasks.
func (q *Queue) ListTasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, *t)
	}
	return out
}

// GetStats summarizes queue state.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := Stats{Total: len(q.tasks)}
	for _, t := range q.tasks {
		if t.RenewalDone {
			s.RenewalDone++
		}
		if t.NotifyDone {
			s.NotifyDone++
		}
		if t.Parked {
			s.Parked++
		}
	}
	return s
}

func renewalMessage(res *renewal.Result) string {
	return fmt.Sprintf("✅ Gia hạn thành công %s\nHạn mới: %s\nGiá: %d", res.OrderCode, res.NewExpiry, res.Price)
}
