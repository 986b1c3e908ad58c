package queue

import (
	"errors"
	"log/slog"
	"sync"

	"vidlingo/internal/job"
	"vidlingo/internal/logging"
)

// ErrEmptyQueue is returned by DequeueHead when there is nothing to remove.
// Under normal operation it indicates a broken invariant.
var ErrEmptyQueue = errors.New("queue is empty")

// Dispatcher starts work on the head job. It must return promptly; the job's
// terminal outcome is reported later through DequeueHead.
type Dispatcher func(*job.Job)

// Queue is the single-lane FIFO of pending jobs. The head is the active job:
// it stays in the queue until its terminal outcome, and at most one head is
// ever dispatched at a time.
type Queue struct {
	mu       sync.Mutex
	items    []*job.Job
	active   *job.Job
	stopped  bool
	dispatch Dispatcher
	logger   *slog.Logger
}

// New constructs an empty queue that hands each new head to dispatch.
func New(dispatch Dispatcher, logger *slog.Logger) *Queue {
	return &Queue{
		dispatch: dispatch,
		logger:   logging.NewComponentLogger(logger, "queue"),
	}
}

// Enqueue appends j to the tail and returns its 1-based position. When the
// queue was empty the job becomes the head and is dispatched immediately.
func (q *Queue) Enqueue(j *job.Job) int {
	q.mu.Lock()
	q.items = append(q.items, j)
	position := len(q.items)
	head, dispatch := q.maybeRunHeadLocked()
	q.mu.Unlock()

	q.logger.Info("job enqueued",
		logging.String(logging.FieldJobID, j.ID),
		logging.String(logging.FieldVideoID, j.VideoID),
		logging.String(logging.FieldLanguage, j.Language.String()),
		logging.Int("position", position),
	)
	if head != nil {
		dispatch(head)
	}
	return position
}

// DequeueHead removes the head after its terminal outcome and dispatches the
// next job, if any. Removal and hand-off happen under one lock so no other
// caller can observe a non-empty queue with nothing running.
func (q *Queue) DequeueHead() (*job.Job, error) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, ErrEmptyQueue
	}
	removed := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.active = nil
	head, dispatch := q.maybeRunHeadLocked()
	remaining := len(q.items)
	q.mu.Unlock()

	q.logger.Debug("job dequeued",
		logging.String(logging.FieldJobID, removed.ID),
		logging.Int("remaining", remaining),
	)
	if head != nil {
		dispatch(head)
	}
	return removed, nil
}

// maybeRunHeadLocked marks the head active and returns it when nothing is
// running. The caller invokes the dispatcher after releasing the lock.
func (q *Queue) maybeRunHeadLocked() (*job.Job, Dispatcher) {
	if q.stopped || q.active != nil || len(q.items) == 0 || q.dispatch == nil {
		return nil, nil
	}
	q.active = q.items[0]
	return q.active, q.dispatch
}

// Stop prevents further dispatches. Jobs already queued stay visible.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
}

// PeekAll returns the ordered public projection of the queue.
func (q *Queue) PeekAll() []job.ViewItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]job.ViewItem, len(q.items))
	for i, j := range q.items {
		out[i] = j.View()
	}
	return out
}

// Size returns the number of jobs including the active one.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Active returns the job currently dispatched, or nil.
func (q *Queue) Active() *job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}
