package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/history"
	"vidlingo/internal/job"
	"vidlingo/internal/language"
	"vidlingo/internal/logging"
	"vidlingo/internal/notifications"
	"vidlingo/internal/publishing"
	"vidlingo/internal/queue"
	"vidlingo/internal/stage"
	"vidlingo/internal/translation"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("engine stopped")

// TranscriptSource fetches the ordered source transcript.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, videoID string) ([]job.TranscriptPart, error)
}

// Translator translates transcripts and publish metadata.
type Translator interface {
	TranslateTranscript(ctx context.Context, videoID string, lang language.Language, parts []job.TranscriptPart) ([]job.TranslatedPart, error)
	TranslateMetadata(ctx context.Context, lang language.Language, title, description string) (translation.Metadata, error)
}

// MediaProcessor owns the merged and rendered media files.
type MediaProcessor interface {
	FetchAndMerge(ctx context.Context, videoID string) (string, error)
	Probe(ctx context.Context, videoID, mergedPath string) (job.VideoMetadata, error)
	BurnCaptions(ctx context.Context, videoID string, lang language.Language, mergedPath string, parts []job.TranslatedPart, durationSeconds float64) (string, error)
	Cleanup(ctx context.Context, videoID string, lang language.Language) error
}

// Publisher uploads rendered media.
type Publisher interface {
	Publish(ctx context.Context, req publishing.Request, observe publishing.ProgressFunc) (job.Published, error)
}

// Notifier tells the requester about a published video. It reports delivery
// as a bool and never fails the job.
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message) bool
}

// Recorder stores terminal outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Stages bundles the collaborators the engine drives.
type Stages struct {
	Transcripts TranscriptSource
	Translation Translator
	Media       MediaProcessor
	Publishing  Publisher
	Notify      Notifier
	// Artifacts holds the translated transcript cache that cleanup removes
	// after a successful publish.
	Artifacts artifacts.Store
}

// Engine owns the job queue and runs one job at a time.
type Engine struct {
	queue    *queue.Queue
	stages   Stages
	settings Settings
	history  Recorder
	checks   []HealthCheck
	sleep    func(context.Context, time.Duration) error
	logger   *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu            sync.RWMutex
	stopped       bool
	active        *job.Job
	current       stage.Name
	uploadPercent float64
	processed     int
	failed        int
	lastErr       error
	lastPublished string
}

// Option customizes the engine.
type Option func(*Engine)

// WithHistory records terminal outcomes in rec.
func WithHistory(rec Recorder) Option {
	return func(e *Engine) {
		e.history = rec
	}
}

// WithHealthChecks adds dependency checks to the status view.
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(e *Engine) {
		e.checks = append(e.checks, checks...)
	}
}

// WithSleep replaces the wait between retry attempts.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// NewEngine constructs an engine with an empty queue. Jobs start as soon as
// they are submitted.
func NewEngine(stages Stages, settings Settings, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		stages:   stages,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = queue.New(e.dispatch, logger)
	return e
}

// Submit validates and enqueues a job, returning it with its 1-based queue
// position. Position 1 means the job started immediately.
func (e *Engine) Submit(videoID string, lang language.Language, requester job.RequesterContext) (*job.Job, int, error) {
	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()
	if stopped {
		return nil, 0, ErrStopped
	}
	j, err := job.New(videoID, lang, requester)
	if err != nil {
		return nil, 0, err
	}
	return j, e.queue.Enqueue(j), nil
}

// QueueView returns the ordered public projection of pending jobs,
// including the active one.
func (e *Engine) QueueView() []job.ViewItem {
	return e.queue.PeekAll()
}

// QueueLength returns the number of jobs including the active one.
func (e *Engine) QueueLength() int {
	return e.queue.Size()
}

// Wait blocks until no job is running. It must not race with a Submit that
// could start a job on an idle engine; Stop is safe to call at any time.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Stop prevents further dispatches, cancels the active job and waits for it
// to settle. Pending jobs are dropped with the process.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	e.queue.Stop()
	e.cancel()
	e.wg.Wait()
}

// dispatch is the queue's hand-off. It must not block: the queue calls it
// from Enqueue and DequeueHead. The stopped check and wg.Add happen under
// e.mu so no job is added once Stop has started waiting.
func (e *Engine) dispatch(j *job.Job) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(e.baseCtx, j)
	}()
}
