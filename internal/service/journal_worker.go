package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/headless-pm/team-collab/internal/models"
)

// MessageSaver persists one chat message. Saving a message twice must be
// harmless.
type MessageSaver interface {
	SaveMessage(msg *models.ChatMessage) error
}

type JournalJob struct {
	Message models.ChatMessage
	Retry   int
}

// JournalWorker persists chat messages off the send path. It implements
// conversation.Journal: Record never blocks, and drops the message (logging
// it) when the queue is full.
type JournalWorker struct {
	saver      MessageSaver
	jobQueue   chan JournalJob
	workers    int
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	onFailure  func()

	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

type JournalOptions struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	Logger  *slog.Logger
	// OnFailure is called for every message that could not be persisted.
	OnFailure func()
}

func NewJournalWorker(saver MessageSaver, opts JournalOptions) *JournalWorker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1000
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &JournalWorker{
		saver:      saver,
		jobQueue:   make(chan JournalJob, opts.QueueSize),
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
		onFailure:  opts.OnFailure,
	}
}

func (w *JournalWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}

	w.logger.Info("journal worker started", "workers", w.workers)
}

// Stop closes the queue and waits until every queued message is handled.
func (w *JournalWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.jobQueue)
	w.wg.Wait()
	w.logger.Info("journal worker stopped")
}

func (w *JournalWorker) worker(id int) {
	defer w.wg.Done()

	for job := range w.jobQueue {
		w.processJob(id, job)
	}
}

func (w *JournalWorker) processJob(id int, job JournalJob) {
	for {
		err := w.saver.SaveMessage(&job.Message)
		if err == nil {
			w.logger.Debug("message persisted", "worker", id, "message", job.Message.ID)
			return
		}

		w.logger.Warn("failed to persist message",
			"worker", id, "message", job.Message.ID, "attempt", job.Retry+1, "error", err)

		if job.Retry >= w.maxRetries {
			w.fail(job.Message)
			return
		}
		job.Retry++
		time.Sleep(w.backoff * time.Duration(job.Retry))
	}
}

// Record queues msg for persistence.
func (w *JournalWorker) Record(msg models.ChatMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		w.fail(msg)
		return
	}

	select {
	case w.jobQueue <- JournalJob{Message: msg}:
		// Job queued successfully
	default:
		w.logger.Error("journal queue full, dropping message", "message", msg.ID)
		w.fail(msg)
	}
}

func (w *JournalWorker) fail(msg models.ChatMessage) {
	w.logger.Error("message not persisted",
		"message", msg.ID, "conversation", msg.ConversationType, "target", msg.TargetID)
	if w.onFailure != nil {
		w.onFailure()
	}
}
