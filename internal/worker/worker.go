// Package worker runs the background pipeline: poll the mailbox, classify
// and filter new messages, extract tasks, and record the outcome.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/classifier"
	"github.com/jimallen/TasksAgent-sub000/internal/config"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
	"github.com/jimallen/TasksAgent-sub000/internal/extractor"
	"github.com/jimallen/TasksAgent-sub000/internal/filter"
	"github.com/jimallen/TasksAgent-sub000/internal/gmailclient"
	"github.com/jimallen/TasksAgent-sub000/internal/store"
)

// cycleTimeout bounds one full poll cycle.
const cycleTimeout = 2 * time.Minute

// MessageSource lists and fetches mailbox messages.
type MessageSource interface {
	Search(ctx context.Context, query gmailclient.SearchQuery, maxResults int) ([]domain.MessageRef, error)
	FetchAll(ctx context.Context, refs []domain.MessageRef) ([]*domain.InboundMessage, error)
}

// TaskExtractor turns transcript text into structured tasks.
type TaskExtractor interface {
	Extract(ctx context.Context, content, subject string) (domain.ExtractionResult, domain.ExtractionStatus)
}

// Worker is the background processor.
type Worker struct {
	source     MessageSource
	store      store.Storer
	classifier *classifier.Classifier
	filter     *filter.Evaluator
	extractor  TaskExtractor
	cfg        config.GmailConfig
	log        *zap.Logger
}

// NewWorker wires the pipeline stages together.
func NewWorker(
	source MessageSource,
	st store.Storer,
	cls *classifier.Classifier,
	flt *filter.Evaluator,
	ext TaskExtractor,
	cfg config.GmailConfig,
	log *zap.Logger,
) (*Worker, error) {
	if source == nil {
		return nil, fmt.Errorf("message source must not be nil")
	}
	if cls == nil || flt == nil || ext == nil {
		return nil, fmt.Errorf("pipeline stages must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		source:     source,
		store:      st,
		classifier: cls,
		filter:     flt,
		extractor:  ext,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Start launches the poll loop in its own goroutine. It stops when the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker",
		zap.String("component", "worker"),
		zap.Duration("pollInterval", w.cfg.PollInterval))

	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	interval := w.cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// One cycle right at startup.
	w.doWork(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped", zap.String("component", "worker"))
			return
		case <-ticker.C:
			w.doWork(ctx)
		}
	}
}

func (w *Worker) doWork(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	if err := w.RunCycle(cctx); err != nil {
		w.log.Error("work cycle failed", zap.String("component", "worker"), zap.Error(err))
	}
}

// RunCycle executes one full poll-classify-extract pass.
func (w *Worker) RunCycle(ctx context.Context) error {
	query := gmailclient.SearchQuery{
		RawQuery:      w.cfg.SearchQuery,
		HasAttachment: false,
	}

	refs, err := w.source.Search(ctx, query, w.cfg.MaxResults)
	if err != nil {
		return fmt.Errorf("could not search mailbox: %w", err)
	}
	if len(refs) == 0 {
		w.log.Debug("no messages matched the search", zap.String("component", "worker"))
		return nil
	}

	fresh, err := w.dropProcessed(ctx, refs)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		w.log.Debug("all matched messages were already processed",
			zap.String("component", "worker"), zap.Int("matched", len(refs)))
		return nil
	}

	messages, err := w.source.FetchAll(ctx, fresh)
	if err != nil {
		return fmt.Errorf("could not fetch messages: %w", err)
	}

	w.log.Info("processing new messages",
		zap.String("component", "worker"),
		zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processMessage(ctx, *msg)
	}

	return nil
}

// dropProcessed filters out message refs the pipeline already handled.
func (w *Worker) dropProcessed(ctx context.Context, refs []domain.MessageRef) ([]domain.MessageRef, error) {
	if w.store == nil {
		return refs, nil
	}

	fresh := make([]domain.MessageRef, 0, len(refs))
	for _, ref := range refs {
		done, err := w.store.IsMessageProcessed(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("could not check processed state: %w", err)
		}
		if !done {
			fresh = append(fresh, ref)
		}
	}
	return fresh, nil
}

func (w *Worker) processMessage(ctx context.Context, msg domain.InboundMessage) {
	log := w.log.With(
		zap.String("component", "worker"),
		zap.String("messageId", msg.ID),
		zap.String("subject", msg.Subject))

	if !w.classifier.ShouldProcess(msg, w.cfg.SenderDomains, w.cfg.SubjectPatterns) {
		log.Debug("message did not pass the processing gate")
		w.finish(ctx, msg, domain.ClassificationResult{Service: domain.ServiceUnknown},
			domain.ExtractionSkipped, nil, "below processing threshold")
		return
	}

	classification := w.classifier.Classify(msg)
	verdict := w.filter.Evaluate(msg, nil)
	if !verdict.Passed {
		log.Info("message rejected by filter", zap.String("reason", verdict.Reason))
		w.finish(ctx, msg, classification, domain.ExtractionSkipped, nil, verdict.Reason)
		return
	}

	result, status := w.extractor.Extract(ctx, msg.Body, msg.Subject)
	log.Info("extraction finished",
		zap.String("status", string(status)),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("confidence", result.Confidence))

	w.finish(ctx, msg, classification, status, &result, "")
}

// finish marks the message processed and writes the audit record. Failures
// here are logged but never abort the cycle.
func (w *Worker) finish(
	ctx context.Context,
	msg domain.InboundMessage,
	classification domain.ClassificationResult,
	status domain.ExtractionStatus,
	result *domain.ExtractionResult,
	reason string,
) {
	if w.store == nil {
		return
	}

	if err := w.store.MarkMessageProcessed(ctx, msg.ID); err != nil {
		w.log.Error("could not mark message processed",
			zap.String("component", "worker"),
			zap.String("messageId", msg.ID),
			zap.Error(err))
	}

	params := store.CreateExtractionLogParams{
		MessageID:    msg.ID,
		Subject:      msg.Subject,
		Service:      classification.Service,
		Status:       status,
		ErrorMessage: reason,
		Tasks:        json.RawMessage(`[]`),
	}
	if result != nil {
		params.TaskCount = len(result.Tasks)
		params.Confidence = result.Confidence
		if raw, err := json.Marshal(result.Tasks); err == nil {
			params.Tasks = raw
		}
	}

	if _, err := w.store.CreateExtractionLog(ctx, params); err != nil {
		w.log.Error("could not write extraction log",
			zap.String("component", "worker"),
			zap.String("messageId", msg.ID),
			zap.Error(err))
	}
}

// Compile-time checks that the real implementations satisfy the seams.
var (
	_ MessageSource = (*gmailclient.Client)(nil)
	_ TaskExtractor = (*extractor.Extractor)(nil)
)
