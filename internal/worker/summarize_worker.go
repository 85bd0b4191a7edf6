package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"studydesk/internal/cache"
	"studydesk/internal/model"
	"studydesk/internal/repository"
)

// Summarizer is the external capability the worker drives.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// StateRecorder makes job progress observable per document.
type StateRecorder interface {
	SetState(ctx context.Context, documentID uint, state string) error
}

// SummarizeWorker consumes summarize jobs from the queue, runs the
// summarization provider over the leading slice of the document text and
// persists the result. Nobody waits on a job, so every failure mode
// (provider error, timeout, missing document) ends the same way: logged,
// state recorded, job dropped.
type SummarizeWorker struct {
	conn       *amqp.Connection
	docRepo    *repository.DocumentRepository
	summarizer Summarizer
	states     StateRecorder
	queueName  string
	inputChars int
	jobTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSummarizeWorker(
	conn *amqp.Connection,
	docRepo *repository.DocumentRepository,
	summarizer Summarizer,
	states StateRecorder,
	queueName string,
	inputChars int,
	jobTimeout time.Duration,
) *SummarizeWorker {
	if inputChars <= 0 {
		inputChars = 3000
	}
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}
	return &SummarizeWorker{
		conn:       conn,
		docRepo:    docRepo,
		summarizer: summarizer,
		states:     states,
		queueName:  queueName,
		inputChars: inputChars,
		jobTimeout: jobTimeout,
	}
}

func (w *SummarizeWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job model.SummarizeJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker decode summarize job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.handle(workerCtx, job); err != nil {
					log.Printf("worker summarize document %d failed: %v", job.DocumentID, err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// handle runs one job under its own timeout. A hung provider call cannot
// outlive the timeout, and a timeout is treated like any other failure.
func (w *SummarizeWorker) handle(ctx context.Context, job model.SummarizeJob) error {
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	w.setState(jobCtx, job.DocumentID, cache.StateSummarizing)

	doc, err := w.docRepo.GetByID(job.DocumentID)
	if err != nil {
		w.recordFailed(ctx, job.DocumentID)
		return err
	}
	if doc == nil {
		w.recordFailed(ctx, job.DocumentID)
		return fmt.Errorf("document %d not found", job.DocumentID)
	}

	summary, err := w.summarizer.Summarize(jobCtx, leadingRunes(doc.Content, w.inputChars))
	if err != nil {
		w.recordFailed(ctx, job.DocumentID)
		return err
	}

	if err := w.docRepo.UpdateSummary(doc.ID, summary); err != nil {
		w.recordFailed(ctx, job.DocumentID)
		return err
	}

	w.setState(jobCtx, job.DocumentID, cache.StateSummarized)
	return nil
}

// recordFailed writes the failed state under its own deadline. The job
// context is often already expired on this path (a timed-out provider call
// is the common failure), and a write under it would silently leave the
// document stuck in summarizing.
func (w *SummarizeWorker) recordFailed(ctx context.Context, documentID uint) {
	stateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	w.setState(stateCtx, documentID, cache.StateFailed)
}

func (w *SummarizeWorker) setState(ctx context.Context, documentID uint, state string) {
	if w.states == nil {
		return
	}
	if err := w.states.SetState(ctx, documentID, state); err != nil {
		log.Printf("worker set state for document %d failed: %v", documentID, err)
	}
}

func (w *SummarizeWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func leadingRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
