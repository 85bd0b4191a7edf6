package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"studydesk/internal/cache"
	"studydesk/internal/model"
	"studydesk/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMessageEmpty     = errors.New("message content is empty")
	ErrAnswerFailed     = errors.New("ai failed to answer")
)

// QuestionAnswerer answers a question extractively against a context window.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// SummarizeJobPublisher hands a document to the background summarize worker.
type SummarizeJobPublisher interface {
	Publish(ctx context.Context, job model.SummarizeJob) error
}

// HistoryCache buffers a document's chat thread between writes.
type HistoryCache interface {
	GetHistory(ctx context.Context, documentID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, documentID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, documentID uint) error
	MarkDirty(ctx context.Context, documentID uint) error
	IsDirty(ctx context.Context, documentID uint) (bool, error)
}

// StateCache exposes where a document sits in the summarize pipeline.
type StateCache interface {
	SetState(ctx context.Context, documentID uint, state string) error
	GetState(ctx context.Context, documentID uint) (string, bool, error)
}

// DocumentService coordinates the document pipeline: persist extracted
// text, hand off summarization, answer chat turns over the leading context
// window and serve the threaded history.
type DocumentService struct {
	docRepo        *repository.DocumentRepository
	chatRepo       *repository.ChatRepository
	publisher      SummarizeJobPublisher
	historyCache   HistoryCache
	stateCache     StateCache
	qa             QuestionAnswerer
	qaContextChars int
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	chatRepo *repository.ChatRepository,
	publisher SummarizeJobPublisher,
	historyCache HistoryCache,
	stateCache StateCache,
	qa QuestionAnswerer,
	qaContextChars int,
) *DocumentService {
	if qaContextChars <= 0 {
		qaContextChars = 3000
	}
	return &DocumentService{
		docRepo:        docRepo,
		chatRepo:       chatRepo,
		publisher:      publisher,
		historyCache:   historyCache,
		stateCache:     stateCache,
		qa:             qa,
		qaContextChars: qaContextChars,
	}
}

type CreateDocumentInput struct {
	Title   string
	Content string
}

// Create persists a document and enqueues its summarize job. The caller
// gets the document back immediately; the summary arrives out of band.
func (s *DocumentService) Create(ctx context.Context, input CreateDocumentInput) (*model.Document, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled"
	}

	doc := &model.Document{
		Title:   title,
		Content: input.Content,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	// Best effort: a broker failure only costs the summary.
	if err := s.enqueueSummarize(ctx, doc.ID); err != nil {
		log.Printf("enqueue summarize for document %d failed: %v", doc.ID, err)
		s.setState(ctx, doc.ID, cache.StateFailed)
	}
	return doc, nil
}

// Resummarize re-enqueues the summarize job for a document, the manual
// "generate now" path for documents whose background run failed.
func (s *DocumentService) Resummarize(ctx context.Context, documentID uint) error {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.enqueueSummarize(ctx, documentID); err != nil {
		return fmt.Errorf("enqueue summarize failed: %w", err)
	}
	return nil
}

// DocumentView is a document plus its observed summarize pipeline state.
type DocumentView struct {
	model.Document
	ProcessingState string `json:"processing_state,omitempty"`
}

func (s *DocumentService) Get(ctx context.Context, documentID uint) (*DocumentView, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	view := &DocumentView{Document: *doc}
	if doc.Summary != nil {
		view.ProcessingState = cache.StateSummarized
	} else if s.stateCache != nil {
		if state, ok, stateErr := s.stateCache.GetState(ctx, documentID); stateErr == nil && ok {
			view.ProcessingState = state
		}
	}
	return view, nil
}

// Chat runs one exchange: the user turn is persisted before the provider
// call so the question survives an answer failure, and the ai turn is
// appended only on success. A failed turn therefore leaves a dangling user
// message, which is the retriable state the history exposes.
func (s *DocumentService) Chat(ctx context.Context, documentID uint, message string) (string, error) {
	content := strings.TrimSpace(message)
	if content == "" {
		return "", ErrMessageEmpty
	}

	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrDocumentNotFound
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, documentID)
		_ = s.historyCache.DeleteHistory(ctx, documentID)
	}

	userTurn := &model.ChatMessage{
		DocumentID: documentID,
		Role:       model.RoleUser,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.chatRepo.Create(userTurn); err != nil {
		return "", err
	}

	answer, err := s.qa.Answer(ctx, content, contextWindow(doc.Content, s.qaContextChars))
	if err != nil {
		log.Printf("qa for document %d failed: %v", documentID, err)
		return "", ErrAnswerFailed
	}

	aiTurn := &model.ChatMessage{
		DocumentID: documentID,
		Role:       model.RoleAI,
		Content:    answer,
		CreatedAt:  time.Now(),
	}
	if err := s.chatRepo.Create(aiTurn); err != nil {
		return "", err
	}
	return answer, nil
}

func (s *DocumentService) GetHistory(ctx context.Context, documentID uint) ([]model.ChatMessage, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if s.historyCache != nil {
		dirty, dirtyErr := s.historyCache.IsDirty(ctx, documentID)
		if dirtyErr == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, documentID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.chatRepo.ListByDocumentID(documentID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, documentID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, documentID, messages)
		}
	}
	return messages, nil
}

func (s *DocumentService) enqueueSummarize(ctx context.Context, documentID uint) error {
	if s.publisher == nil {
		return errors.New("no summarize publisher configured")
	}
	if err := s.publisher.Publish(ctx, model.SummarizeJob{DocumentID: documentID}); err != nil {
		return err
	}
	s.setState(ctx, documentID, cache.StateQueued)
	return nil
}

func (s *DocumentService) setState(ctx context.Context, documentID uint, state string) {
	if s.stateCache == nil {
		return
	}
	if err := s.stateCache.SetState(ctx, documentID, state); err != nil {
		log.Printf("set processing state for document %d failed: %v", documentID, err)
	}
}

// contextWindow returns the fixed leading slice of the document text used
// as QA context. Text past the window is invisible to the provider.
func contextWindow(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
