package app

import (
	"sync"

	"studydesk/internal/model"
	"studydesk/internal/pkg/sentence"
	"studydesk/internal/quiz"
	"studydesk/internal/repository"
)

// QuizService generates a document's quiz at most once and serves the
// stored batch on every later request.
type QuizService struct {
	docRepo      *repository.DocumentRepository
	questionRepo *repository.QuestionRepository

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewQuizService(docRepo *repository.DocumentRepository, questionRepo *repository.QuestionRepository) *QuizService {
	return &QuizService{
		docRepo:      docRepo,
		questionRepo: questionRepo,
		locks:        make(map[uint]*sync.Mutex),
	}
}

// GetOrGenerate returns the stored quiz, generating and persisting it on
// the first request. The per-document lock is held across the whole
// check-generate-persist sequence, so concurrent first requests still
// produce exactly one stored batch.
func (s *QuizService) GetOrGenerate(documentID uint) ([]model.Question, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.questionRepo.ListByDocumentID(documentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.releaseLock(documentID)
		return existing, nil
	}

	sentences := sentence.Split(doc.Content)
	questions := quiz.Generate(documentID, sentences)
	if len(questions) == 0 {
		// Nothing qualified; an empty quiz is valid and not persisted.
		return []model.Question{}, nil
	}
	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, err
	}
	s.releaseLock(documentID)
	return questions, nil
}

func (s *QuizService) docLock(documentID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[documentID] = lock
	}
	return lock
}

// releaseLock drops the map entry once the stored batch exists. Later
// callers only read, so they no longer need to share a lock; without this
// the map would grow by one entry per document forever. Only called with
// rows already committed, so a fresh lock can never admit a second
// generation.
func (s *QuizService) releaseLock(documentID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, documentID)
}
