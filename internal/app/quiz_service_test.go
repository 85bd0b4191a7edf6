package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studydesk/internal/model"
	"studydesk/internal/repository"
)

const quizContent = "The mitochondria is the powerhouse of the cell. " +
	"Photosynthesis converts light energy into chemical energy in plants. " +
	"The cell membrane controls what enters and leaves the cell. " +
	"DNA carries the genetic instructions for all living organisms. " +
	"Proteins are assembled by ribosomes from amino acid chains. " +
	"Enzymes lower the activation energy of biochemical reactions."

func newTestQuizService(t *testing.T) (*QuizService, *DocumentService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	docService := NewDocumentService(docRepo, repository.NewChatRepository(db), &fakePublisher{}, nil, nil, &fakeQA{}, 3000)
	return NewQuizService(docRepo, repository.NewQuestionRepository(db)), docService, db
}

func TestQuizGeneratedOnceAndReplayed(t *testing.T) {
	quizService, docService, db := newTestQuizService(t)

	doc, err := docService.Create(context.Background(), CreateDocumentInput{Title: "bio.pdf", Content: quizContent})
	require.NoError(t, err)

	first, err := quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for _, q := range first {
		assert.NotZero(t, q.ID)
		assert.Equal(t, doc.ID, q.DocumentID)
	}
	assert.Equal(t, model.QuestionTypeMCQ, first[0].Type)
	assert.Equal(t, model.QuestionTypeMCQ, first[1].Type)
	assert.Equal(t, model.QuestionTypeTrueFalse, first[2].Type)
	assert.Equal(t, model.QuestionTypeTrueFalse, first[3].Type)
	assert.Equal(t, model.QuestionTypeYesNo, first[4].Type)

	second, err := quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)
	require.Len(t, second, 5)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Question, second[i].Question)
		assert.Equal(t, first[i].Type, second[i].Type)
	}

	var count int64
	require.NoError(t, db.Model(&model.Question{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}

func TestQuizConcurrentFirstRequests(t *testing.T) {
	quizService, docService, db := newTestQuizService(t)

	doc, err := docService.Create(context.Background(), CreateDocumentInput{Title: "bio.pdf", Content: quizContent})
	require.NoError(t, err)

	const callers = 8
	results := make([][]model.Question, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = quizService.GetOrGenerate(doc.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 5)
		for j := range results[0] {
			assert.Equal(t, results[0][j].ID, results[i][j].ID)
		}
	}

	// Exactly one batch made it to the store.
	var count int64
	require.NoError(t, db.Model(&model.Question{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}

func TestQuizLockReleasedOncePersisted(t *testing.T) {
	quizService, docService, _ := newTestQuizService(t)

	doc, err := docService.Create(context.Background(), CreateDocumentInput{Title: "bio.pdf", Content: quizContent})
	require.NoError(t, err)

	_, err = quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)

	// The stored batch makes the per-document lock dead weight; keeping the
	// entry would grow the map by one mutex per document forever.
	quizService.mu.Lock()
	_, held := quizService.locks[doc.ID]
	quizService.mu.Unlock()
	assert.False(t, held)

	replay, err := quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)
	assert.Len(t, replay, 5)
}

func TestQuizUnknownDocument(t *testing.T) {
	quizService, _, _ := newTestQuizService(t)

	_, err := quizService.GetOrGenerate(777)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestQuizEmptyWhenNothingQualifies(t *testing.T) {
	quizService, docService, db := newTestQuizService(t)

	// Every fragment is too short or too long for the segmenter.
	content := "Short. Tiny. " + strings.Repeat("x", 200) + "."
	doc, err := docService.Create(context.Background(), CreateDocumentInput{Title: "sparse.pdf", Content: content})
	require.NoError(t, err)

	questions, err := quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)

	// An empty quiz is never persisted, so a later request regenerates.
	questions, err = quizService.GetOrGenerate(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)

	var count int64
	require.NoError(t, db.Model(&model.Question{}).Count(&count).Error)
	assert.Zero(t, count)
}
