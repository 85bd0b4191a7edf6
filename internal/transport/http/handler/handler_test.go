package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studydesk/internal/app"
	"studydesk/internal/model"
	"studydesk/internal/repository"
	"studydesk/internal/transport/http/middleware"
)

const testPassword = "myschoolsecret"

type fakeQA struct {
	mu  sync.Mutex
	err error
}

func (f *fakeQA) Answer(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "the extracted answer", nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []model.SummarizeJob
}

func (f *fakePublisher) Publish(_ context.Context, job model.SummarizeJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	pub    *fakePublisher
	qa     *fakeQA
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Session{}, &model.Document{}, &model.ChatMessage{}, &model.Question{}))

	qa := &fakeQA{}
	pub := &fakePublisher{}
	docRepo := repository.NewDocumentRepository(db)

	authService := app.NewAuthService(repository.NewSessionRepository(db), testPassword, "")
	documentService := app.NewDocumentService(docRepo, repository.NewChatRepository(db), pub, nil, nil, qa, 3000)
	quizService := app.NewQuizService(docRepo, repository.NewQuestionRepository(db))

	authHandler := NewAuthHandler(authService)
	documentHandler := NewDocumentHandler(documentService, quizService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/auth/status", authHandler.Status)

	docs := api.Group("/documents")
	docs.Use(middleware.RequireSession(authService))
	docs.POST("", documentHandler.Upload)
	docs.GET("/:id", documentHandler.Get)
	docs.POST("/:id/summarize", documentHandler.Summarize)
	docs.POST("/:id/chat", documentHandler.Chat)
	docs.GET("/:id/chat", documentHandler.History)
	docs.POST("/:id/quiz", documentHandler.Quiz)

	return &testEnv{router: router, db: db, pub: pub, qa: qa}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(middleware.HeaderAuthToken, token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/login", "", gin.H{"password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// pdfUpload builds a small PDF containing the given lines and wraps it in a
// multipart form under the "file" field.
func pdfUpload(t *testing.T, filename string, lines []string) (*bytes.Buffer, string) {
	t.Helper()
	var pdfBuf bytes.Buffer
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		doc.MultiCell(190, 8, line, "", "L", false)
	}
	require.NoError(t, doc.Output(&pdfBuf))

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(pdfBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

var studyLines = []string{
	"The mitochondria is the powerhouse of the cell.",
	"Photosynthesis converts light energy into chemical energy.",
	"The cell membrane controls what enters and leaves the cell.",
	"DNA carries the genetic instructions for living organisms.",
	"Proteins are assembled by ribosomes from amino acid chains.",
	"Enzymes lower the activation energy of chemical reactions.",
}

func messageBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/login", "", gin.H{"password": "guessing"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password", messageBody(t, rec))
}

func TestAuthStatusLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/auth/status", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated": true}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/logout", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/status", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated": false}`, rec.Body.String())
}

func TestDocumentRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := pdfUpload(t, "bio.pdf", studyLines)
	rec := env.do(t, http.MethodPost, "/api/documents", "", body, contentType)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", messageBody(t, rec))

	// The rejected upload left nothing behind.
	var count int64
	require.NoError(t, env.db.Model(&model.Document{}).Count(&count).Error)
	assert.Zero(t, count)

	rec = env.do(t, http.MethodGet, "/api/documents/1", "stale-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadChatQuizFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body, contentType := pdfUpload(t, "bio.pdf", studyLines)
	rec := env.do(t, http.MethodPost, "/api/documents", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		ID      uint    `json:"id"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Summary *string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.NotZero(t, doc.ID)
	assert.Equal(t, "bio.pdf", doc.Title)
	assert.Contains(t, doc.Content, "mitochondria")
	assert.Nil(t, doc.Summary)
	require.Len(t, env.pub.jobs, 1)
	assert.Equal(t, doc.ID, env.pub.jobs[0].DocumentID)

	rec = env.do(t, http.MethodGet, "/api/documents/1", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/documents/1/chat", token, gin.H{"message": "What is the mitochondria?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response": "the extracted answer"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/documents/1/chat", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAI, history[1].Role)

	rec = env.do(t, http.MethodPost, "/api/documents/1/quiz", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var quiz []QuestionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quiz))
	require.Len(t, quiz, 5)
	assert.Equal(t, model.QuestionTypeMCQ, quiz[0].Type)
	assert.Len(t, quiz[0].Options, 4)
	assert.Equal(t, model.QuestionTypeYesNo, quiz[4].Type)

	// The quiz is generated once; a second request replays the stored batch.
	rec = env.do(t, http.MethodPost, "/api/documents/1/quiz", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var again []QuestionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, quiz, again)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text, not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := env.do(t, http.MethodPost, "/api/documents", token, body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "only PDF files are allowed", messageBody(t, rec))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "huge.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), maxPDFSize+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := env.do(t, http.MethodPost, "/api/documents", token, body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file too large (max 10MB)", messageBody(t, rec))

	var count int64
	require.NoError(t, env.db.Model(&model.Document{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	rec := env.do(t, http.MethodPost, "/api/documents", token, body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", messageBody(t, rec))
}

func TestUploadCorruptPDF(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "broken.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 truncated garbage"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := env.do(t, http.MethodPost, "/api/documents", token, body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(messageBody(t, rec), "failed to extract text from PDF"))
}

func TestGetUnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/documents/42", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Document not found", messageBody(t, rec))
}

func TestSummarizeRequeues(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	body, contentType := pdfUpload(t, "bio.pdf", studyLines)
	rec := env.do(t, http.MethodPost, "/api/documents", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.pub.jobs, 1)

	rec = env.do(t, http.MethodPost, "/api/documents/1/summarize", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queued": true}`, rec.Body.String())
	assert.Len(t, env.pub.jobs, 2)
}

func TestChatProviderFailureKeepsQuestion(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.qa.err = errors.New("model unavailable")

	body, contentType := pdfUpload(t, "bio.pdf", studyLines)
	rec := env.do(t, http.MethodPost, "/api/documents", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/documents/1/chat", token, gin.H{"message": "Will this fail?"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI failed to answer", messageBody(t, rec))

	rec = env.do(t, http.MethodGet, "/api/documents/1/chat", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "Will this fail?", history[0].Content)
}
