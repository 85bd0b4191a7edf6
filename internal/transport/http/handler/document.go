package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studydesk/internal/app"
	"studydesk/internal/model"
	"studydesk/internal/pkg/pdfextract"
	"studydesk/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type DocumentHandler struct {
	documentService *app.DocumentService
	quizService     *app.QuizService
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewDocumentHandler(documentService *app.DocumentService, quizService *app.QuizService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		quizService:     quizService,
	}
}

// Upload accepts a multipart form with "file" (PDF), extracts the text
// layer and creates the document. The response never waits on the
// summarization that the service kicks off.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		response.Error(c, http.StatusBadRequest, "PDF contains no extractable text")
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), app.CreateDocumentInput{
		Title:   file.Filename,
		Content: text,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, "Failed to process PDF")
		}
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	view, err := h.documentService.Get(c.Request.Context(), docID)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, "Document not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "fetch document failed")
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// Summarize re-enqueues the background summarize job on demand.
func (h *DocumentHandler) Summarize(c *gin.Context) {
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.documentService.Resummarize(c.Request.Context(), docID); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, "Document not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "queue summarization failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"queued": true})
}

func (h *DocumentHandler) Chat(c *gin.Context) {
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	answer, err := h.documentService.Chat(c.Request.Context(), docID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, "Document not found")
		case errors.Is(err, app.ErrAnswerFailed):
			response.Error(c, http.StatusInternalServerError, "AI failed to answer")
		default:
			response.Error(c, http.StatusInternalServerError, "chat failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": answer})
}

func (h *DocumentHandler) History(c *gin.Context) {
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	messages, err := h.documentService.GetHistory(c.Request.Context(), docID)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, "Document not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "fetch chat history failed")
		}
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *DocumentHandler) Quiz(c *gin.Context) {
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	questions, err := h.quizService.GetOrGenerate(docID)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, "Document not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "Failed to generate quiz")
		}
		return
	}

	c.JSON(http.StatusOK, toQuestionViews(questions))
}

// QuestionView is a question with its options decoded for the wire.
type QuestionView struct {
	ID            uint     `json:"id"`
	DocumentID    uint     `json:"document_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Type          string   `json:"type"`
	Explanation   *string  `json:"explanation"`
}

func toQuestionViews(questions []model.Question) []QuestionView {
	views := make([]QuestionView, len(questions))
	for i := range questions {
		q := &questions[i]
		views[i] = QuestionView{
			ID:            q.ID,
			DocumentID:    q.DocumentID,
			Question:      q.Question,
			Options:       q.OptionList(),
			CorrectAnswer: q.CorrectAnswer,
			Type:          q.Type,
			Explanation:   q.Explanation,
		}
	}
	return views
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
