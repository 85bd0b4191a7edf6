package model

// SummarizeJob is the queue payload asking the background worker to
// summarize one document.
type SummarizeJob struct {
	DocumentID uint `json:"document_id"`
}
