package ai

import "context"

// SummaryProvider binds the client to one summarization model and its
// generation budget. Constructed once at startup and shared by reference.
type SummaryProvider struct {
	client       *Client
	model        string
	maxNewTokens int
}

func NewSummaryProvider(client *Client, model string, maxNewTokens int) *SummaryProvider {
	if maxNewTokens <= 0 {
		maxNewTokens = 150
	}
	return &SummaryProvider{
		client:       client,
		model:        model,
		maxNewTokens: maxNewTokens,
	}
}

func (p *SummaryProvider) Summarize(ctx context.Context, text string) (string, error) {
	return p.client.Summarize(ctx, p.model, text, p.maxNewTokens)
}

// QAProvider binds the client to one extractive question-answering model.
type QAProvider struct {
	client *Client
	model  string
}

func NewQAProvider(client *Client, model string) *QAProvider {
	return &QAProvider{client: client, model: model}
}

func (p *QAProvider) Answer(ctx context.Context, question, contextText string) (string, error) {
	return p.client.Answer(ctx, p.model, question, contextText)
}
