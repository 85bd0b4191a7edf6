package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a Hugging Face style inference endpoint hosting
// task-specific models (summarization, extractive question answering).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Summarize runs the given text through an abstractive summarization model
// and returns the summary text.
func (c *Client) Summarize(ctx context.Context, model, text string, maxNewTokens int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize input is empty")
	}

	reqBody := map[string]interface{}{
		"inputs": text,
		"parameters": map[string]interface{}{
			"max_new_tokens": maxNewTokens,
		},
	}
	raw, err := c.post(ctx, model, reqBody)
	if err != nil {
		return "", err
	}

	var parsed []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse summarization json failed: %w", err)
	}
	if len(parsed) == 0 || strings.TrimSpace(parsed[0].SummaryText) == "" {
		return "", fmt.Errorf("empty summarization result")
	}
	return strings.TrimSpace(parsed[0].SummaryText), nil
}

// Answer runs an extractive question-answering model over the supplied
// context window and returns the answer span.
func (c *Client) Answer(ctx context.Context, model, question, contextText string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is empty")
	}

	reqBody := map[string]interface{}{
		"inputs": map[string]string{
			"question": question,
			"context":  contextText,
		},
	}
	raw, err := c.post(ctx, model, reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse qa json failed: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return "", fmt.Errorf("empty qa answer")
	}
	return strings.TrimSpace(parsed.Answer), nil
}

func (c *Client) post(ctx context.Context, model string, reqBody interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal inference request failed: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/models/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build inference request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inference response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference response status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
