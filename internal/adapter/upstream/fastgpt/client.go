// Package fastgpt calls a FastGPT-compatible chat completion endpoint to
// score answers and generate quiz questions.
package fastgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

const (
	chatCompletionsPath = "/api/v1/chat/completions"

	// maxBodyBytes bounds how much of an upstream response we read.
	maxBodyBytes = 1 << 20
	// errBodySnippet bounds how much upstream body text lands in errors.
	errBodySnippet = 512

	appScore    = "score"
	appQuestion = "question"
)

// Client talks to FastGPT. The score and question apps are addressed by
// different API keys on the same endpoint.
type Client struct {
	baseURL     string
	scoreKey    string
	questionKey string
	httpClient  *http.Client
}

// New builds a Client. The timeout must be generous; upstream calls can
// run for minutes.
func New(baseURL, scoreKey, questionKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:     baseURL,
		scoreKey:    scoreKey,
		questionKey: questionKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	ChatID    string            `json:"chatId,omitempty"`
	Stream    bool              `json:"stream"`
	Detail    bool              `json:"detail"`
	Variables map[string]string `json:"variables,omitempty"`
	Messages  []chatMessage     `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Score asks the score app to grade an answer against its reference.
func (c *Client) Score(ctx context.Context, key, question, referenceAnswer, userAnswer string) (float64, string, error) {
	ctx, span := otel.Tracer("upstream.fastgpt").Start(ctx, "fastgpt.score")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	reqBody := chatRequest{
		ChatID: key,
		Variables: map[string]string{
			"question":        question,
			"referenceAnswer": referenceAnswer,
			"userAnswer":      userAnswer,
		},
		Messages: []chatMessage{{Role: "user", Content: userAnswer}},
	}
	raw, err := c.post(ctx, appScore, c.scoreKey, reqBody)
	if err != nil {
		return 0, "", err
	}
	score, analysis := ExtractScore(raw)
	return score, analysis, nil
}

// GenerateQuestion asks the question app for free-text question material.
func (c *Client) GenerateQuestion(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("upstream.fastgpt").Start(ctx, "fastgpt.generate_question")
	defer span.End()

	reqBody := chatRequest{
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	raw, err := c.post(ctx, appQuestion, c.questionKey, reqBody)
	if err != nil {
		return "", err
	}
	content, ok := ExtractContent(raw)
	if !ok {
		return "", fmt.Errorf("op=upstream.generate_question: no content in response: %w", domain.ErrUpstream)
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, app, apiKey string, body chatRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("op=upstream.%s marshal: %w", app, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("op=upstream.%s request: %w", app, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.UpstreamRequestDuration.WithLabelValues(app).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(app, "network_error").Inc()
		return nil, fmt.Errorf("op=upstream.%s: %w: %w", app, domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(app, "read_error").Inc()
		return nil, fmt.Errorf("op=upstream.%s read body: %w: %w", app, domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.UpstreamRequestsTotal.WithLabelValues(app, "http_error").Inc()
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       snippet(raw, errBodySnippet),
		}
	}
	observability.UpstreamRequestsTotal.WithLabelValues(app, "success").Inc()
	return raw, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
