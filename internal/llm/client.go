package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"taste-test/internal/domain"
)

// Recommender obtiene recomendaciones a partir del transcript.
type Recommender interface {
	Recommend(ctx context.Context, entries []domain.ChatEntry, extra string) (string, error)
}

var (
	ErrEmptyResponse = errors.New("llm empty response")
	ErrHTTPStatus    = errors.New("llm http error")
)

// HTTPClient implementa Recommender contra una API OpenAI-compatible.
type HTTPClient struct {
	model  string
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPClient construye un cliente apuntando a {baseURL}/chat/completions.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &HTTPClient{
		model:  model,
		client: client,
		logger: logger,
	}
}

func (c *HTTPClient) Recommend(ctx context.Context, entries []domain.ChatEntry, extra string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: BuildMessages(entries, extra),
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if !res.IsSuccess() {
		c.logger.Warn("llm error status",
			zap.Int("status", res.StatusCode()),
			zap.String("body", res.String()),
		)
		return "", fmt.Errorf("%w: status=%d", ErrHTTPStatus, res.StatusCode())
	}

	var cr chatResponse
	if err := json.Unmarshal(res.Body(), &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if cr.Error != nil {
		return "", fmt.Errorf("llm api error: %s", cr.Error.Message)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return cr.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model    string                     `json:"model"`
	Messages []domain.CompletionMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message domain.CompletionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
