package openai_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mcdev12/roomsync/go/clients"
)

type OpenAIClient struct {
	*clients.BaseClient
	model string
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := &OpenAIClient{
		BaseClient: clients.NewBaseClient(BaseURL),
		model:      DefaultModel,
	}

	client.SetHeader(AuthorizationHeader, "Bearer "+apiKey)
	client.SetHeader(ContentTypeHeader, ContentTypeJSON)

	return client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user prompt pair and returns the first choice's
// content, trimmed.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   10,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	body, err := c.MakeRequest(ctx, http.MethodPost, ChatCompletionsEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to request completion: %w", err)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal completion response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
