package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the part of the OpenAI client used for chat completions
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatProvider answers with a single chat completion
type ChatProvider struct {
	client      ChatClient
	model       string
	temperature float32
	maxTokens   int
}

// NewChatProvider creates a chat completion provider
func NewChatProvider(client ChatClient, model string, temperature float32, maxTokens int) *ChatProvider {
	return &ChatProvider{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *ChatProvider) Name() string { return "chat" }

// Generate sends the prompt and returns the first choice's content
func (p *ChatProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if p.client == nil || p.model == "" {
		return "", ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
