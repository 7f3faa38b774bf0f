package services

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAICompletion calls an OpenAI-compatible chat completion endpoint.
type OpenAICompletion struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAICompletion(apiKey, baseURL, model string, logger *zap.Logger) *OpenAICompletion {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompletion{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (c *OpenAICompletion) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		Stream:      stream,
	}
}

func (c *OpenAICompletion) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt, false))
	if err != nil {
		c.logger.Warn("OpenAI completion failed", zap.String("model", c.model), zap.Error(err))
		return "", errors.Wrap(ErrCompletionUnavailable, err.Error())
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.Wrap(ErrCompletionUnavailable, "empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAICompletion) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(prompt, true))
	if err != nil {
		c.logger.Warn("OpenAI stream failed", zap.String("model", c.model), zap.Error(err))
		return "", errors.Wrap(ErrCompletionUnavailable, err.Error())
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.logger.Warn("OpenAI stream interrupted", zap.Int("received", full.Len()), zap.Error(err))
			return full.String(), errors.Wrap(ErrCompletionUnavailable, err.Error())
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if chunk := resp.Choices[0].Delta.Content; chunk != "" {
			full.WriteString(chunk)
			onChunk(chunk)
		}
	}
	if full.Len() == 0 {
		return "", errors.Wrap(ErrCompletionUnavailable, "empty response")
	}
	return full.String(), nil
}
