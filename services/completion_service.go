package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CompletionService is the opaque text-completion backend. Every failure
// is reported as an error wrapping ErrCompletionUnavailable.
type CompletionService interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream calls onChunk for every fragment as it arrives and returns the
	// text delivered so far, also when it fails part way through.
	Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error)
}

// OllamaCompletion talks to an Ollama server's /api/generate.
type OllamaCompletion struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

func NewOllamaCompletion(baseURL, model string, logger *zap.Logger) (*OllamaCompletion, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama url %q", baseURL)
	}
	return &OllamaCompletion{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
		logger: logger,
	}, nil
}

func (s *OllamaCompletion) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var out strings.Builder

	req := &api.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: &stream,
	}
	err := s.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		s.logger.Warn("Ollama generate failed", zap.String("model", s.model), zap.Error(err))
		return "", errors.Wrap(ErrCompletionUnavailable, err.Error())
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.Wrap(ErrCompletionUnavailable, "empty response")
	}
	return text, nil
}

func (s *OllamaCompletion) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	var full strings.Builder

	req := &api.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
	}
	err := s.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		if resp.Response != "" {
			full.WriteString(resp.Response)
			onChunk(resp.Response)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Ollama stream failed",
			zap.String("model", s.model),
			zap.Int("received", full.Len()),
			zap.Error(err))
		return full.String(), errors.Wrap(ErrCompletionUnavailable, err.Error())
	}
	if full.Len() == 0 {
		return "", errors.Wrap(ErrCompletionUnavailable, "empty response")
	}
	return full.String(), nil
}
