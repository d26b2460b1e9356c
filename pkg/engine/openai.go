package engine

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
)

type OpenAISettings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

// OpenAI completes through any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ Engine = (*OpenAI)(nil)

func NewOpenAI(s OpenAISettings) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, errors.New("no api key configured for the openai engine")
	}

	cfg := openai.DefaultConfig(s.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if s.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	}
	if s.HTTPClient != nil {
		cfg.HTTPClient = s.HTTPClient
	}

	model := s.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: s.Temperature,
	}, nil
}

func (e *OpenAI) Model() string {
	return e.model
}

func (e *OpenAI) Complete(ctx context.Context, msgs []history.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(msgs)),
		Temperature: e.temperature,
	}
	for _, m := range msgs {
		role, err := chatRole(m.Role)
		if err != nil {
			return "", err
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.WithStack(ErrEmptyCompletion)
	}

	log.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion done")

	return resp.Choices[0].Message.Content, nil
}

func chatRole(r history.Role) (string, error) {
	switch r {
	case history.RoleSystem:
		return openai.ChatMessageRoleSystem, nil
	case history.RoleHuman:
		return openai.ChatMessageRoleUser, nil
	case history.RoleAI:
		return openai.ChatMessageRoleAssistant, nil
	}
	return "", errors.Errorf("unknown message role %q", r)
}
