package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ricardonunez-io/lograg/internal/retry"
	"github.com/rs/zerolog/log"
)

// messageClient is the subset of the Anthropic messages service in use.
type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicGenerator sends conversations to the Anthropic Messages API.
type AnthropicGenerator struct {
	messages messageClient
	cfg      Config
}

func NewAnthropicGenerator(cfg Config) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	// Retries are handled here so they share the pipeline's backoff policy.
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)

	log.Info().
		Str("model", cfg.Model).
		Int64("maxTokens", cfg.MaxTokens).
		Msg("Anthropic generator initialized")

	return &AnthropicGenerator{messages: &client.Messages, cfg: cfg}, nil
}

func (g *AnthropicGenerator) Complete(ctx context.Context, conv Conversation) (string, error) {
	params, err := g.params(conv)
	if err != nil {
		return "", err
	}

	var responseText string
	err = retry.Do(ctx, g.cfg.Retry, retry.IsTransient, func(ctx context.Context) error {
		message, err := g.messages.New(ctx, params)
		if err != nil {
			return fmt.Errorf("anthropic API error: %w", err)
		}

		if len(message.Content) == 0 {
			return errors.New("empty response from anthropic")
		}

		for _, block := range message.Content {
			if block.Type == "text" {
				responseText = block.Text
				return nil
			}
		}
		return errors.New("no text content in anthropic response")
	})
	if err != nil {
		return "", err
	}

	return responseText, nil
}

func (g *AnthropicGenerator) params(conv Conversation) (anthropic.MessageNewParams, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range conv.Turns() {
		switch m.Role {
		case RoleSystem:
			if m.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, errors.New("conversation has no user turn")
	}

	return anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: g.cfg.MaxTokens,
		System:    system,
		Messages:  messages,
	}, nil
}
