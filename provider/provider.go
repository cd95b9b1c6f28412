package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/researcher/config"
	openai_provider "github.com/mohammad-safakhou/researcher/provider/openai"
)

// Client represents the supported LLM providers
type Client string

const (
	Groq   Client = config.ProviderGroq
	OpenAI Client = config.ProviderOpenAI
	None   Client = config.ProviderNone
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ErrUnavailable is returned by New when no provider is configured or the
// selected one has no credentials.
var ErrUnavailable = errors.New("language model unavailable")

// ChatModel is the single capability the agents need from a language model.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// New creates a ChatModel for the configured provider.
func New(cfg config.LLMConfig) (ChatModel, error) {
	cfg = cfg.Normalize()
	if !cfg.Available() {
		return nil, ErrUnavailable
	}
	opts := openai_provider.Options{
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		MaxRetries:  cfg.MaxRetries,
		Timeout:     cfg.Timeout,
	}
	switch Client(cfg.Provider) {
	case Groq:
		if opts.BaseURL == "" {
			opts.BaseURL = GroqBaseURL
		}
	case OpenAI:
	default:
		return nil, ErrUnavailable
	}
	return openai_provider.NewClient(opts), nil
}
