package provider

import (
	"context"
	"errors"
	"os"
	"time"

	anthropic_provider "github.com/autofyn/linkedgen/provider/anthropic"
	"github.com/autofyn/linkedgen/provider/models"
)

// Client represents different LLM providers
type Client string

const (
	Anthropic Client = "anthropic"
	OpenAI    Client = "openai"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	CreateMessage(ctx context.Context, req models.Request) (*models.Response, error)
	Model() string
}

// Options carries the connection settings a client needs. Zero values fall
// back to provider defaults; an empty APIKey falls back to the provider's
// conventional environment variable.
type Options struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case Anthropic:
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not set")
		}
		model := opts.Model
		if model == "" {
			model = "claude-sonnet-4-6"
		}
		maxTokens := opts.MaxTokens
		if maxTokens == 0 {
			maxTokens = 4096
		}
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		return anthropic_provider.NewAnthropicClient(
			apiKey,
			model,
			opts.Temperature,
			maxTokens,
			timeout,
		), nil
	case OpenAI:
		return nil, errors.New("openai client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
