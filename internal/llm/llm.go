package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/joestump/joe-writer/internal/config"
)

// ErrUnsupportedProvider is returned by New for an unknown provider name.
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider is an upstream inference service.
type Provider interface {
	// Complete returns the full reply to messages.
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream calls onDelta with each fragment of the reply as it arrives. An
	// error returned by onDelta stops the stream and is returned.
	Stream(ctx context.Context, messages []Message, onDelta func(string) error) error
}

// New creates a Provider based on the config. Returns nil when the provider
// is unset, meaning generation is disabled.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.LLM.Provider {
	case "":
		return nil, nil
	case "openai", "openai-compatible", "groq":
		return newOpenAIProvider(cfg), nil
	case "anthropic":
		return newAnthropicProvider(cfg), nil
	case "eino":
		return newEinoProvider(cfg)
	case "echo":
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.LLM.Provider)
	}
}

// splitSystem separates leading system messages from the conversation for
// providers that take the system prompt out of band.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
