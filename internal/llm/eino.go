package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/joestump/joe-writer/internal/config"
)

// einoProvider drives an Eino chat model.
type einoProvider struct {
	model model.BaseChatModel
}

func newEinoProvider(cfg *config.Config) (*einoProvider, error) {
	baseURL := cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = defaultOpenAIModel
	}

	mc := &einoopenai.ChatModelConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: baseURL,
		Model:   modelName,
		Timeout: cfg.LLM.Timeout,
	}
	if cfg.LLM.MaxTokens > 0 {
		maxTokens := cfg.LLM.MaxTokens
		mc.MaxTokens = &maxTokens
	}

	cm, err := einoopenai.NewChatModel(context.Background(), mc)
	if err != nil {
		return nil, fmt.Errorf("create eino chat model: %w", err)
	}
	return &einoProvider{model: cm}, nil
}

func toSchema(messages []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

func (e *einoProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	msg, err := e.model.Generate(ctx, toSchema(messages))
	if err != nil {
		return "", fmt.Errorf("eino generate: %w", err)
	}
	return msg.Content, nil
}

func (e *einoProvider) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	reader, err := e.model.Stream(ctx, toSchema(messages))
	if err != nil {
		return fmt.Errorf("eino stream: %w", err)
	}
	defer reader.Close()

	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("eino stream recv: %w", err)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		if err := onDelta(chunk.Content); err != nil {
			return err
		}
	}
}
