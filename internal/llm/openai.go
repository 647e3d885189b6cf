package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/joestump/joe-writer/internal/config"
)

const (
	defaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	defaultOpenAIModel   = "gemma2-9b-it"
)

// openaiProvider talks to any OpenAI-compatible chat completions endpoint.
type openaiProvider struct {
	client    openai.Client
	model     string
	maxTokens int
}

func newOpenAIProvider(cfg *config.Config) *openaiProvider {
	model := cfg.LLM.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if cfg.LLM.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLM.Timeout))
	}

	return &openaiProvider{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: cfg.LLM.MaxTokens,
	}
}

func (o *openaiProvider) params(messages []Message) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	if o.maxTokens > 0 {
		p.MaxTokens = openai.Int(int64(o.maxTokens))
	}
	return p
}

func (o *openaiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(messages))
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *openaiProvider) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(messages))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	return nil
}
