package llm

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed generate.tmpl
var defaultInstructionTemplate string

const (
	DefaultLanguage = "English"
	DefaultTone     = "Convincing"
)

// Languages and Tones are the choices offered to users. Other values are
// passed through unchanged.
var (
	Languages = []string{"English", "Spanish", "Hindi", "French", "German", "Italian", "Portuguese", "Dutch", "Russian", "Chinese"}
	Tones     = []string{"Convincing", "Professional", "Friendly"}
)

// InstructionData holds the variables available in the instruction template.
type InstructionData struct {
	Language string
	Tone     string
}

// renderInstruction executes the instruction template with the given data.
// If customTemplate is non-empty it is used instead of the embedded default.
func renderInstruction(customTemplate string, data InstructionData) (string, error) {
	src := defaultInstructionTemplate
	if customTemplate != "" {
		src = customTemplate
	}

	tmpl, err := template.New("instruction").Parse(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateRequest is a single-shot generation.
type GenerateRequest struct {
	Message  string
	Language string
	Tone     string
}

// Writer turns generation and chat requests into provider calls.
type Writer struct {
	provider     Provider
	promptCustom string
	systemPrompt string
}

// NewWriter wraps p. customPrompt overrides the generation instruction
// template; systemPrompt is the chat instruction used when a request has none.
func NewWriter(p Provider, customPrompt, systemPrompt string) *Writer {
	return &Writer{provider: p, promptCustom: customPrompt, systemPrompt: systemPrompt}
}

// Generate renders the instruction for req's language and tone and returns
// the provider's reply to req.Message.
func (w *Writer) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	data := InstructionData{Language: req.Language, Tone: req.Tone}
	if data.Language == "" {
		data.Language = DefaultLanguage
	}
	if data.Tone == "" {
		data.Tone = DefaultTone
	}
	instruction, err := renderInstruction(w.promptCustom, data)
	if err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}

	return w.provider.Complete(ctx, []Message{
		{Role: RoleSystem, Content: instruction},
		{Role: RoleUser, Content: req.Message},
	})
}

// Chat streams the reply to a conversation. An empty system uses the
// configured default.
func (w *Writer) Chat(ctx context.Context, messages []Message, system string, onDelta func(string) error) error {
	if system == "" {
		system = w.systemPrompt
	}
	msgs := make([]Message, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, messages...)
	return w.provider.Stream(ctx, msgs, onDelta)
}
