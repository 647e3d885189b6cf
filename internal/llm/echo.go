package llm

import (
	"context"
	"strings"
)

// Echo is an offline provider that replies with the last user message. It
// streams the reply one word at a time.
type Echo struct{}

func (Echo) Complete(_ context.Context, messages []Message) (string, error) {
	return lastUser(messages), nil
}

func (Echo) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	reply := lastUser(messages)
	for _, word := range strings.SplitAfter(reply, " ") {
		if err := ctx.Err(); err != nil {
			return err
		}
		if word == "" {
			continue
		}
		if err := onDelta(word); err != nil {
			return err
		}
	}
	return nil
}

func lastUser(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
