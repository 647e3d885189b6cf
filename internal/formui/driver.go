// Package formui collects template form values in a terminal.
package formui

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("formui: aborted")

// Prompt configures a single question.
type Prompt struct {
	Message  string
	Help     string
	Default  string
	Required bool
}

// Driver asks questions. The survey implementation talks to the terminal;
// tests substitute a scripted one.
type Driver interface {
	Input(ctx context.Context, p Prompt) (string, error)
	TextArea(ctx context.Context, p Prompt) (string, error)
	Select(ctx context.Context, p Prompt, options []string) (string, error)
}

type surveyDriver struct{}

// Survey returns a Driver backed by the terminal.
func Survey() Driver { return surveyDriver{} }

func askOpts(p Prompt) []survey.AskOpt {
	if p.Required {
		return []survey.AskOpt{survey.WithValidator(survey.Required)}
	}
	return nil
}

func (surveyDriver) Input(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	q := &survey.Input{Message: p.Message, Help: p.Help, Default: p.Default}
	if err := survey.AskOne(q, &out, askOpts(p)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) TextArea(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	q := &survey.Multiline{Message: p.Message, Help: p.Help, Default: p.Default}
	if err := survey.AskOne(q, &out, askOpts(p)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Select(ctx context.Context, p Prompt, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	q := &survey.Select{Message: p.Message, Help: p.Help, Options: options}
	for _, o := range options {
		if o == p.Default {
			q.Default = o
			break
		}
	}
	if err := survey.AskOne(q, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
