package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/clipboard"
	"github.com/joestump/joe-writer/internal/config"
	"github.com/joestump/joe-writer/internal/form"
	"github.com/joestump/joe-writer/internal/formui"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/prompt"
	"github.com/joestump/joe-writer/internal/result"
	"github.com/joestump/joe-writer/internal/tui"
)

// parseSets turns repeated name=value flags into form entries, keeping the
// last value for a repeated name.
func parseSets(sets []string) (form.Data, error) {
	var st form.State
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return form.Data{}, fmt.Errorf("invalid --set %q: want name=value", s)
		}
		st.Set(name, value)
	}
	return st.Snapshot(), nil
}

func newGenerateCmd() *cobra.Command {
	var (
		title    string
		sets     []string
		language string
		tone     string
		copyOut  bool
		raw      bool
		noInput  bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fill a template and generate content",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			ctx := cmd.Context()

			preset, err := parseSets(sets)
			if err != nil {
				return err
			}

			cat, err := client.FetchTemplates(ctx, cfg.Backend.URL, "")
			if err != nil {
				return fmt.Errorf("load templates from %s: %w", cfg.Backend.URL, err)
			}

			driver := formui.Survey()
			var tmpl catalog.UseCaseTemplate
			switch {
			case title != "":
				t, ok := cat.Find(title)
				if !ok {
					return fmt.Errorf("unknown template %q", title)
				}
				tmpl = t
			case noInput:
				return fmt.Errorf("--template is required with --no-input")
			default:
				if tmpl, err = formui.ChooseTemplate(ctx, driver, cat); err != nil {
					return err
				}
			}

			data := preset
			if !noInput {
				if data, err = formui.Fill(ctx, driver, tmpl, preset); err != nil {
					return err
				}
				if !cmd.Flags().Changed("language") && !cmd.Flags().Changed("tone") {
					if language, tone, err = formui.Settings(ctx, driver, language, tone); err != nil {
						return err
					}
				}
			}
			for _, name := range form.MissingRequired(tmpl.Fields, data) {
				logger.Warn(ctx, "required field is empty", "field", name)
			}

			req := client.GenerationRequest{
				Message:  prompt.Interpolate(tmpl.Prompt, data),
				Language: language,
				Tone:     tone,
			}
			content, err := generateOnce(ctx, client.NewGenerationClient(cfg.Backend.URL, client.WithTimeout(cfg.Generate.Timeout)), req)
			if err != nil {
				return err
			}

			var res result.Store
			res.Replace(content)

			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, res.Read())
			} else {
				fmt.Fprint(out, tui.RenderMarkdown(res.Read(), 100))
			}

			if copyOut {
				if err := res.Copy(clipboard.System{}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "template", "t", "", "template title")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value (repeatable)")
	cmd.Flags().StringVar(&language, "language", "", "output language (default English)")
	cmd.Flags().StringVar(&tone, "tone", "", "output tone (default Convincing)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the result to the clipboard")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the result without markdown rendering")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "never prompt; use --template and --set only")
	return cmd
}

// generateOnce runs a single generation through the client lifecycle and
// waits for its outcome.
func generateOnce(ctx context.Context, gc *client.GenerationClient, req client.GenerationRequest) (string, error) {
	done := make(chan client.Outcome, 1)
	gc.Generate(ctx, req, func(o client.Outcome) { done <- o })

	select {
	case o := <-done:
		if o.Err != nil {
			return "", fmt.Errorf("failed to generate content: %w", o.Err)
		}
		return o.Result.Content, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
