package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/config"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/tui"
)

func newChatCmd() *cobra.Command {
	var (
		system  string
		message string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			ctx := cmd.Context()

			sc := client.NewStreamConsumer(cfg.Backend.URL, client.WithTimeout(cfg.Chat.Timeout))
			defer sc.Close()
			if system == "" {
				system = cfg.Chat.SystemPrompt
			}
			sc.SetSystemPrompt(system)

			if message != "" {
				updates, err := sc.Send(ctx, message)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for u := range updates {
					fmt.Fprint(out, u.Delta)
					if u.Done && u.Err != nil {
						fmt.Fprintln(out)
						return u.Err
					}
				}
				fmt.Fprintln(out)
				return nil
			}

			_, err = tea.NewProgram(tui.New(ctx, sc), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system instruction (default from config)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message, print the streamed reply and exit")
	return cmd
}
