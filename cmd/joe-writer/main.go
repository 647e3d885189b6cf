package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joestump/joe-writer/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "joe-writer",
		Short:        "Template-driven writing assistant",
		Long:         "joe-writer fills use-case templates, sends them to a language model and lets you edit and copy the result.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
