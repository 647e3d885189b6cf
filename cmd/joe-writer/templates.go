package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/config"
	"github.com/joestump/joe-writer/internal/prompt"
	"github.com/joestump/joe-writer/internal/store"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and manage the template catalog",
	}
	cmd.AddCommand(newTemplatesListCmd(), newTemplatesImportCmd(), newTemplatesExportCmd())
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	var (
		search  string
		verbose bool
		remote  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var cat *catalog.Catalog
			if remote {
				cat, err = client.FetchTemplates(cmd.Context(), cfg.Backend.URL, "")
			} else {
				database, derr := openDB(cfg)
				if derr != nil {
					return derr
				}
				if database != nil {
					defer func() { _ = database.Close() }()
				}
				cat, err = loadCatalog(cmd.Context(), cfg, database)
			}
			if err != nil {
				return err
			}

			printTemplates(cmd.OutOrStdout(), cat.Search(search), verbose)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy filter on title and prompt")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show prompts and fields")
	cmd.Flags().BoolVar(&remote, "remote", false, "list the templates served by the backend")
	return cmd
}

func printTemplates(w io.Writer, templates []catalog.UseCaseTemplate, verbose bool) {
	if !verbose {
		for _, t := range templates {
			fmt.Fprintln(w, t.Title)
		}
		return
	}

	for i, t := range templates {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n  %s\n", t.Title, t.Prompt)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range t.Fields {
			req := ""
			if f.Required {
				req = "required"
			}
			kind := string(f.Control.Kind())
			if opts := f.Options(); len(opts) > 0 {
				kind += " [" + strings.Join(opts, ", ") + "]"
			}
			fmt.Fprintf(tw, "  {%s}\t%s\t%s\t%s\n", f.Name, f.Label, kind, req)
		}
		tw.Flush()

		// Placeholders with no matching field are sent to the model verbatim.
		for _, name := range prompt.Placeholders(t.Prompt) {
			if _, ok := t.Field(name); !ok {
				fmt.Fprintf(w, "  warning: {%s} has no field\n", name)
			}
		}
	}
}

func newTemplatesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the stored catalog with a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DB.Driver == "" {
				return errors.New("no database configured: set WRITER_DB_DRIVER and WRITER_DB_DSN")
			}

			cat, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := store.NewTemplateStore(database).ReplaceAll(cmd.Context(), cat.All()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d templates\n", cat.Len())
			return nil
		},
	}
}

func newTemplatesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			if database != nil {
				defer func() { _ = database.Close() }()
			}
			cat, err := loadCatalog(cmd.Context(), cfg, database)
			if err != nil {
				return err
			}
			return catalog.Marshal(cmd.OutOrStdout(), cat.All())
		},
	}
}
