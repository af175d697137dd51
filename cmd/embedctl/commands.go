package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/config"
)

// NewAddCommand creates the add command
func NewAddCommand(factory ServiceFactory) *cobra.Command {
	var kind, title, description string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Fetch metadata for a URL and store a new embed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd)
			if err != nil {
				return err
			}

			sess := svc.NewSession(&simpleembed.EmbedRecord{
				Kind:        kind,
				SourceURL:   args[0],
				Title:       title,
				Description: description,
			})
			result, err := svc.Save(cmd.Context(), sess)
			if err != nil {
				return err
			}
			if result.AssetErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: image was not cached: %v\n", result.AssetErr)
			}
			return printJSON(cmd.OutOrStdout(), sess.Record)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "record kind (Embed, Video, ...)")
	cmd.Flags().StringVar(&title, "title", "", "title used when the provider supplies none")
	cmd.Flags().StringVar(&description, "description", "", "description used when the provider supplies none")
	return cmd
}

// NewShowCommand creates the show command
func NewShowCommand(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored embed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid embed id: %w", err)
			}
			svc, err := factory(cmd)
			if err != nil {
				return err
			}
			rec, err := svc.GetEmbed(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

// NewRenderCommand creates the render command
func NewRenderCommand(factory ServiceFactory) *cobra.Command {
	var template string
	var classes []string

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Print the display markup of a stored embed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid embed id: %w", err)
			}
			svc, err := factory(cmd)
			if err != nil {
				return err
			}
			sess, err := svc.LoadSession(cmd.Context(), id)
			if err != nil {
				return err
			}
			sess.SetTemplate(template)
			for _, class := range classes {
				sess.AddClass(class)
			}
			out, err := svc.Render(cmd.Context(), sess)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "template base name")
	cmd.Flags().StringSliceVar(&classes, "class", nil, "CSS classes to add (repeatable)")
	return cmd
}

// NewListCommand creates the list command
func NewListCommand(factory ServiceFactory) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored embeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd)
			if err != nil {
				return err
			}
			recs, err := svc.ListEmbeds(cmd.Context(), kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTITLE\tSOURCE URL")
			for _, rec := range recs {
				s := rec.Summary()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Type, s.Title, s.SourceURL)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list this record kind")
	return cmd
}

// NewValidateCommand creates the validate command
func NewValidateCommand(factory ServiceFactory) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate <url>",
		Short: "Check a URL against the allowed embed types without saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd)
			if err != nil {
				return err
			}
			sess := svc.NewSession(&simpleembed.EmbedRecord{Kind: kind, SourceURL: args[0]})
			result, err := svc.Validate(cmd.Context(), sess)
			if err != nil {
				return err
			}
			if err := result.Err(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "record kind whose allow-list applies")
	return cmd
}

// NewEnvCommand prints the supported environment variables
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.EnvUsage())
			return nil
		},
	}
}
