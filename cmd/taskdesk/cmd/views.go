package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskdesk/internal/views"
)

// newViewCmd creates the 'view' subcommand for saved filter states
func newViewCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	viewCmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"views"},
		Short:   "Manage saved views",
		Long:    "A view is a named search, status filter, user filter, sort and page size. Use it with 'tasks list --view NAME'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	viewCmd.AddCommand(newViewListCmd(stdout, cfg))
	viewCmd.AddCommand(newViewShowCmd(stdout, cfg))
	viewCmd.AddCommand(newViewSaveCmd(stdout, cfg))
	viewCmd.AddCommand(newViewDeleteCmd(stdout, cfg))

	return viewCmd
}

func newViewListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := views.NewLoader(getViewsDir(cfg)).ListViews()
			if err != nil {
				return err
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return writeJSON(stdout, viewsResponse{Views: infos, Result: ResultInfoOnly})
			}

			w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
			for _, info := range infos {
				source := "saved"
				if info.BuiltIn {
					source = "built-in"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, source, info.Description)
			}
			return w.Flush()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the filters of a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := views.NewLoader(getViewsDir(cfg)).LoadView(args[0])
			if err != nil {
				return err
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return writeJSON(stdout, v)
			}

			_, _ = fmt.Fprintf(stdout, "Name:      %s\n", v.Name)
			if v.Description != "" {
				_, _ = fmt.Fprintf(stdout, "About:     %s\n", v.Description)
			}
			_, _ = fmt.Fprintf(stdout, "Search:    %s\n", orNone(v.Search))
			_, _ = fmt.Fprintf(stdout, "Status:    %s\n", orAll(string(v.Status)))
			_, _ = fmt.Fprintf(stdout, "User:      %s\n", orAll(v.User))
			_, _ = fmt.Fprintf(stdout, "Sort:      %s\n", orNone(string(v.Sort)))
			if v.PageSize > 0 {
				_, _ = fmt.Fprintf(stdout, "Page size: %d\n", v.PageSize)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewSaveCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a view from filter flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			search, _ := flags.GetString("search")
			statusFlag, _ := flags.GetString("status")
			user, _ := flags.GetString("user")
			sortFlag, _ := flags.GetString("sort")
			pageSize, _ := flags.GetInt("page-size")
			description, _ := flags.GetString("description")

			status, err := views.ParseStatusFilter(statusFlag)
			if err != nil {
				return err
			}
			opt, err := views.ParseSortOption(sortFlag)
			if err != nil {
				return err
			}

			v := &views.View{
				Name:        args[0],
				Description: description,
				Search:      search,
				Status:      status,
				User:        user,
				Sort:        opt,
				PageSize:    pageSize,
			}
			if err := views.NewLoader(getViewsDir(cfg)).SaveView(v); err != nil {
				return err
			}

			if jsonOutput, _ := flags.GetBool("json"); jsonOutput {
				return writeJSON(stdout, v)
			}
			_, _ = fmt.Fprintf(stdout, "Saved view: %s\n", v.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("search", "s", "", "Title search")
	cmd.Flags().String("status", "", "Status filter (todo, incomplete, done)")
	cmd.Flags().StringP("user", "u", "", "Assigned user id")
	cmd.Flags().String("sort", "", "Sort by title or dueDate")
	cmd.Flags().Int("page-size", 0, "Tasks per page")
	cmd.Flags().StringP("description", "d", "", "What the view is for")
	return cmd
}

func newViewDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := views.NewLoader(getViewsDir(cfg)).DeleteView(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Deleted view: %s\n", args[0])
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
