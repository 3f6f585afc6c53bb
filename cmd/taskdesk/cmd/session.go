package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskdesk/internal/cli/prompt"
	"taskdesk/internal/config"
	"taskdesk/internal/session"
	"taskdesk/internal/tui"
)

// newLoginCmd creates the 'login' subcommand
func newLoginCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the task service",
		Long:  "Authenticate against the task service and store the session for later commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			if password == "" {
				if cfg.NoPrompt {
					return fmt.Errorf("%w: --password is required", prompt.ErrNoPromptMode)
				}
				username, password, err = prompt.Credentials(stdinOf(cfg), stdout, username)
				if err != nil {
					return err
				}
			}

			var warning string
			if err := a.session.Authenticate(a.ctx, a.api, username, password); err != nil {
				var callErr *session.AuthCallError
				if !errors.As(err, &callErr) {
					return err
				}
				warning = callErr.Error()
			}

			if a.json {
				return writeJSON(stdout, sessionResponse{
					Username: a.session.Username(),
					Initials: a.session.Initials(),
					LoggedIn: true,
					Warning:  warning,
					Result:   ResultActionCompleted,
				})
			}
			if warning != "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", warning)
			}
			_, _ = fmt.Fprintf(stdout, "Logged in as %s\n", a.session.DisplayName())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("password", "p", "", "Password (prompted without echo when omitted)")
	return cmd
}

// newLogoutCmd creates the 'logout' subcommand
func newLogoutCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.session.Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			if a.json {
				return writeJSON(stdout, sessionResponse{Result: ResultActionCompleted})
			}
			_, _ = fmt.Fprintln(stdout, "Logged out")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newWhoamiCmd creates the 'whoami' subcommand
func newWhoamiCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.session.Require(); err != nil {
				return err
			}

			if a.json {
				return writeJSON(stdout, sessionResponse{
					Username: a.session.Username(),
					Initials: a.session.Initials(),
					LoggedIn: true,
					Result:   ResultInfoOnly,
				})
			}
			_, _ = fmt.Fprintf(stdout, "%s (%s)\n", a.session.DisplayName(), a.session.Initials())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newUsersCmd creates the 'users' subcommand
func newUsersCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users tasks can be assigned to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.session.Require(); err != nil {
				return err
			}

			users, err := a.api.GetUsers(a.ctx)
			if err != nil {
				return err
			}

			if a.json {
				return writeJSON(stdout, usersResponse{Users: users, Count: len(users), Result: ResultInfoOnly})
			}
			if len(users) == 0 {
				_, _ = fmt.Fprintln(stdout, "No users available")
				return nil
			}
			w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", u.ID, u.Name)
			}
			return w.Flush()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newTUICmd creates the 'tui' subcommand
func newTUICmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal user interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return tui.Run(tui.Options{
				Context:        a.ctx,
				Session:        a.session,
				API:            a.api,
				Controller:     a.ctrl,
				PageSize:       a.conf.UI.PageSize,
				SearchDebounce: a.conf.GetSearchDebounce(),
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.ConfigPath
			if flagPath, _ := cmd.Flags().GetString("config"); flagPath != "" {
				path = flagPath
			}
			if path == "" {
				path = config.DefaultPath()
			}
			_, _ = fmt.Fprintln(stdout, path)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "sample",
		Short: "Print the sample configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprint(stdout, config.GetSampleConfig())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Config OK (backend: %s)\n", conf.Backend)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return configCmd
}

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(stdout, "taskdesk %s\n", Version)
		},
	}
}

func stdinOf(cfg *Config) io.Reader {
	if cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}
