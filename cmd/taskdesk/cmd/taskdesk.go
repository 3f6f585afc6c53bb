package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taskdesk/backend"
	"taskdesk/backend/rest"
	"taskdesk/backend/sqlite"
	"taskdesk/internal/cache"
	"taskdesk/internal/config"
	"taskdesk/internal/gateway"
	"taskdesk/internal/session"
	"taskdesk/internal/shutdown"
	"taskdesk/internal/tasks"
	"taskdesk/internal/utils"
	"taskdesk/internal/views"
)

// Version is set at build time
var Version = "dev"

// Result codes for CLI output (used in JSON and no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds runtime overrides for a CLI invocation
type Config struct {
	NoPrompt    bool
	ConfigPath  string // Path to config file (defaults to the XDG location)
	DBPath      string // Path to database file (for testing)
	ViewsPath   string // Path to views directory (for testing)
	SessionPath string // Forces a file session store at this path (for testing)
	Stdin       io.Reader
	Context     context.Context
	Shutdown    *shutdown.Manager
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewTaskDesk(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewTaskDesk creates the root command with injectable IO
func NewTaskDesk(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "taskdesk",
		Short:   "A task management client",
		Long:    "taskdesk manages tasks on a task service from the command line or a terminal UI.",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
				cfg.NoPrompt = true
			}
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(newLoginCmd(stdout, cfg))
	cmd.AddCommand(newLogoutCmd(stdout, cfg))
	cmd.AddCommand(newWhoamiCmd(stdout, cfg))
	cmd.AddCommand(newUsersCmd(stdout, cfg))
	cmd.AddCommand(newTasksCmd(stdout, cfg))
	cmd.AddCommand(newViewCmd(stdout, cfg))
	cmd.AddCommand(newTUICmd(cfg))
	cmd.AddCommand(newConfigCmd(stdout, cfg))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// app bundles what a command needs after config is loaded.
type app struct {
	conf    *config.Config
	session *session.Store
	api     backend.TaskAPI
	cache   *cache.Collection
	ctrl    *tasks.Controller
	ctx     context.Context
	json    bool

	closeOnce sync.Once
	closeErr  error
}

// openApp loads config, applies flags, and opens the session and backend.
func openApp(cmd *cobra.Command, cfg *Config) (*app, error) {
	conf, err := loadConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	kv, err := openSessionStore(conf, cfg)
	if err != nil {
		return nil, err
	}

	api, err := openBackend(conf, cfg)
	if err != nil {
		return nil, err
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	c := cache.New()
	a := &app{
		conf:    conf,
		session: session.Open(kv),
		api:     api,
		cache:   c,
		ctrl:    tasks.New(api, c),
		ctx:     ctx,
		json:    conf.OutputFormat == "json",
	}
	if cfg.Shutdown != nil {
		cfg.Shutdown.RegisterCleanup("backend", func(context.Context) error { return a.Close() })
	}
	return a, nil
}

// Close releases the backend. Safe to call more than once.
func (a *app) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.api.Close()
	})
	return a.closeErr
}

func loadConfig(cmd *cobra.Command, cfg *Config) (*config.Config, error) {
	path := cfg.ConfigPath
	if flagPath, _ := cmd.Flags().GetString("config"); flagPath != "" {
		path = flagPath
	}

	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	conf.ApplyFlags(jsonOutput, verbose)

	if err := conf.Validate(); err != nil {
		return nil, utils.WrapWithSuggestion(err, "Fix the config file or run 'taskdesk config sample' for a reference")
	}

	utils.SetVerboseMode(conf.Logging.Verbose)
	return conf, nil
}

func openSessionStore(conf *config.Config, cfg *Config) (session.KeyValue, error) {
	if cfg.SessionPath != "" {
		return session.NewFileStore(cfg.SessionPath), nil
	}
	return session.NewKeyValue(conf.Session.Store, conf.Session.Path)
}

func openBackend(conf *config.Config, cfg *Config) (backend.TaskAPI, error) {
	switch conf.Backend {
	case "sqlite":
		path := conf.Backends.SQLite.Path
		if cfg.DBPath != "" {
			path = cfg.DBPath
		}
		db, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.SeedUsers(context.Background(), conf.Backends.SQLite.Users); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
		return db, nil
	default:
		gw, err := gateway.New(gateway.Config{BaseURL: conf.API.BaseURL, Timeout: conf.GetTimeout()})
		if err != nil {
			return nil, err
		}
		return rest.New(gw), nil
	}
}

func getViewsDir(cfg *Config) string {
	if cfg.ViewsPath != "" {
		return cfg.ViewsPath
	}
	return filepath.Join(config.GetConfigDir(), "views")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newRenderer returns a card renderer that resolves user names from the cache.
func (a *app) newRenderer(stdout io.Writer) *views.Renderer {
	r := views.NewRenderer(stdout, a.cache.UserName)
	r.Markdown = views.MarkdownStyle(isTerminal(stdout))
	return r
}
