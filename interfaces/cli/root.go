// Package cli implements the notegraph command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"notegraph/domain/core/valueobjects"
	"notegraph/infrastructure/config"
	"notegraph/infrastructure/di"
	"notegraph/infrastructure/prefs"
	"notegraph/interfaces/cli/ui"
)

var version = "0.4.0"

// app carries the global flags and the lazily built container
type app struct {
	apiURL     string
	mode       string
	configPath string
	prefsPath  string

	notifier *ui.Notifier
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notegraph",
		Short:         "notegraph: a note graph client",
		Long:          "Browse, edit and lay out the notes of a notegraph server from the terminal.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.notifier == nil {
				a.notifier = ui.NewNotifier(cmd.ErrOrStderr())
			}
			if p, err := a.prefs().Load(); err == nil {
				ui.ApplyTheme(p.Theme)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", "", "Graph service base URL (overrides config)")
	flags.StringVar(&a.mode, "mode", "", "Render mode: 2d or 3d (overrides config)")
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.prefsPath, "prefs", "", "Preferences file")
	_ = flags.MarkHidden("prefs")

	rootCmd.AddCommand(
		graphCmd(a),
		noteCmd(a),
		connectCmd(a),
		disconnectCmd(a),
		cloudCmd(a),
		layoutCmd(a),
		viewCmd(a),
		prefsCmd(a),
	)
	return rootCmd
}

// Execute runs the command line. Errors the controller already alerted on
// are not printed twice.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{notifier: ui.NewNotifier(stderr)}
	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && a.notifier.Errors() == 0 {
		fmt.Fprintf(stderr, "  %s %s\n", ui.StatusIcon(false), ui.Bad.Sprint(err))
	}
	return err
}

func (a *app) prefs() *prefs.Store {
	return prefs.NewStore(a.prefsPath)
}

// loadConfig resolves file and environment configuration plus flag overrides
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.mode != "" {
		cfg.Mode = a.mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withContainer wires the client for one command and tears it down after
func (a *app) withContainer(fn func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}

		container, cleanup, err := di.InitializeContainer(cmd.Context(), cfg, a.notifier)
		if err != nil {
			return err
		}
		defer cleanup()

		return fn(cmd.Context(), cmd, container, args)
	}
}

func parseEntityID(s string) (valueobjects.EntityID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return valueobjects.EntityID(id), nil
}

func parseConnectionID(s string) (valueobjects.ConnectionID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid connection id %q", s)
	}
	return valueobjects.ConnectionID(id), nil
}

func parseGroupID(s string) (valueobjects.GroupID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid cloud id %q", s)
	}
	return valueobjects.GroupID(id), nil
}
