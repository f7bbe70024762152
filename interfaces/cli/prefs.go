package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"notegraph/infrastructure/prefs"
	"notegraph/interfaces/cli/ui"
)

func prefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Local preferences (never sent to the server)",
	}
	cmd.AddCommand(prefsThemeCmd(a), prefsAPIKeyCmd(a))
	return cmd
}

func prefsThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.prefs()
			p, err := store.Load()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				switch theme := prefs.Theme(args[0]); {
				case args[0] == "toggle":
					p.Theme = p.Theme.Toggled()
				case theme.Valid():
					p.Theme = theme
				default:
					return fmt.Errorf("unknown theme %q", args[0])
				}
				if err := store.Save(p); err != nil {
					return err
				}
				ui.ApplyTheme(p.Theme)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  theme: %s\n", ui.Brand.Sprint(p.Theme))
			return nil
		},
	}
}

func prefsAPIKeyCmd(a *app) *cobra.Command {
	var clearKey bool

	cmd := &cobra.Command{
		Use:   "apikey [key]",
		Short: "Show, store or clear the API credential",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.prefs()
			out := cmd.OutOrStdout()

			switch {
			case clearKey:
				if err := store.SetAPIKey(""); err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s API key cleared\n", ui.StatusIcon(true))
				return nil
			case len(args) == 1:
				if err := store.SetAPIKey(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s API key stored in %s\n", ui.StatusIcon(true), store.Path())
				return nil
			}

			p, err := store.Load()
			if err != nil {
				return err
			}
			if p.APIKey == "" {
				ui.Subtle.Fprintln(out, "  No API key set")
				return nil
			}
			fmt.Fprintf(out, "  api key: %s\n", p.MaskedAPIKey())
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearKey, "clear", false, "Remove the stored key")
	return cmd
}
