package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"notegraph/application/gestures"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/infrastructure/di"
	"notegraph/interfaces/cli/ui"
)

func graphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show notes, connections and clouds",
		Args:  cobra.NoArgs,
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, _ []string) error {
			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			snapshot := c.Store.Snapshot()
			stats := snapshot.Stats()

			fmt.Fprintf(out, "%s %s\n", ui.Brand.Sprint("notegraph"), ui.Subtle.Sprint(c.Remote.BaseURL()))
			fmt.Fprintf(out, "  %d notes · %d connections · %d clouds · %d components · density %.2f\n\n",
				stats.NodeCount, stats.EdgeCount, stats.CloudCount, stats.ComponentCount, stats.Density)

			ui.Table(out, []string{"ID", "TITLE", "CLOUD", "SIZE", "POSITION"}, noteRows(snapshot))
			if len(snapshot.Connections) > 0 {
				fmt.Fprintln(out)
				ui.Table(out, []string{"ID", "SOURCE", "TARGET", "KIND"}, connectionRows(snapshot))
			}
			return nil
		}),
	}
}

func noteRows(snapshot *aggregates.Snapshot) [][]string {
	names := cloudNames(snapshot.Groups)
	rows := make([][]string, 0, len(snapshot.Entities))
	for _, e := range snapshot.Entities {
		rows = append(rows, []string{
			e.ID.String(),
			e.Title,
			cloudLabel(e.GroupID, names),
			strconv.Itoa(e.Size),
			e.Position.String(),
		})
	}
	return rows
}

func connectionRows(snapshot *aggregates.Snapshot) [][]string {
	titles := make(map[valueobjects.EntityID]string, len(snapshot.Entities))
	for _, e := range snapshot.Entities {
		titles[e.ID] = e.Title
	}
	rows := make([][]string, 0, len(snapshot.Connections))
	for _, conn := range snapshot.Connections {
		rows = append(rows, []string{
			conn.ID.String(),
			noteLabel(conn.SourceID, titles),
			noteLabel(conn.TargetID, titles),
			string(conn.Kind),
		})
	}
	return rows
}

func noteLabel(id valueobjects.EntityID, titles map[valueobjects.EntityID]string) string {
	if title, ok := titles[id]; ok {
		return fmt.Sprintf("#%s %s", id, title)
	}
	return "#" + id.String()
}

func cloudNames(groups []entities.Group) map[valueobjects.GroupID]string {
	names := make(map[valueobjects.GroupID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names
}

func cloudLabel(ref valueobjects.GroupRef, names map[valueobjects.GroupID]string) string {
	id, ok := ref.ID()
	if !ok {
		return "-"
	}
	if name, ok := names[id]; ok {
		return name
	}
	return "#" + id.String()
}

func cloudCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cloud",
		Aliases: []string{"clouds"},
		Short:   "Manage clouds (note groups)",
	}
	cmd.AddCommand(cloudAddCmd(a), cloudRmCmd(a), cloudListCmd(a))
	return cmd
}

func cloudAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a cloud",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if err := c.Controller.Dispatch(ctx, gestures.GroupCreated{Name: name}); err != nil {
				return err
			}
			for _, g := range c.Store.Groups() {
				if g.Name == name {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s Created cloud #%s %s\n", ui.StatusIcon(true), g.ID, g.Name)
				}
			}
			return nil
		}),
	}
}

func cloudRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a cloud; its notes become ungrouped",
		Args:    cobra.ExactArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			id, err := parseGroupID(args[0])
			if err != nil {
				return err
			}
			if err := c.Controller.Dispatch(ctx, gestures.GroupDeleted{ID: id}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted cloud #%s\n", ui.StatusIcon(true), id)
			return nil
		}),
	}
}

func cloudListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clouds with their note counts",
		Args:    cobra.NoArgs,
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, _ []string) error {
			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			members := make(map[valueobjects.GroupID]int)
			for _, e := range c.Store.Entities() {
				if id, ok := e.GroupID.ID(); ok {
					members[id]++
				}
			}

			groups := c.Store.Groups()
			if len(groups) == 0 {
				ui.Subtle.Fprintln(cmd.OutOrStdout(), "  No clouds")
				return nil
			}
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{g.ID.String(), g.Name, strconv.Itoa(members[g.ID])})
			}
			ui.Table(cmd.OutOrStdout(), []string{"ID", "NAME", "NOTES"}, rows)
			return nil
		}),
	}
}
