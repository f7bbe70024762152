package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"notegraph/application/gestures"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/infrastructure/di"
	"notegraph/interfaces/cli/ui"
)

func noteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Create, edit, move and open notes",
	}
	cmd.AddCommand(noteAddCmd(a), noteEditCmd(a), noteMoveCmd(a), noteOpenCmd(a))
	return cmd
}

func noteAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Create a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if err := c.Controller.Dispatch(ctx, gestures.NoteAdded{Title: title}); err != nil {
				return err
			}

			notes := c.Store.Entities()
			for i := len(notes) - 1; i >= 0; i-- {
				if notes[i].Title == title {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s Created note #%s %s\n",
						ui.StatusIcon(true), notes[i].ID, notes[i].Title)
					break
				}
			}
			return nil
		}),
	}
}

func noteEditCmd(a *app) *cobra.Command {
	var (
		content string
		colour  string
		cloud   int64
		noCloud bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the content, colour or cloud of a note",
		Args:  cobra.ExactArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}

			patch := entities.EntityPatch{ID: id}
			flags := cmd.Flags()
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("color") {
				patch.Color = &colour
			}
			switch {
			case noCloud:
				ref := valueobjects.NoGroup()
				patch.GroupID = &ref
			case flags.Changed("cloud"):
				ref := valueobjects.GroupOf(valueobjects.GroupID(cloud))
				if !ref.IsSet() {
					return fmt.Errorf("invalid cloud id %d", cloud)
				}
				patch.GroupID = &ref
			}
			if !patch.TouchesEditable() {
				return fmt.Errorf("nothing to change: use --content, --color, --cloud or --no-cloud")
			}

			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			if err := c.Controller.Dispatch(ctx, gestures.EntityClicked{ID: id}); err != nil {
				return err
			}
			return c.Controller.Dispatch(ctx, gestures.EntitySaved{Patch: patch})
		}),
	}

	cmd.Flags().StringVar(&content, "content", "", "New content; [[Title]] links to another note")
	cmd.Flags().StringVar(&colour, "color", "", "New colour, #rgb or #rrggbb")
	cmd.Flags().Int64Var(&cloud, "cloud", 0, "Move the note into this cloud")
	cmd.Flags().BoolVar(&noCloud, "no-cloud", false, "Remove the note from its cloud")
	cmd.MarkFlagsMutuallyExclusive("cloud", "no-cloud")
	return cmd
}

func noteMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <x> <y> [z]",
		Short: "Drop a note at a position; it connects to a note it lands on",
		Args:  cobra.RangeArgs(3, 4),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			coords := make([]float64, 3)
			for i, arg := range args[1:] {
				if coords[i], err = strconv.ParseFloat(arg, 64); err != nil {
					return fmt.Errorf("invalid coordinate %q", arg)
				}
			}
			pos, err := valueobjects.NewPosition3D(coords[0], coords[1], coords[2])
			if err != nil {
				return err
			}

			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			c.Controller.Attach(c.Renderer)
			before := c.Store.Snapshot()

			if err := c.Controller.Dispatch(ctx, gestures.DragEnded{ID: id, Position: pos}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			moved, _ := c.Store.GetEntity(id)
			fmt.Fprintf(out, "  %s Moved note #%s to %s\n", ui.StatusIcon(true), id, moved.Position)
			for _, conn := range newConnections(before.Connections, c.Store.Snapshot().Connections) {
				other := conn.TargetID
				if other == id {
					other = conn.SourceID
				}
				fmt.Fprintf(out, "  %s Connected to note #%s\n", ui.StatusIcon(true), other)
			}
			return nil
		}),
	}
}

func newConnections(before, after []entities.Connection) []entities.Connection {
	known := make(map[valueobjects.ConnectionID]bool, len(before))
	for _, conn := range before {
		known[conn.ID] = true
	}
	var added []entities.Connection
	for _, conn := range after {
		if !known[conn.ID] {
			added = append(added, conn)
		}
	}
	return added
}

func noteOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "open <id>",
		Aliases: []string{"show"},
		Short:   "Show a note",
		Args:    cobra.ExactArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			if err := c.Controller.Dispatch(ctx, gestures.EntityClicked{ID: id}); err != nil {
				return err
			}
			defer c.Controller.Dispatch(ctx, gestures.EditorClosed{})

			e, _ := c.Controller.Editor()
			snapshot := c.Store.Snapshot()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s %s\n", ui.Swatch(e.DisplayColor()), ui.Brand.Sprintf("#%s %s", e.ID, e.Title))
			fmt.Fprintf(out, "  %s %s\n", ui.Subtle.Sprint("cloud:   "), cloudLabel(e.GroupID, cloudNames(snapshot.Groups)))
			fmt.Fprintf(out, "  %s %s\n", ui.Subtle.Sprint("colour:  "), e.DisplayColor())
			fmt.Fprintf(out, "  %s %d\n", ui.Subtle.Sprint("size:    "), e.Size)
			fmt.Fprintf(out, "  %s %s\n", ui.Subtle.Sprint("position:"), e.Position)
			if e.Content != "" {
				fmt.Fprintf(out, "\n%s\n", e.Content)
			}

			titles := make(map[valueobjects.EntityID]string, len(snapshot.Entities))
			for _, other := range snapshot.Entities {
				titles[other.ID] = other.Title
			}
			var links []string
			for _, conn := range snapshot.Connections {
				if !conn.Touches(e.ID) {
					continue
				}
				other := conn.TargetID
				if other == e.ID {
					other = conn.SourceID
				}
				links = append(links, fmt.Sprintf("%s (%s)", noteLabel(other, titles), conn.Kind))
			}
			if len(links) > 0 {
				fmt.Fprintf(out, "\n%s\n", ui.Subtle.Sprint("connections:"))
				for _, l := range links {
					fmt.Fprintf(out, "  %s\n", l)
				}
			}
			return nil
		}),
	}
}

func connectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <source-id> <target-id>",
		Short: "Draw a connection between two notes",
		Args:  cobra.ExactArgs(2),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			source, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			target, err := parseEntityID(args[1])
			if err != nil {
				return err
			}
			if err := c.Controller.Dispatch(ctx, gestures.EdgeDrawn{SourceID: source, TargetID: target}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Connected #%s → #%s\n", ui.StatusIcon(true), source, target)
			return nil
		}),
	}
}

func disconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <connection-id>",
		Short: "Delete a connection",
		Args:  cobra.ExactArgs(1),
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, args []string) error {
			id, err := parseConnectionID(args[0])
			if err != nil {
				return err
			}
			if err := c.Controller.Dispatch(ctx, gestures.ConnectionDeleted{ID: id}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted connection #%s\n", ui.StatusIcon(true), id)
			return nil
		}),
	}
}
