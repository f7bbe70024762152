package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notegraph/domain/core/entities"
	"notegraph/infrastructure/config"
	"notegraph/infrastructure/di"
	"notegraph/interfaces/cli/ui"
)

func layoutCmd(a *app) *cobra.Command {
	var (
		ticks       int
		save        bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Run the force layout until it settles and optionally save positions",
		Args:  cobra.NoArgs,
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, _ []string) error {
			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			c.Controller.Attach(c.Renderer)

			out := cmd.OutOrStdout()
			n := c.Renderer.Settle(ticks)
			fmt.Fprintf(out, "  %s Layout ran %d ticks (alpha %.4f)\n", ui.StatusIcon(true), n, c.Renderer.Alpha())

			if !save {
				ui.Table(out, []string{"ID", "TITLE", "POSITION"}, positionRows(c.Store.Entities()))
				return nil
			}

			saved, err := savePositions(ctx, c, concurrency)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s Saved %d positions\n", ui.StatusIcon(true), saved)
			return nil
		}),
	}

	cmd.Flags().IntVar(&ticks, "ticks", 300, "Maximum number of simulation ticks")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the resulting positions")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Parallel position updates when saving")
	return cmd
}

func positionRows(notes []entities.Entity) [][]string {
	rows := make([][]string, 0, len(notes))
	for _, e := range notes {
		rows = append(rows, []string{e.ID.String(), e.Title, e.Position.String()})
	}
	return rows
}

// savePositions pushes every note position, stopping at the first failure
func savePositions(ctx context.Context, c *di.Container, concurrency int) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var saved atomic.Int64
	for _, e := range c.Store.Entities() {
		patch := entities.PositionPatch(e.ID, e.Position)
		g.Go(func() error {
			if _, err := c.Remote.UpdateEntity(gctx, patch); err != nil {
				return fmt.Errorf("note #%s: %w", patch.ID, err)
			}
			saved.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(saved.Load()), err
}

func viewCmd(a *app) *cobra.Command {
	var (
		duration    time.Duration
		status      time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Run the live simulation, reloading the graph periodically",
		Long: "Run the live simulation. The graph is reloaded every reload_interval,\n" +
			"tunables are hot-reloaded from --config and metrics are served on --metrics-addr.",
		Args: cobra.NoArgs,
		RunE: a.withContainer(func(ctx context.Context, cmd *cobra.Command, c *di.Container, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			if metricsAddr == "" {
				metricsAddr = c.Config.MetricsAddr
			}

			if err := c.Controller.Reload(ctx); err != nil {
				return err
			}
			c.Controller.Attach(c.Renderer)

			if a.configPath != "" {
				watcher, err := config.NewWatcher(a.configPath, c.Logger.Named("config"))
				if err != nil {
					return err
				}
				watcher.OnChange(func(cfg *config.Config) { applyTunables(c, cfg) })
				watcher.Start()
				defer watcher.Stop()
			}

			v := &viewer{c: c, out: cmd.OutOrStdout(), status: status}
			return v.run(ctx, metricsAddr)
		}),
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().DurationVar(&status, "status", time.Second, "Status line interval (0 disables)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func applyTunables(c *di.Container, cfg *config.Config) {
	tunables, err := cfg.DomainConfig()
	if err != nil {
		c.Logger.Warn("Ignoring invalid tunables", zap.Error(err))
		return
	}
	if err := c.Controller.ApplyTunables(tunables); err != nil {
		c.Logger.Warn("Ignoring invalid tunables", zap.Error(err))
		return
	}
	c.Renderer.Configure(tunables)
}

// viewer runs the simulation, the periodic reload, the status line and the
// metrics endpoint until the context ends
type viewer struct {
	c      *di.Container
	out    io.Writer
	status time.Duration
}

func (v *viewer) run(ctx context.Context, metricsAddr string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreDone(v.c.Renderer.Run(gctx, v.c.Config.TickInterval))
	})

	if interval := v.c.Config.ReloadInterval; interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					// Failures are alerted by the controller; keep the last graph
					_ = v.c.Controller.Reload(gctx)
				}
			}
		})
	}

	if v.status > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(v.status)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					v.printStatus()
				}
			}
		})
	}

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           v.metricsRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			v.c.Logger.Info("Serving metrics", zap.String("address", metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	v.printStatus()
	return err
}

func (v *viewer) metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", v.c.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (v *viewer) printStatus() {
	snapshot := v.c.Store.Snapshot()
	fmt.Fprintf(v.out, "  %s alpha %.4f · %d notes · %d connections · %d clouds\n",
		ui.Subtle.Sprint(time.Now().Format("15:04:05")),
		v.c.Renderer.Alpha(), len(snapshot.Entities), len(snapshot.Connections), len(snapshot.Groups))
}

func ignoreDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
