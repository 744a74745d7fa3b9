// Command dashboard loads a dataset and prints its statistics, table and
// charts, or runs the background warm-up worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/HFocko/Dashboard/internal/core/services/dashboard"
	"github.com/HFocko/Dashboard/internal/infrastructure/queue"
	"github.com/HFocko/Dashboard/internal/infrastructure/render"
	"github.com/HFocko/Dashboard/internal/infrastructure/storage"
	"github.com/HFocko/Dashboard/internal/pkg/config"
	"github.com/HFocko/Dashboard/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		a       *app
		dataset string
	)

	root := &cobra.Command{
		Use:          "dashboard",
		Short:        "Dataset dashboard: statistics, charts and a paginated table",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if dataset == "" {
				dataset = cfg.DefaultDataset
			}
			a, err = newApp(cmd.Context(), cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&dataset, "dataset", "d", "", "dataset identifier (default DEFAULT_DATASET)")

	appFn := func() *app { return a }
	datasetFn := func() string { return dataset }

	root.AddCommand(
		newDatasetsCmd(appFn),
		newSourcesCmd(appFn),
		newSummaryCmd(appFn, datasetFn),
		newTableCmd(appFn, datasetFn),
		newChartsCmd(appFn, datasetFn),
		newWarmCmd(appFn),
		newWorkerCmd(appFn),
		newHistoryCmd(appFn, datasetFn),
	)
	return root
}

func newDatasetsCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the available datasets and the state of their local sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rows := make([][]string, 0)
			for _, p := range a().profiles.All() {
				size, hash := "-", "-"
				if !storage.IsS3Handle(p.SourceHandle) {
					meta, err := a().local.Stat(ctx, p.SourceHandle)
					if err != nil {
						size = "missing"
					} else {
						size = render.FormatCount(int(meta.Size))
						hash = shortHash(meta.Hash)
					}
				}
				rows = append(rows, []string{p.ID, p.Title, p.SourceHandle, size, hash})
			}
			fmt.Fprintln(cmd.OutOrStdout(), plainTable([]string{"ID", "Title", "Source", "Bytes", "Hash"}, rows))
			return nil
		},
	}
}

func newSourcesCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Inspect the documents in the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := a().local.List(ctx)
			if err != nil {
				return err
			}

			owners := make(map[string]string)
			for _, p := range a().profiles.All() {
				owners[p.SourceHandle] = p.ID
			}

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				format, records, columns := "unsupported", "-", "-"
				if a().parsers.IsSupported(filepath.Ext(f.Handle)) {
					result, err := a().parsers.ParseFile(ctx, f.StoredPath)
					if err != nil {
						format = "malformed"
					} else {
						format = result.Format
						records = render.FormatCount(len(result.Rows))
						columns = strconv.Itoa(len(result.Columns))
					}
				}
				rows = append(rows, []string{f.Handle, owners[f.Handle], format, records, columns})
			}
			fmt.Fprintln(cmd.OutOrStdout(), plainTable([]string{"File", "Dataset", "Format", "Records", "Columns"}, rows))
			return nil
		},
	}
}

func newSummaryCmd(a func() *app, dataset func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print record count, statistics and category distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := a().coordinator()
			defer coord.Close()

			snap, err := coord.SelectDataset(cmd.Context(), dataset())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tr := render.NewTableRenderer(out)
			fmt.Fprintln(out, tr.RenderSummary(snap))

			profile, _ := coord.Profile()
			rows := make([][]string, 0, len(snap.Frequency))
			for _, e := range snap.Frequency {
				rows = append(rows, []string{e.Value, render.FormatCount(e.Count)})
			}
			fmt.Fprintln(out, plainTable([]string{profile.Label(profile.CategoryField), "Records"}, rows))
			return nil
		},
	}
}

func newTableCmd(a func() *app, dataset func() string) *cobra.Command {
	var (
		search string
		sortBy string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print one page of the filtered and sorted table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coord := a().coordinator()
			defer coord.Close()

			if _, err := coord.SelectDataset(ctx, dataset()); err != nil {
				return err
			}
			if search != "" {
				if _, err := coord.Search(ctx, search); err != nil {
					return err
				}
			}
			if sortBy != "" {
				if _, err := coord.Sort(ctx, sortBy); err != nil {
					return err
				}
			}
			// only the final page is printed
			coord.AddRenderer(render.NewTableRenderer(cmd.OutOrStdout()))
			_, err := coord.GoToPage(ctx, page)
			return err
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter term")
	cmd.Flags().StringVar(&sortBy, "sort", "", "field to sort ascending by")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

// chartPublisher writes the charts of every published snapshot and lists
// the files it saved
type chartPublisher struct {
	renderer *render.ChartRenderer
	out      io.Writer
	err      error
}

func (p *chartPublisher) Render(ctx context.Context, snap *dashboard.Snapshot) error {
	files, err := p.renderer.RenderFiles(ctx, snap)
	for _, f := range files {
		fmt.Fprintln(p.out, f.StoredPath)
	}
	p.err = err
	return err
}

func newChartsCmd(a func() *app, dataset func() string) *cobra.Command {
	var (
		outDir string
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Render the distribution, trend and comparison charts to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a().cfg
			if outDir == "" {
				outDir = cfg.ChartOutputDir
			}

			log := logger.NewServiceLogger("charts")
			sink, err := storage.NewLocalStorage(&storage.LocalStorageConfig{BasePath: outDir}, log)
			if err != nil {
				return err
			}
			if maxAge > 0 {
				removed, err := sink.CleanupOldFiles(ctx, maxAge)
				if err != nil {
					return err
				}
				if removed > 0 {
					log.Info("removed stale charts", slog.Int("count", removed))
				}
			}

			publisher := &chartPublisher{
				renderer: render.NewChartRenderer(sink, cfg.ChartWidth, cfg.ChartHeight, log),
				out:      cmd.OutOrStdout(),
			}
			coord := a().coordinator()
			defer coord.Close()
			coord.AddRenderer(publisher)

			if _, err := coord.SelectDataset(ctx, dataset()); err != nil {
				return err
			}
			return publisher.err
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default CHART_OUTPUT_DIR)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "remove charts older than this before rendering (0 keeps all)")
	return cmd
}

func newWarmCmd(a func() *app) *cobra.Command {
	var async, refresh bool

	cmd := &cobra.Command{
		Use:   "warm [dataset...]",
		Short: "Fetch dataset sources into the cache, now or through the worker queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := args
			if len(ids) == 0 {
				ids = a().profiles.IDs()
			}

			if async && refresh {
				return fmt.Errorf("--refresh cannot be combined with --async")
			}

			if async {
				client := queue.NewAsynqClient(a().cfg, logger.NewServiceLogger("queue"))
				defer client.Close()
				for _, id := range ids {
					info, err := client.EnqueueWarm(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tenqueued %s\n", id, info.ID)
				}
				return nil
			}

			warm := a().loader.WarmDataset
			if refresh {
				warm = a().loader.RefreshDataset
			}

			var errs []error
			for _, id := range ids {
				if err := warm(ctx, id); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\twarmed\n", id)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "enqueue warm-up tasks instead of running them")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached sources and fetch them again")
	return cmd
}

func newWorkerCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process dataset warm-up tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a().cfg
			log := a().logger

			if cfg.MetricsAddr != "" {
				srv := &http.Server{
					Addr:              cfg.MetricsAddr,
					Handler:           opsMux(a()),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					log.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("metrics server failed", slog.Any("error", err))
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			server := queue.NewAsynqServer(cfg, logger.NewServiceLogger("worker"))
			server.Handle(queue.TaskTypeDatasetWarm, queue.NewWarmHandler(a().loader, logger.NewServiceLogger("worker")))

			// Run blocks until SIGINT or SIGTERM
			return server.Start()
		},
	}
}

func newHistoryCmd(a func() *app, dataset func() string) *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dataset load attempts from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal := a().journal
			if journal == nil {
				return fmt.Errorf("load journal is disabled; set DB_ENABLED=true")
			}

			id := dataset()
			if all {
				id = ""
			}
			loads, err := journal.Recent(cmd.Context(), id, limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(loads))
			for _, l := range loads {
				rows = append(rows, []string{
					l.CreatedAt.Local().Format(time.DateTime),
					l.DatasetID,
					l.Status,
					render.FormatCount(l.TotalRows),
					fmt.Sprintf("%dms", l.DurationMs),
					fmt.Sprintf("%t", l.CacheHit),
					shortHash(l.ContentHash),
					l.ErrorMessage,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), plainTable(
				[]string{"Time", "Dataset", "Status", "Rows", "Duration", "Cache", "Hash", "Error"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().BoolVar(&all, "all", false, "include every dataset")
	return cmd
}

// opsMux serves Prometheus metrics and the source cache health
func opsMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := a.cache.Health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if health["status"] != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			a.logger.Warn("failed to write health response", slog.Any("error", err))
		}
	})
	return mux
}

func plainTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return strings.TrimSpace(h)
}
