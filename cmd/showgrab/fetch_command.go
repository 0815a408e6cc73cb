package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"showgrab/internal/catalog"
	"showgrab/internal/config"
	"showgrab/internal/discovery"
	"showgrab/internal/download"
	"showgrab/internal/history"
	"showgrab/internal/logging"
	"showgrab/internal/postprocess"
)

func newFetchCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		seriesRoots []string
		fromFile    string
		season      int
		qualityPref string
		outputDir   string
		concurrency int
		dryRun      bool
		noCache     bool
		skipExist   bool
		overwrite   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [identifier...]",
		Short: "Download items by identifier or whole series by root identifier",
		Long: `Fetch downloads one file per identifier. Direct identifiers are taken
from the arguments and --from-file; --series roots are first resolved into
their episode identifiers through the discovery cascade.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			defer cmdCtx.closeLog()

			applyFetchOverrides(cfg, cmd, outputDir, concurrency, skipExist, overwrite)
			if cfg.Output.SkipExisting && cfg.Output.Overwrite {
				return fmt.Errorf("--skip-existing and --overwrite are mutually exclusive")
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			ids, err := collectIdentifiers(args, fromFile)
			if err != nil {
				return err
			}

			client := catalog.New(cfg.Catalog.BaseURL, time.Duration(cfg.Catalog.RequestTimeout)*time.Second, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			installDrainHandler(cancel, logger)

			if len(seriesRoots) > 0 {
				var seasonFilter *int
				if season > 0 {
					seasonFilter = &season
				}
				resolved, err := resolveSeries(ctx, cfg, client, logger, seriesRoots, seasonFilter, noCache)
				if err != nil {
					return err
				}
				ids = append(ids, resolved...)
			}
			ids = dedupeStrings(ids)
			if len(ids) == 0 {
				return fmt.Errorf("no identifiers resolved; pass identifiers, --series, or --from-file")
			}

			orchestrator := download.New(client, postprocess.New(logger), download.Options{
				OutputDir:         cfg.Output.Dir,
				Template:          cfg.Output.Template,
				SeriesDirs:        cfg.Output.SeriesDirs,
				SkipExisting:      cfg.Output.SkipExisting,
				Overwrite:         cfg.Output.Overwrite,
				Quality:           qualityPref,
				Concurrency:       cfg.Download.Concurrency,
				JobRetries:        cfg.Download.JobRetries,
				StreamRetries:     cfg.Download.StreamRetries,
				ExpiryWarn:        time.Duration(cfg.Download.ExpiryWarnSeconds) * time.Second,
				SubtitleLanguages: cfg.Subtitles.Languages,
				SubtitleFormat:    cfg.Subtitles.Format,
				PostProcess:       cfg.Subtitles.PostProcess,
				DryRun:            dryRun,
			}, logger)

			summary := orchestrator.Run(ctx, ids)

			if cfg.History.Enabled {
				recordHistory(cfg, logger, summary, dryRun)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(summary))

			if summary.Failed() {
				_, _, failed := summary.Counts()
				return fmt.Errorf("%d of %d jobs failed", failed, len(summary.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&seriesRoots, "series", nil, "Series root identifier to resolve into episodes (repeatable)")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "File with one identifier per line")
	cmd.Flags().IntVar(&season, "season", 0, "Restrict series resolution to one season")
	cmd.Flags().StringVarP(&qualityPref, "quality", "q", "", "Preferred quality name (falls back to highest resolution)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory override")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent download slots override")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan jobs without writing any streams")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the discovery cache (results are still written back)")
	cmd.Flags().BoolVar(&skipExist, "skip-existing", false, "Leave already-downloaded files untouched")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Remove and re-download existing files")

	return cmd
}

func applyFetchOverrides(cfg *config.Config, cmd *cobra.Command, outputDir string, concurrency int, skipExist, overwrite bool) {
	if strings.TrimSpace(outputDir) != "" {
		if expanded, err := config.ExpandPath(outputDir); err == nil {
			cfg.Output.Dir = expanded
		}
	}
	if concurrency > 0 {
		cfg.Download.Concurrency = concurrency
	}
	if cmd.Flags().Changed("skip-existing") {
		cfg.Output.SkipExisting = skipExist
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Output.Overwrite = overwrite
	}
}

// collectIdentifiers merges positional identifiers with the optional id file.
// Blank lines and #-comments in the file are ignored.
func collectIdentifiers(args []string, fromFile string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			ids = append(ids, arg)
		}
	}

	if strings.TrimSpace(fromFile) == "" {
		return ids, nil
	}
	path, err := config.ExpandPath(fromFile)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identifier file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read identifier file: %w", err)
	}
	return ids, nil
}

// resolveSeries runs the discovery cascade for each root and returns the
// episode identifiers in discovery order.
func resolveSeries(ctx context.Context, cfg *config.Config, client *catalog.Client, logger *slog.Logger, roots []string, seasonFilter *int, noCache bool) ([]string, error) {
	cascade := discovery.New(client, newDiscoveryCache(cfg, logger), discovery.Options{
		EpisodesEndpoint: cfg.Catalog.EpisodesEndpoint,
		CrawlLanguages:   cfg.Catalog.CrawlLanguages,
		CrawlLevels:      cfg.Catalog.CrawlLevels,
	}, logger)

	var ids []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		refs, err := cascade.Resolve(ctx, root, seasonFilter, noCache)
		if err != nil {
			return nil, fmt.Errorf("resolve series %s: %w", root, err)
		}
		if len(refs) == 0 {
			logger.Warn("series resolved to no episodes",
				logging.String(logging.FieldRootID, root))
		}
		for _, ref := range refs {
			ids = append(ids, ref.ID)
		}
	}
	return ids, nil
}

func newDiscoveryCache(cfg *config.Config, logger *slog.Logger) discovery.Cache {
	if cfg.Cache.Enabled && cfg.Cache.Path != "" {
		return discovery.NewFileCache(cfg.Cache.Path, logger)
	}
	return discovery.NewMemoryCache()
}

// installDrainHandler cancels the run context on the first interrupt so the
// pool drains gracefully; the handler is then removed and a second interrupt
// falls through to the default disposition.
func installDrainHandler(cancel context.CancelFunc, logger *slog.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Warn("interrupt received; finishing running jobs",
			logging.String("signal", sig.String()))
		signal.Stop(signals)
		cancel()
	}()
}

func recordHistory(cfg *config.Config, logger *slog.Logger, summary download.Summary, dryRun bool) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", logging.Error(err))
		return
	}
	defer store.Close()

	runID, err := store.RecordRun(context.Background(), summary, dryRun)
	if err != nil {
		logger.Warn("failed to record run history", logging.Error(err))
		return
	}
	logger.Debug("run recorded", logging.String(logging.FieldRunID, runID))
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
