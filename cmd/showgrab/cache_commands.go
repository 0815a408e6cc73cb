package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"showgrab/internal/discovery"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the discovery cache",
	}

	cacheCmd.AddCommand(newCacheShowCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))

	return cacheCmd
}

func newCacheShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List cached series resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openFileCache(cmdCtx)
			if err != nil {
				return err
			}

			entries := cache.List()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Discovery cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.RootID,
					strconv.Itoa(len(entry.EpisodeIDs)),
					entry.UpdatedAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Root", "Episodes", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached series resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openFileCache(cmdCtx)
			if err != nil {
				return err
			}
			count := len(cache.List())
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear discovery cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cache entries\n", count)
			return nil
		},
	}
}

func openFileCache(cmdCtx *commandContext) (*discovery.FileCache, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		return nil, fmt.Errorf("no cache path configured")
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return discovery.NewFileCache(cfg.Cache.Path, logger), nil
}
