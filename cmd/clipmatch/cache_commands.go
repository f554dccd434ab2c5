package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/services"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage clip caches",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List materialized cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			usage, err := clipcache.Stat(cfg.Paths.CacheRoot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(usage.Entries) == 0 {
				fmt.Fprintln(out, "No cache entries under", cfg.Paths.CacheRoot)
				return nil
			}
			rows := make([][]string, 0, len(usage.Entries))
			for _, entry := range usage.Entries {
				fragment := ""
				splits := ""
				if entry.Settings != nil {
					fragment = entry.Settings.FragmentType
					splits = strings.Join(entry.Settings.Splits, ",")
				}
				rows = append(rows, []string{
					filepath.Base(entry.Directory),
					fragment,
					splits,
					strconv.Itoa(entry.ClipCount),
					humanBytes(entry.SizeBytes),
					entry.ModifiedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Entry", "Fragment", "Splits", "Clips", "Size", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Total: %s, disk free %s (%.1f%%)\n",
				humanBytes(usage.TotalBytes), humanBytes(int64(usage.FreeBytes)), usage.FreeRatio*100)
			return nil
		},
	}
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <role>",
		Short: "Show the cache entry backing a dataset role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			variant, err := roleVariant(cfg, args[0])
			if err != nil {
				return err
			}
			dir, err := variantCacheDir(cfg, variant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", dir)
			key, err := variantSettings(variant).Key()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Settings key: %s\n", key)

			manifest, err := clipcache.Load(dir)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					fmt.Fprintln(out, "Status: not populated")
					return nil
				}
				return err
			}
			var seconds float64
			for _, entry := range manifest.Entries {
				seconds += entry.Duration
			}
			fmt.Fprintf(out, "Clips: %d (%.2f hours)\n", manifest.Len(), seconds/3600)
			if settings, err := clipcache.LoadSettings(dir); err == nil {
				fmt.Fprintf(out, "Fragment: %s, splits %s, %dx%d, duration %.2fs\n",
					settings.FragmentType, strings.Join(settings.Splits, ","),
					settings.TargetWidth, settings.TargetHeight, settings.Duration)
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [role]",
		Short: "Remove cache entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if all {
				usage, err := clipcache.Stat(cfg.Paths.CacheRoot)
				if err != nil {
					return err
				}
				for _, entry := range usage.Entries {
					if err := clipcache.Clear(entry.Directory); err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %s\n", entry.Directory)
				}
				if len(usage.Entries) == 0 {
					fmt.Fprintln(out, "Nothing to clear")
				}
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("specify a role to clear or pass --all")
			}
			variant, err := roleVariant(cfg, args[0])
			if err != nil {
				return err
			}
			dir, err := variantCacheDir(cfg, variant)
			if err != nil {
				return err
			}
			if err := clipcache.Clear(dir); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared %s\n", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every entry under the cache root")
	return cmd
}
