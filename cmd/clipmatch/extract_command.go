package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/dataset"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var role string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Populate the clip cache for a dataset role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			variant, err := roleVariant(cfg, role)
			if err != nil {
				return err
			}
			settings := variantSettings(variant)
			dir, err := variantCacheDir(cfg, variant)
			if err != nil {
				return err
			}
			if refresh {
				if err := clipcache.Clear(dir); err != nil {
					return fmt.Errorf("clear cache before refresh: %w", err)
				}
			}

			sources, err := dataset.Discover(dataset.Layout{
				DataRoot:     cfg.Paths.DataRoot,
				FragmentType: variant.FragmentType,
				TargetWidth:  variant.TargetWidth,
				TargetHeight: variant.TargetHeight,
			}, variant.Splits)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no source videos found under %s for splits %v", cfg.Paths.DataRoot, variant.Splits)
			}

			extractor := newExtractor(cfg, variant, logger)
			populator := clipcache.NewPopulator(extractor, cfg.Extraction.FFprobe, logger)
			rng := rand.New(rand.NewSource(cfg.Eval.Seed))
			manifest, err := populator.Ensure(cmd.Context(), dir, settings, sources, true, rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache: %s\n", dir)
			fmt.Fprintf(out, "Sources: %d\n", len(sources))
			fmt.Fprintf(out, "Clips: %d\n", manifest.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "train", "Dataset role to extract (train, val, test)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Discard any existing cache entry first")
	return cmd
}
